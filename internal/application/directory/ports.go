package directory

import (
	"context"
	"time"

	"github.com/gugatkesheladze/youtube-monitor/internal/domain"
)

/*
UserStore
---------
Persistence port for users.
Lookups return domain.ErrUserNotFound when no row matches.
Create assigns the id and maps a uniqueness violation to domain.ErrUsernameExists.
Update writes the mutable fields only (country code, run minute, next run time).
*/
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	GetByID(ctx context.Context, id int64) (domain.User, error)
	Create(ctx context.Context, u domain.User) (domain.User, error)
	Update(ctx context.Context, u domain.User) error

	// ListIDsDueBefore returns ids with next_job_run_time < asOf, earliest first.
	// limit <= 0 means no limit.
	ListIDsDueBefore(ctx context.Context, asOf time.Time, limit int) ([]int64, error)
}

/*
Store
-----
UserStore plus a transaction boundary. Everything fn does through tx commits
or rolls back as one unit.
*/
type Store interface {
	UserStore
	InTx(ctx context.Context, fn func(tx UserStore) error) error
}

/*
PasswordHasher
--------------
Abstracts bcrypt.
*/
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash string, password string) error // nil if match
}
