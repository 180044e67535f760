package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gugatkesheladze/youtube-monitor/internal/application/directory"
	"github.com/gugatkesheladze/youtube-monitor/internal/domain"
)

const uniqueViolation = "23505"

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type UserRepo struct {
	db   *sql.DB
	q    querier
	inTx bool
}

var _ directory.Store = (*UserRepo)(nil)

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db, q: db}
}

// ---------- directory.UserStore ----------

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.User{}, domain.ErrMissingField("username")
	}

	const q = `
SELECT ` + userColumns + `
FROM users
WHERE username = $1
LIMIT 1;
`
	ur, err := scanUserRow(r.q.QueryRowContext(ctx, q, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound()
		}
		return domain.User{}, domain.ErrDBUnavailable(err)
	}
	return toDomainUser(ur), nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (domain.User, error) {
	const q = `
SELECT ` + userColumns + `
FROM users
WHERE id = $1
LIMIT 1`
	query := q + ";"
	if r.inTx {
		query = q + "\nFOR UPDATE;"
	}

	ur, err := scanUserRow(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound()
		}
		return domain.User{}, domain.ErrDBUnavailable(err)
	}
	return toDomainUser(ur), nil
}

func (r *UserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	if u.Username == "" {
		return domain.User{}, domain.ErrMissingField("username")
	}
	if u.PasswordHash == "" {
		return domain.User{}, domain.ErrMissingField("password_hash")
	}

	const q = `
INSERT INTO users (username, password_hash, country_code, job_run_minute, next_job_run_time)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + userColumns + `;
`
	ur, err := scanUserRow(r.q.QueryRowContext(ctx, q,
		u.Username,
		u.PasswordHash,
		nullString(u.CountryCode),
		nullInt(u.JobRunMinute),
		u.NextJobRunTime.UTC(),
	))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, domain.ErrUsernameExists(u.Username)
		}
		return domain.User{}, domain.ErrDBUnavailable(err)
	}
	return toDomainUser(ur), nil
}

func (r *UserRepo) Update(ctx context.Context, u domain.User) error {
	const q = `
UPDATE users
SET country_code = $2,
    job_run_minute = $3,
    next_job_run_time = $4,
    updated_at = NOW()
WHERE id = $1;
`
	res, err := r.q.ExecContext(ctx, q,
		u.ID,
		nullString(u.CountryCode),
		nullInt(u.JobRunMinute),
		u.NextJobRunTime.UTC(),
	)
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrUserNotFound()
	}
	return nil
}

func (r *UserRepo) ListIDsDueBefore(ctx context.Context, asOf time.Time, limit int) ([]int64, error) {
	const q = `
SELECT id
FROM users
WHERE next_job_run_time < $1
ORDER BY next_job_run_time ASC, id ASC`

	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = r.q.QueryContext(ctx, q+"\nLIMIT $2;", asOf.UTC(), limit)
	} else {
		rows, err = r.q.QueryContext(ctx, q+";", asOf.UTC())
	}
	if err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, domain.ErrDBUnavailable(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	return ids, nil
}

// InTx runs fn in a transaction. Rows read by id inside fn are locked until commit.
func (r *UserRepo) InTx(ctx context.Context, fn func(tx directory.UserStore) error) error {
	if r.inTx {
		return fn(r)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}

	if err := fn(&UserRepo{db: r.db, q: tx, inTx: true}); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return domain.ErrDBUnavailable(err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
