package jobs

import (
	"context"
	"time"

	"github.com/gugatkesheladze/youtube-monitor/internal/domain"
)

// DueSource is the slice of the directory service the poller needs.
type DueSource interface {
	ListUsersDueForJob(ctx context.Context, asOf time.Time, limit int) ([]int64, error)
	MarkJobRun(ctx context.Context, userID int64, completedAt time.Time) (domain.User, error)
}

// DueJob is one user handed off for execution.
type DueJob struct {
	UserID       int64
	AsOf         time.Time
	DispatchedAt time.Time
}

// Dispatcher hands a due user to whatever runs the job.
type Dispatcher interface {
	DispatchJob(ctx context.Context, job DueJob) error
}

// Locker guards a poll across processes. acquired=false means another
// instance holds the lock.
type Locker interface {
	TryLock(ctx context.Context) (unlock func(), acquired bool, err error)
	// TTL is the lease length. A poll holding the lock stops dispatching
	// before it runs out.
	TTL() time.Duration
}
