package memory

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/gugatkesheladze/youtube-monitor/internal/application/jobs"
	"github.com/gugatkesheladze/youtube-monitor/internal/logger"
)

// LogDispatcher stands in for the broker in dev: it logs each hand-off and
// keeps the jobs it has seen.
type LogDispatcher struct {
	mu   sync.Mutex
	sent []jobs.DueJob
	log  zerolog.Logger
}

var _ jobs.Dispatcher = (*LogDispatcher)(nil)

func NewLogDispatcher() *LogDispatcher {
	return &LogDispatcher{log: logger.Component("log_dispatcher")}
}

func (d *LogDispatcher) DispatchJob(ctx context.Context, job jobs.DueJob) error {
	d.mu.Lock()
	d.sent = append(d.sent, job)
	d.mu.Unlock()

	d.log.Info().
		Int64("user_id", job.UserID).
		Time("due_at", job.AsOf).
		Time("dispatched_at", job.DispatchedAt).
		Msg("job due")
	return nil
}

// Dispatched returns a copy of every job handed off so far.
func (d *LogDispatcher) Dispatched() []jobs.DueJob {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]jobs.DueJob, len(d.sent))
	copy(out, d.sent)
	return out
}
