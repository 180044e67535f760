package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/gugatkesheladze/youtube-monitor/internal/logger"
	"github.com/gugatkesheladze/youtube-monitor/internal/metrics"
)

const (
	// markTimeout bounds the reschedule that follows a successful dispatch.
	markTimeout = 5 * time.Second
	// leaseMargin is kept free at the end of a lease for the last reschedule
	// and the release.
	leaseMargin = 2 * markTimeout
)

var (
	// ErrPollInProgress is returned when a poll is requested while another runs.
	ErrPollInProgress = errors.New("poll already in progress")
	// ErrLockHeld is returned when another instance holds the distributed lock.
	ErrLockHeld = errors.New("poll lock held elsewhere")
)

type Config struct {
	Interval   time.Duration
	BatchLimit int
	Clock      func() time.Time
}

// PollResult summarizes one poll.
type PollResult struct {
	AsOf       time.Time
	Due        int
	Dispatched int
	Failed     int
}

// Poller periodically selects due users and dispatches them. At most one poll
// runs at a time per process; ticks that arrive during a poll are skipped.
type Poller struct {
	src      DueSource
	dispatch Dispatcher
	lock     Locker

	interval time.Duration
	limit    int
	now      func() time.Time

	running atomic.Bool
	wg      sync.WaitGroup
	log     zerolog.Logger
}

func NewPoller(src DueSource, dispatch Dispatcher, cfg Config) *Poller {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	clock := cfg.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &Poller{
		src:      src,
		dispatch: dispatch,
		interval: interval,
		limit:    cfg.BatchLimit,
		now:      clock,
		log:      logger.Component("job_poller"),
	}
}

// WithLock adds a cross-process guard.
func (p *Poller) WithLock(l Locker) *Poller {
	p.lock = l
	return p
}

// Run polls once immediately and then on every tick until ctx is cancelled.
// It returns after the in-flight poll, if any, has finished.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.log.Info().Dur("interval", p.interval).Int("batch_limit", p.limit).Msg("started")

	p.trigger(ctx)
	for {
		select {
		case <-ctx.Done():
			p.wg.Wait()
			p.log.Info().Msg("stopped")
			return
		case <-ticker.C:
			p.trigger(ctx)
		}
	}
}

func (p *Poller) trigger(ctx context.Context) {
	if p.running.Load() {
		metrics.JobPolls.WithLabelValues("skipped_overlap").Inc()
		p.log.Warn().Msg("previous poll still running; skipping tick")
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		_, _ = p.PollOnce(ctx)
	}()
}

// PollOnce runs a single poll. It fails with ErrPollInProgress when another
// poll is running in this process.
func (p *Poller) PollOnce(ctx context.Context) (PollResult, error) {
	if !p.running.CompareAndSwap(false, true) {
		metrics.JobPolls.WithLabelValues("skipped_overlap").Inc()
		return PollResult{}, ErrPollInProgress
	}
	defer p.running.Store(false)

	if p.lock != nil {
		// the lease starts no later than this
		requested := time.Now()
		unlock, ok, err := p.lock.TryLock(ctx)
		if err != nil {
			metrics.JobPolls.WithLabelValues("error").Inc()
			p.log.Error().Err(err).Msg("poll lock unavailable; skipping")
			return PollResult{}, err
		}
		if !ok {
			metrics.JobPolls.WithLabelValues("skipped_lock").Inc()
			p.log.Debug().Msg("poll lock held by another instance")
			return PollResult{}, ErrLockHeld
		}
		defer unlock()

		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, leaseDeadline(requested, p.lock.TTL()))
		defer cancel()
	}

	start := time.Now()
	defer func() { metrics.JobPollDuration.Observe(time.Since(start).Seconds()) }()

	res := PollResult{AsOf: p.now()}
	ids, err := p.src.ListUsersDueForJob(ctx, res.AsOf, p.limit)
	if err != nil {
		metrics.JobPolls.WithLabelValues("error").Inc()
		p.log.Error().Err(err).Msg("due query failed")
		return res, err
	}
	res.Due = len(ids)

	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		if err := p.dispatchOne(ctx, id, res.AsOf); err != nil {
			res.Failed++
			continue
		}
		res.Dispatched++
	}
	if left := res.Due - res.Dispatched - res.Failed; left > 0 {
		p.log.Warn().Err(ctx.Err()).Int("left", left).Msg("poll stopped early; remaining users stay due")
	}

	metrics.JobPolls.WithLabelValues("ok").Inc()
	if res.Due > 0 {
		p.log.Info().
			Int("due", res.Due).
			Int("dispatched", res.Dispatched).
			Int("failed", res.Failed).
			Time("as_of", res.AsOf).
			Msg("poll complete")
	}
	return res, nil
}

func (p *Poller) dispatchOne(ctx context.Context, userID int64, asOf time.Time) error {
	job := DueJob{UserID: userID, AsOf: asOf, DispatchedAt: p.now()}

	if err := p.dispatch.DispatchJob(ctx, job); err != nil {
		metrics.JobsDispatched.WithLabelValues("error").Inc()
		p.log.Error().Err(err).Int64("user_id", userID).Msg("dispatch failed; user stays due")
		return err
	}
	metrics.JobsDispatched.WithLabelValues("ok").Inc()

	// The hand-off already happened; finish the reschedule even if the poll is
	// being cancelled, otherwise the user is dispatched again.
	mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), markTimeout)
	defer cancel()
	if _, err := p.src.MarkJobRun(mctx, userID, job.DispatchedAt); err != nil {
		// The job was handed off; a failed reschedule may redispatch it next poll.
		p.log.Error().Err(err).Int64("user_id", userID).Msg("reschedule after dispatch failed")
	}
	return nil
}

// leaseDeadline is when a poll that took the lock at start must stop
// dispatching, so its last reschedule lands before another instance can take
// over the lease.
func leaseDeadline(start time.Time, ttl time.Duration) time.Time {
	margin := leaseMargin
	if ttl <= 2*margin {
		margin = ttl / 2
	}
	return start.Add(ttl - margin)
}
