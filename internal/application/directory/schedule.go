package directory

import (
	"context"
	"strconv"
	"time"

	"github.com/gugatkesheladze/youtube-monitor/internal/domain"
)

const timeLayout = time.RFC3339

// UpdateSchedule applies whichever fields are present. Setting the run minute
// recomputes the next run time from now.
func (s *Service) UpdateSchedule(ctx context.Context, userID int64, upd domain.ScheduleUpdate) error {
	if upd.Empty() {
		return domain.ErrEmptyUpdate()
	}
	if err := domain.ValidateSchedule(upd.CountryCode, upd.JobRunMinute); err != nil {
		return err
	}

	var updated domain.User
	err := s.store.InTx(ctx, func(tx UserStore) error {
		u, err := tx.GetByID(ctx, userID)
		if err != nil {
			if isNotFound(err) {
				return domain.ErrUserIDNotFound(userID)
			}
			return err
		}

		if upd.CountryCode != nil {
			cc := domain.NormalizeCountryCode(*upd.CountryCode)
			u.CountryCode = &cc
		}
		if upd.JobRunMinute != nil {
			m := *upd.JobRunMinute
			u.JobRunMinute = &m
			u.Reschedule(s.now())
		}

		if err := tx.Update(ctx, u); err != nil {
			return err
		}
		updated = u
		return nil
	})
	if err != nil {
		return err
	}

	s.audit("user.schedule.update", map[string]string{
		"user_id":           strconv.FormatInt(userID, 10),
		"next_job_run_time": updated.NextJobRunTime.Format(timeLayout),
	})
	return nil
}

// MarkJobRun pushes the user's next run time forward, seeded from completedAt.
// The stored value never moves backwards.
func (s *Service) MarkJobRun(ctx context.Context, userID int64, completedAt time.Time) (domain.User, error) {
	var out domain.User
	err := s.store.InTx(ctx, func(tx UserStore) error {
		u, err := tx.GetByID(ctx, userID)
		if err != nil {
			if isNotFound(err) {
				return domain.ErrUserIDNotFound(userID)
			}
			return err
		}

		next := domain.NextJobRunTime(u.EffectiveRunMinute(), completedAt)
		if !next.After(u.NextJobRunTime) {
			out = u
			return nil
		}
		u.NextJobRunTime = next

		if err := tx.Update(ctx, u); err != nil {
			return err
		}
		out = u
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return out, nil
}
