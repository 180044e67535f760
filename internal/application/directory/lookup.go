package directory

import (
	"context"
	"strings"
	"time"

	"github.com/gugatkesheladze/youtube-monitor/internal/domain"
)

// LookupByUsername returns the user and true, or false when no such user exists.
func (s *Service) LookupByUsername(ctx context.Context, username string) (domain.User, bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.User{}, false, nil
	}
	u, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		if isNotFound(err) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return u, true, nil
}

func (s *Service) GetUser(ctx context.Context, id int64) (domain.User, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return domain.User{}, domain.ErrUserIDNotFound(id)
		}
		return domain.User{}, err
	}
	return u, nil
}

// ListUsersDueForJob returns ids whose next run time is strictly before asOf,
// earliest first. It never modifies schedules.
func (s *Service) ListUsersDueForJob(ctx context.Context, asOf time.Time, limit int) ([]int64, error) {
	return s.store.ListIDsDueBefore(ctx, asOf, limit)
}
