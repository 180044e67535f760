package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gugatkesheladze/youtube-monitor/internal/application/directory"
	"github.com/gugatkesheladze/youtube-monitor/internal/domain"
)

// UserStore keeps users in maps. InTx serializes transactions and restores a
// snapshot when fn fails.
type UserStore struct {
	txMu sync.Mutex

	mu         sync.RWMutex
	nextID     int64
	byID       map[int64]domain.User
	byUsername map[string]int64
}

var _ directory.Store = (*UserStore)(nil)

func NewUserStore() *UserStore {
	return &UserStore{
		nextID:     1,
		byID:       make(map[int64]domain.User),
		byUsername: make(map[string]int64),
	}
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return cloneUser(s.byID[id]), nil
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return cloneUser(u), nil
}

func (s *UserStore) Create(ctx context.Context, u domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byUsername[u.Username]; exists {
		return domain.User{}, domain.ErrUsernameExists(u.Username)
	}

	now := time.Now().UTC()
	u.ID = s.nextID
	s.nextID++
	u.CreatedAt = now
	u.UpdatedAt = now

	s.byID[u.ID] = cloneUser(u)
	s.byUsername[u.Username] = u.ID
	return cloneUser(u), nil
}

func (s *UserStore) Update(ctx context.Context, u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.byID[u.ID]
	if !ok {
		return domain.ErrUserNotFound()
	}
	cur.CountryCode = u.CountryCode
	cur.JobRunMinute = u.JobRunMinute
	cur.NextJobRunTime = u.NextJobRunTime
	cur.UpdatedAt = time.Now().UTC()
	s.byID[u.ID] = cloneUser(cur)
	return nil
}

func (s *UserStore) ListIDsDueBefore(ctx context.Context, asOf time.Time, limit int) ([]int64, error) {
	s.mu.RLock()
	due := make([]domain.User, 0)
	for _, u := range s.byID {
		if u.IsDue(asOf) {
			due = append(due, u)
		}
	}
	s.mu.RUnlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].NextJobRunTime.Equal(due[j].NextJobRunTime) {
			return due[i].ID < due[j].ID
		}
		return due[i].NextJobRunTime.Before(due[j].NextJobRunTime)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	ids := make([]int64, len(due))
	for i, u := range due {
		ids[i] = u.ID
	}
	return ids, nil
}

func (s *UserStore) InTx(ctx context.Context, fn func(tx directory.UserStore) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(s); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	nextID     int64
	byID       map[int64]domain.User
	byUsername map[string]int64
}

func (s *UserStore) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		nextID:     s.nextID,
		byID:       make(map[int64]domain.User, len(s.byID)),
		byUsername: make(map[string]int64, len(s.byUsername)),
	}
	for k, v := range s.byID {
		snap.byID[k] = cloneUser(v)
	}
	for k, v := range s.byUsername {
		snap.byUsername[k] = v
	}
	return snap
}

func (s *UserStore) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID = snap.nextID
	s.byID = snap.byID
	s.byUsername = snap.byUsername
}

func cloneUser(u domain.User) domain.User {
	if u.CountryCode != nil {
		cc := *u.CountryCode
		u.CountryCode = &cc
	}
	if u.JobRunMinute != nil {
		m := *u.JobRunMinute
		u.JobRunMinute = &m
	}
	return u
}
