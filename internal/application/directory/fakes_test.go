package directory_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gugatkesheladze/youtube-monitor/internal/application/directory"
	"github.com/gugatkesheladze/youtube-monitor/internal/domain"
	"github.com/gugatkesheladze/youtube-monitor/internal/infrastructure/memory"
)

// fakeHasher "hashes" by prefixing, so tests can assert plaintext is never stored.
type fakeHasher struct {
	mu       sync.Mutex
	hashErr  error
	compares []string
}

func (h *fakeHasher) Hash(pw string) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}
	return "HASH(" + pw + ")", nil
}

func (h *fakeHasher) Compare(hash, pw string) error {
	h.mu.Lock()
	h.compares = append(h.compares, hash)
	h.mu.Unlock()
	if hash == "HASH("+pw+")" {
		return nil
	}
	return errors.New("mismatch")
}

// lateConflictStore simulates a concurrent insert that wins the race: the
// pre-check sees nothing but the insert hits the unique constraint.
type lateConflictStore struct {
	*memory.UserStore
}

func (s lateConflictStore) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	return domain.User{}, domain.ErrUserNotFound()
}

func (s lateConflictStore) Create(ctx context.Context, u domain.User) (domain.User, error) {
	return domain.User{}, domain.ErrUsernameExists(u.Username)
}

func (s lateConflictStore) InTx(ctx context.Context, fn func(tx directory.UserStore) error) error {
	return fn(s)
}

// failingStore fails every call with err.
type failingStore struct{ err error }

func (s failingStore) GetByUsername(context.Context, string) (domain.User, error) {
	return domain.User{}, s.err
}
func (s failingStore) GetByID(context.Context, int64) (domain.User, error) {
	return domain.User{}, s.err
}
func (s failingStore) Create(context.Context, domain.User) (domain.User, error) {
	return domain.User{}, s.err
}
func (s failingStore) Update(context.Context, domain.User) error { return s.err }
func (s failingStore) ListIDsDueBefore(context.Context, time.Time, int) ([]int64, error) {
	return nil, s.err
}
func (s failingStore) InTx(ctx context.Context, fn func(tx directory.UserStore) error) error {
	return fn(s)
}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func newTestService(clock *fixedClock) (*directory.Service, *memory.UserStore, *fakeHasher) {
	store := memory.NewUserStore()
	hasher := &fakeHasher{}
	svc := directory.NewService(store, hasher, directory.Config{Clock: clock.Now})
	return svc, store, hasher
}

func ptr[T any](v T) *T { return &v }

func containsPlain(hash, pw string) bool {
	return hash == pw || !strings.HasPrefix(hash, "HASH(")
}

// txTrackingStore reports whether a transaction is open.
type txTrackingStore struct {
	*memory.UserStore
	open *atomic.Bool
}

func (s txTrackingStore) InTx(ctx context.Context, fn func(tx directory.UserStore) error) error {
	s.open.Store(true)
	defer s.open.Store(false)
	return s.UserStore.InTx(ctx, fn)
}

// txAwareHasher records whether Hash ran while a transaction was open.
type txAwareHasher struct {
	fakeHasher
	open       *atomic.Bool
	hashedInTx atomic.Bool
}

func (h *txAwareHasher) Hash(pw string) (string, error) {
	if h.open.Load() {
		h.hashedInTx.Store(true)
	}
	return h.fakeHasher.Hash(pw)
}
