package directory

import (
	"sync"
	"time"

	"github.com/gugatkesheladze/youtube-monitor/internal/domain"
)

type Service struct {
	store  Store
	hasher PasswordHasher

	now   func() time.Time
	audit func(action string, fields map[string]string)

	// decoy hash compared against when the username is unknown
	decoyOnce sync.Once
	decoyHash string
}

type Config struct {
	// Clock defaults to time.Now in UTC.
	Clock func() time.Time
}

func NewService(store Store, hasher PasswordHasher, cfg Config) *Service {
	clock := cfg.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		store:  store,
		hasher: hasher,
		now:    clock,
		audit:  func(string, map[string]string) {},
	}
}

func (s *Service) WithAudit(fn func(action string, fields map[string]string)) *Service {
	if fn != nil {
		s.audit = fn
	}
	return s
}

// NewUser is the candidate accepted by CreateUser. A nonzero ID is only checked
// for collisions; the store always assigns the final id.
type NewUser struct {
	ID           int64
	Username     string
	Password     string
	CountryCode  *string
	JobRunMinute *int
}

func isNotFound(err error) bool {
	return domain.KindOf(err) == domain.KindNotFound
}
