package directory

import (
	"context"
	"strings"

	"github.com/gugatkesheladze/youtube-monitor/internal/domain"
)

// VerifyCredentials loads the user and checks the password in one step.
// Unknown usernames and wrong passwords fail with the same error.
func (s *Service) VerifyCredentials(ctx context.Context, username, password string) (domain.Identity, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.Identity{}, domain.ErrInvalidCredentials()
	}

	u, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		if !isNotFound(err) {
			return domain.Identity{}, err
		}
		// Keep timing close to the found-user path.
		_ = s.hasher.Compare(s.decoy(), password)
		return domain.Identity{}, domain.ErrInvalidCredentials()
	}

	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return domain.Identity{}, domain.ErrInvalidCredentials()
	}
	return domain.Identity{Username: u.Username}, nil
}

// fallbackDecoyHash is a well-formed bcrypt hash (cost 12) compared against when
// hashing the decoy fails, so the unknown-user path never skips the compare.
const fallbackDecoyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

func (s *Service) decoy() string {
	s.decoyOnce.Do(func() {
		h, err := s.hasher.Hash("decoy-password-never-matches")
		if err != nil || h == "" {
			h = fallbackDecoyHash
		}
		s.decoyHash = h
	})
	return s.decoyHash
}
