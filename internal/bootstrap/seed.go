package bootstrap

import (
	"context"

	"github.com/gugatkesheladze/youtube-monitor/internal/application/directory"
	"github.com/gugatkesheladze/youtube-monitor/internal/domain"
	"github.com/gugatkesheladze/youtube-monitor/internal/logger"
)

// UserCreator is the part of the directory service seeding needs.
type UserCreator interface {
	CreateUser(ctx context.Context, in directory.NewUser) (domain.User, error)
}

var devUsers = []directory.NewUser{
	{Username: "admin", Password: "admin"},
	{Username: "demo", Password: "demo", JobRunMinute: intPtr(15)},
}

// SeedUsers creates the dev accounts. Existing accounts are left alone.
func SeedUsers(ctx context.Context, svc UserCreator) {
	for _, u := range devUsers {
		_, err := svc.CreateUser(ctx, u)
		switch {
		case err == nil:
			logger.Logger.Info().Str("username", u.Username).Msg("dev user seeded")
		case domain.Is(err, "username_exists"):
			// already there
		default:
			logger.Logger.Warn().Err(err).Str("username", u.Username).Msg("failed to seed dev user")
		}
	}
}

func intPtr(v int) *int { return &v }
