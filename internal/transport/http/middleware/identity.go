package middleware

import (
	"context"

	"github.com/gugatkesheladze/youtube-monitor/internal/domain"
)

type ctxKey string

const ctxIdentity ctxKey = "identity"

func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, ctxIdentity, id)
}

// IdentityFromContext reports false for anonymous requests.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(ctxIdentity).(domain.Identity)
	return id, ok && id.Authenticated()
}
