package middleware

import (
	"strings"

	"github.com/gugatkesheladze/youtube-monitor/internal/domain"
	"github.com/gugatkesheladze/youtube-monitor/internal/logger"
	"github.com/gugatkesheladze/youtube-monitor/internal/metrics"
)

type TokenVerifier interface {
	VerifyAccessToken(raw string) (domain.Identity, error)
}

// Token attaches an identity when the configured header carries a valid
// token. Missing or bad tokens leave the exchange anonymous; this stage never
// rejects.
func Token(verifier TokenVerifier, header string) Stage {
	if header == "" {
		header = "Authorization"
	}
	log := logger.Component("token_filter")

	return func(ex Exchange) (Exchange, error) {
		ex.Identity = domain.Identity{}

		raw := bearerToken(ex.Request.Header.Get(header))
		if raw == "" {
			metrics.TokenVerifications.WithLabelValues("absent").Inc()
			return ex, nil
		}

		id, err := verifier.VerifyAccessToken(raw)
		if err != nil || !id.Authenticated() {
			metrics.TokenVerifications.WithLabelValues("invalid").Inc()
			log.Debug().Err(err).Str("path", ex.Request.URL.Path).Msg("token rejected; continuing anonymously")
			return ex, nil
		}

		metrics.TokenVerifications.WithLabelValues("valid").Inc()
		ex.Identity = id
		return ex, nil
	}
}

// bearerToken strips an optional "Bearer " scheme.
func bearerToken(v string) string {
	v = strings.TrimSpace(v)
	if len(v) > 7 && strings.EqualFold(v[:7], "bearer ") {
		return strings.TrimSpace(v[7:])
	}
	if strings.EqualFold(v, "bearer") {
		return ""
	}
	return v
}
