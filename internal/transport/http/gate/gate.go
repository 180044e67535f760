// Package gate runs the request gate: CORS annotation, token verification and
// the access decision, always in that order.
package gate

import (
	"net/http"

	"github.com/gugatkesheladze/youtube-monitor/internal/transport/http/middleware"
)

type Config struct {
	CORS     middleware.CORSConfig
	Verifier middleware.TokenVerifier
	// TokenHeader defaults to Authorization.
	TokenHeader      string
	ProtectedPattern string
}

type Gate struct {
	stages   []middleware.Stage
	writeErr middleware.WriteErrFunc
}

func New(cfg Config, writeErr middleware.WriteErrFunc) (*Gate, error) {
	pc, err := middleware.NewPathClassifier(cfg.ProtectedPattern)
	if err != nil {
		return nil, err
	}
	return &Gate{
		stages: []middleware.Stage{
			middleware.CORS(cfg.CORS),
			middleware.Token(cfg.Verifier, cfg.TokenHeader),
			middleware.Access(pc),
		},
		writeErr: writeErr,
	}, nil
}

// Evaluate runs the stages over r. The returned exchange carries every header
// collected before the first rejection.
func (g *Gate) Evaluate(r *http.Request) (middleware.Exchange, error) {
	ex := middleware.NewExchange(r)
	for _, stage := range g.stages {
		next, err := stage(ex)
		if err != nil {
			return next, err
		}
		ex = next
	}
	return ex, nil
}

func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ex, err := g.Evaluate(r)

		h := w.Header()
		for k, vs := range ex.Header {
			for _, v := range vs {
				h.Add(k, v)
			}
		}

		if err != nil {
			g.writeErr(w, r, err)
			return
		}

		ctx := r.Context()
		if ex.Identity.Authenticated() {
			ctx = middleware.WithIdentity(ctx, ex.Identity)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
