package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/gugatkesheladze/youtube-monitor/internal/domain"
	"github.com/gugatkesheladze/youtube-monitor/internal/transport/http/middleware"
	"github.com/gugatkesheladze/youtube-monitor/internal/transport/http/response"
)

type HealthHandler interface {
	Healthz(w http.ResponseWriter, r *http.Request)
	Readyz(w http.ResponseWriter, r *http.Request)
}

type UserHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Me(w http.ResponseWriter, r *http.Request)
	UpdateSchedule(w http.ResponseWriter, r *http.Request)
	MarkRun(w http.ResponseWriter, r *http.Request)
}

type RateLimit struct {
	Enabled bool
	Limit   int
	Window  time.Duration
}

type Deps struct {
	Health HealthHandler
	Users  UserHandler

	// Gate is the CORS -> token -> access pipeline; it wraps every route.
	Gate    func(http.Handler) http.Handler
	Metrics http.Handler

	RateLimit RateLimit
}

func New(deps Deps) (http.Handler, error) {
	if deps.Health == nil {
		return nil, fmt.Errorf("nil Health handler")
	}
	if deps.Users == nil {
		return nil, fmt.Errorf("nil Users handler")
	}
	if deps.Gate == nil {
		return nil, fmt.Errorf("nil Gate middleware")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.AccessLog)
	r.Use(middleware.Metrics)
	r.Use(deps.Gate)

	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Options("/*", preflight)

	r.With(rateLimiter(deps.RateLimit)...).Post("/users", deps.Users.Create)

	r.Route("/secured/users/me", func(r chi.Router) {
		r.Get("/", deps.Users.Me)
		r.Patch("/schedule", deps.Users.UpdateSchedule)
		r.Post("/job-runs", deps.Users.MarkRun)
		r.Options("/*", preflight)
	})

	return r, nil
}

// preflight answers OPTIONS once the gate has attached the CORS headers.
func preflight(w http.ResponseWriter, r *http.Request) {
	response.NoContent(w)
}

func rateLimiter(cfg RateLimit) []func(http.Handler) http.Handler {
	if !cfg.Enabled || cfg.Limit <= 0 {
		return nil
	}
	window := cfg.Window
	if window <= 0 {
		window = time.Minute
	}
	return []func(http.Handler) http.Handler{
		httprate.Limit(
			cfg.Limit,
			window,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				response.WriteError(w, r, domain.ErrRateLimited("create_user"))
			}),
		),
	}
}
