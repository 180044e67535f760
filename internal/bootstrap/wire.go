package bootstrap

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gugatkesheladze/youtube-monitor/internal/application/directory"
	"github.com/gugatkesheladze/youtube-monitor/internal/application/jobs"
	"github.com/gugatkesheladze/youtube-monitor/internal/config"
	"github.com/gugatkesheladze/youtube-monitor/internal/infrastructure/db/migrations"
	"github.com/gugatkesheladze/youtube-monitor/internal/infrastructure/db/postgres"
	"github.com/gugatkesheladze/youtube-monitor/internal/infrastructure/memory"
	"github.com/gugatkesheladze/youtube-monitor/internal/infrastructure/messaging/rabbitmq"
	"github.com/gugatkesheladze/youtube-monitor/internal/infrastructure/redis"
	"github.com/gugatkesheladze/youtube-monitor/internal/infrastructure/security"
	"github.com/gugatkesheladze/youtube-monitor/internal/logger"
	"github.com/gugatkesheladze/youtube-monitor/internal/transport/http/gate"
	"github.com/gugatkesheladze/youtube-monitor/internal/transport/http/handlers"
	"github.com/gugatkesheladze/youtube-monitor/internal/transport/http/middleware"
	"github.com/gugatkesheladze/youtube-monitor/internal/transport/http/response"
	"github.com/gugatkesheladze/youtube-monitor/internal/transport/http/router"
)

/*
========================
 Public entry
========================
*/

// App is the assembled process: the HTTP server and, when enabled, the
// due-job poller.
type App struct {
	Server *http.Server
	Poller *jobs.Poller
}

func NewApp() (*App, func(), error) {
	return newApp(defaultDeps())
}

// NewAppWithDeps allows injecting dependencies for testing
func NewAppWithDeps(deps Deps) (*App, func(), error) {
	return newApp(deps)
}

/*
========================
 Dependency injection
========================
*/

type Deps struct {
	LoadConfig func() (*config.Config, error)

	NewDB   func(addr string, debug bool) (*sql.DB, error)
	Migrate func(ctx context.Context, db *sql.DB) error

	NewRedis func(addr, password string, db int) *redis.Client

	NewDispatcher func(url, exchange string) (JobDispatcher, error)

	NewRouter func(router.Deps) (http.Handler, error)
}

// JobDispatcher is a dispatcher that owns a connection.
type JobDispatcher interface {
	jobs.Dispatcher
	Close() error
}

/*
========================
 Core bootstrap logic
========================
*/

func newApp(deps Deps) (*App, func(), error) {
	// 0) config
	cfg, err := deps.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	var cleanupFns []func()
	fail := func(err error) (*App, func(), error) {
		runCleanup(cleanupFns)
		return nil, nil, err
	}

	// 1) store
	var (
		store directory.Store
		sqlDB *sql.DB
	)
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		logger.Logger.Warn().Msg("using in-memory user store; data is lost on restart")
		store = memory.NewUserStore()
	default:
		sqlDB, err = deps.NewDB(cfg.DBAddr, cfg.DBDebug)
		if err != nil {
			return nil, nil, err
		}
		cleanupFns = append(cleanupFns, func() { _ = sqlDB.Close() })

		if cfg.DBAutoMigrate && deps.Migrate != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			err := deps.Migrate(ctx, sqlDB)
			cancel()
			if err != nil {
				return fail(err)
			}
			logger.Logger.Info().Msg("migrations applied")
		}
		store = postgres.NewUserRepo(sqlDB)
	}

	// 2) directory service
	hasher := security.NewBcryptHasher(cfg.BcryptCost)
	svc := directory.NewService(store, hasher, directory.Config{}).
		WithAudit(func(action string, fields map[string]string) {
			evt := logger.Logger.Info().
				Bool("audit", true).
				Str("action", action)
			for k, v := range fields {
				evt = evt.Str(k, v)
			}
			evt.Msg("audit")
		})

	// seed (dev only)
	if cfg.IsDev() {
		SeedUsers(context.Background(), svc)
	}

	// 3) request gate
	verifier := security.NewJWT(cfg.JWTSecret, cfg.JWTIssuer)
	g, err := gate.New(gate.Config{
		CORS: middleware.CORSConfig{
			Enabled:        cfg.CORSEnabled,
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedHeaders: []string{"Accept", "Content-Type", cfg.TokenHeader, middleware.HeaderXRequestID},
		},
		Verifier:         verifier,
		TokenHeader:      cfg.TokenHeader,
		ProtectedPattern: cfg.ProtectedPathPattern,
	}, response.WriteError)
	if err != nil {
		return fail(err)
	}

	// 4) handlers + router
	var pinger handlers.Pinger
	if sqlDB != nil {
		pinger = sqlDB
	}

	mux, err := deps.NewRouter(router.Deps{
		Health:  handlers.NewHealthHandler(pinger),
		Users:   handlers.NewUserHandler(svc),
		Gate:    g.Middleware,
		Metrics: promhttp.Handler(),
		RateLimit: router.RateLimit{
			Enabled: cfg.RLEnabled,
			Limit:   cfg.RLLimit,
			Window:  cfg.RLWindow,
		},
	})
	if err != nil {
		return fail(err)
	}

	app := &App{
		Server: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      mux,
			ReadTimeout:  cfg.HTTPReadTimeout,
			WriteTimeout: cfg.HTTPWriteTimeout,
			IdleTimeout:  cfg.HTTPIdleTimeout,
		},
	}

	// 5) job poller
	if cfg.JobsEnabled {
		dispatcher, closeFn, err := newDispatcher(deps, cfg)
		if err != nil {
			return fail(err)
		}
		if closeFn != nil {
			cleanupFns = append(cleanupFns, closeFn)
		}

		poller := jobs.NewPoller(svc, dispatcher, jobs.Config{
			Interval:   cfg.JobPollInterval,
			BatchLimit: cfg.JobBatchLimit,
		})

		// redis (best-effort): without it only the in-process guard applies
		if cfg.RedisAddr != "" && deps.NewRedis != nil {
			c := deps.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
			if err := c.Ping(context.Background()); err != nil {
				logger.Logger.Warn().Err(err).Msg("redis unavailable; poll lock disabled")
				_ = c.Close()
			} else {
				logger.Logger.Info().Msg("redis connected; poll lock enabled")
				cleanupFns = append(cleanupFns, func() { _ = c.Close() })
				poller.WithLock(redis.NewPollLock(c, redis.DefaultPollLockKey, cfg.JobPollLockTTL))
			}
		}
		app.Poller = poller
	}

	return app, func() { runCleanup(cleanupFns) }, nil
}

// newDispatcher connects to the broker. In dev a missing or unreachable broker
// falls back to logging the hand-off.
func newDispatcher(deps Deps, cfg *config.Config) (jobs.Dispatcher, func(), error) {
	if cfg.RabbitURL == "" || deps.NewDispatcher == nil {
		logger.Logger.Warn().Msg("no broker configured; due jobs are only logged")
		return memory.NewLogDispatcher(), nil, nil
	}

	d, err := deps.NewDispatcher(cfg.RabbitURL, cfg.RabbitExchange)
	if err != nil {
		if cfg.IsDev() {
			logger.Logger.Warn().Err(err).Msg("rabbitmq unavailable; due jobs are only logged")
			return memory.NewLogDispatcher(), nil, nil
		}
		return nil, nil, err
	}
	return d, func() { _ = d.Close() }, nil
}

/*
========================
 Default deps (prod)
========================
*/

func defaultDeps() Deps {
	return Deps{
		LoadConfig: config.Load,
		NewDB:      config.NewDB,
		Migrate:    migrations.Up,
		NewRedis:   redis.New,
		NewDispatcher: func(url, exchange string) (JobDispatcher, error) {
			return rabbitmq.NewDispatcher(url, exchange)
		},
		NewRouter: router.New,
	}
}

/*
========================
 helpers
========================
*/

func runCleanup(fns []func()) {
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}
