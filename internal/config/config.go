package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	// App
	Env string // dev / staging / prod

	// HTTP
	HTTPAddr         string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration

	// Request gate
	JWTSecret            string
	JWTIssuer            string
	TokenHeader          string
	ProtectedPathPattern string
	CORSEnabled          bool
	CORSAllowedOrigins   []string

	// Storage
	StoreDriver   string
	DBAddr        string
	DBDebug       bool
	DBAutoMigrate bool
	BcryptCost    int

	// Redis (optional; enables the distributed poll lock)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// RabbitMQ
	RabbitURL      string
	RabbitExchange string

	// Job poller
	JobsEnabled     bool
	JobPollInterval time.Duration
	JobPollLockTTL  time.Duration
	JobBatchLimit   int

	// Rate limit on public user creation
	RLEnabled bool
	RLLimit   int
	RLWindow  time.Duration
}

// IsDev reports whether the service runs in the dev environment.
func (c *Config) IsDev() bool { return c.Env == "dev" }

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:                  getEnv("ENV", "dev"),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		JWTIssuer:            os.Getenv("JWT_ISSUER"),
		TokenHeader:          getEnv("TOKEN_HEADER", "Authorization"),
		ProtectedPathPattern: getEnv("PROTECTED_PATH_PATTERN", "/secured/**"),
		CORSAllowedOrigins:   getList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		StoreDriver:          strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		RabbitURL:            strings.TrimSpace(os.Getenv("RABBIT_URL")),
		RabbitExchange:       getEnv("RABBIT_EXCHANGE", "monitor.jobs"),
	}

	// required values
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("missing required env var: JWT_SECRET")
	}
	if !strings.HasPrefix(cfg.ProtectedPathPattern, "/") {
		return nil, fmt.Errorf("PROTECTED_PATH_PATTERN must start with '/': %q", cfg.ProtectedPathPattern)
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		cfg.DBAddr = os.Getenv("DB_ADDR")
		if cfg.DBAddr == "" {
			return nil, fmt.Errorf("missing required env var: DB_ADDR")
		}
	case StoreDriverMemory:
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER: %q", cfg.StoreDriver)
	}

	if !cfg.IsDev() && cfg.RabbitURL == "" {
		return nil, fmt.Errorf("missing RABBIT_URL (required when ENV != dev)")
	}

	var err error
	if cfg.HTTPReadTimeout, err = getDuration("HTTP_READ_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPWriteTimeout, err = getDuration("HTTP_WRITE_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPIdleTimeout, err = getDuration("HTTP_IDLE_TIMEOUT", time.Minute); err != nil {
		return nil, err
	}
	if cfg.CORSEnabled, err = getBool("CORS_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.DBDebug, err = getBool("DB_DEBUG", false); err != nil {
		return nil, err
	}
	if cfg.DBAutoMigrate, err = getBool("DB_AUTO_MIGRATE", true); err != nil {
		return nil, err
	}
	if cfg.BcryptCost, err = getInt("BCRYPT_COST", 12); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.JobsEnabled, err = getBool("JOBS_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.JobPollInterval, err = getDuration("JOB_POLL_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.JobPollLockTTL, err = getDuration("JOB_POLL_LOCK_TTL", 2*time.Minute); err != nil {
		return nil, err
	}
	if cfg.JobBatchLimit, err = getInt("JOB_BATCH_LIMIT", 500); err != nil {
		return nil, err
	}
	if cfg.RLEnabled, err = getBool("RL_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.RLLimit, err = getInt("RL_LIMIT", 5); err != nil {
		return nil, err
	}
	if cfg.RLWindow, err = getDuration("RL_WINDOW", time.Minute); err != nil {
		return nil, err
	}

	if cfg.JobPollInterval <= 0 {
		return nil, fmt.Errorf("JOB_POLL_INTERVAL must be positive")
	}
	if cfg.JobPollLockTTL < cfg.JobPollInterval {
		return nil, fmt.Errorf("JOB_POLL_LOCK_TTL (%s) must be >= JOB_POLL_INTERVAL (%s)", cfg.JobPollLockTTL, cfg.JobPollInterval)
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %q: %w", key, v, err)
	}
	return d, nil
}

func getInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid int for %s: %q: %w", key, v, err)
	}
	return n, nil
}

func getBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid bool for %s: %q: %w", key, v, err)
	}
	return b, nil
}

// getList parses a comma-separated list, dropping empty items.
func getList(key string, def []string) []string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
