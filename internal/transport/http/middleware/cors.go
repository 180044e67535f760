package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

type CORSConfig struct {
	Enabled        bool
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	ExposedHeaders []string
	MaxAge         int // seconds
}

func defaultCORS(cfg CORSConfig) CORSConfig {
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	if len(cfg.AllowedMethods) == 0 {
		cfg.AllowedMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.AllowedHeaders) == 0 {
		cfg.AllowedHeaders = []string{"Accept", "Authorization", "Content-Type", HeaderXRequestID}
	}
	if len(cfg.ExposedHeaders) == 0 {
		cfg.ExposedHeaders = []string{HeaderXRequestID}
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 3600
	}
	return cfg
}

// CORS annotates the exchange with access-control headers. It never rejects;
// preflights continue through the gate like any other request.
func CORS(cfg CORSConfig) Stage {
	if !cfg.Enabled {
		return func(ex Exchange) (Exchange, error) { return ex, nil }
	}
	cfg = defaultCORS(cfg)
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	exposed := strings.Join(cfg.ExposedHeaders, ", ")
	maxAge := strconv.Itoa(cfg.MaxAge)

	return func(ex Exchange) (Exchange, error) {
		origin := ex.Request.Header.Get("Origin")
		ex.Header.Add("Vary", "Origin")
		if !isOriginAllowed(origin, cfg.AllowedOrigins) {
			return ex, nil
		}

		ex.Header.Set("Access-Control-Allow-Origin", origin)
		ex.Header.Set("Access-Control-Allow-Credentials", "true")
		ex.Header.Set("Access-Control-Expose-Headers", exposed)

		if ex.Request.Method == http.MethodOptions {
			ex.Header.Set("Access-Control-Allow-Methods", methods)
			ex.Header.Set("Access-Control-Allow-Headers", headers)
			ex.Header.Set("Access-Control-Max-Age", maxAge)
		}
		return ex, nil
	}
}

// isOriginAllowed supports "*", exact origins and subdomain wildcards with an
// optional scheme ("*.example.com", "https://*.example.com"). A wildcard never
// matches the bare domain.
func isOriginAllowed(origin string, allowed []string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}

		scheme, host := splitScheme(a)
		if !strings.HasPrefix(host, "*.") {
			continue
		}
		oScheme, oHost := splitScheme(origin)
		if scheme != "" && scheme != oScheme {
			continue
		}
		suffix := strings.TrimPrefix(host, "*")
		if strings.HasSuffix(oHost, suffix) && len(oHost) > len(suffix) {
			return true
		}
	}
	return false
}

func splitScheme(s string) (scheme, rest string) {
	if i := strings.Index(s, "://"); i >= 0 {
		return s[:i], s[i+3:]
	}
	return "", s
}
