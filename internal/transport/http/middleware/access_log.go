package middleware

import (
	"net/http"
	"time"

	"github.com/gugatkesheladze/youtube-monitor/internal/logger"
	appCtx "github.com/gugatkesheladze/youtube-monitor/internal/pkg/context"
)

func AccessLog(next http.Handler) http.Handler {
	log := logger.Component("http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		ev := log.Info()
		if sw.status >= http.StatusInternalServerError {
			ev = log.Error()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.status).
			Dur("duration", time.Since(start)).
			Str("request_id", appCtx.GetRequestID(r.Context())).
			Msg("request")
	})
}
