package response

import (
	"net/http"

	appCtx "github.com/gugatkesheladze/youtube-monitor/internal/pkg/context"
)

func RequestIDFromContext(r *http.Request) string {
	return appCtx.GetRequestID(r.Context())
}
