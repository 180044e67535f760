package middleware

import (
	"net/http"

	"github.com/gugatkesheladze/youtube-monitor/internal/domain"
)

type WriteErrFunc func(http.ResponseWriter, *http.Request, error)

// Exchange is the per-request value threaded through the gate stages.
// Header collects response headers; they are applied whether the request is
// forwarded or rejected.
type Exchange struct {
	Request  *http.Request
	Header   http.Header
	Identity domain.Identity
}

func NewExchange(r *http.Request) Exchange {
	return Exchange{Request: r, Header: http.Header{}}
}

// Stage returns the annotated exchange, or a non-nil error to terminate the
// request.
type Stage func(Exchange) (Exchange, error)
