package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gugatkesheladze/youtube-monitor/internal/application/directory"
	"github.com/gugatkesheladze/youtube-monitor/internal/domain"
	"github.com/gugatkesheladze/youtube-monitor/internal/logger"
	appCtx "github.com/gugatkesheladze/youtube-monitor/internal/pkg/context"
	"github.com/gugatkesheladze/youtube-monitor/internal/transport/http/dto"
	"github.com/gugatkesheladze/youtube-monitor/internal/transport/http/middleware"
	"github.com/gugatkesheladze/youtube-monitor/internal/transport/http/response"
)

type UserService interface {
	CreateUser(ctx context.Context, in directory.NewUser) (domain.User, error)
	LookupByUsername(ctx context.Context, username string) (domain.User, bool, error)
	UpdateSchedule(ctx context.Context, userID int64, upd domain.ScheduleUpdate) error
	MarkJobRun(ctx context.Context, userID int64, completedAt time.Time) (domain.User, error)
}

type UserHandler struct {
	svc UserService
	now func() time.Time
}

func NewUserHandler(svc UserService) *UserHandler {
	return &UserHandler{svc: svc, now: func() time.Time { return time.Now().UTC() }}
}

// Create handles POST /users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	u, err := h.svc.CreateUser(r.Context(), directory.NewUser{
		Username:     req.Username,
		Password:     req.Password,
		CountryCode:  req.CountryCode,
		JobRunMinute: req.JobRunMinute,
	})
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.Logger.Info().
		Int64("user_id", u.ID).
		Str("username", u.Username).
		Str("request_id", appCtx.GetRequestID(r.Context())).
		Msg("user_registered")

	response.Created(w, dto.NewUserView(u))
}

// Me handles GET /secured/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	response.OK(w, dto.NewUserView(u))
}

// UpdateSchedule handles PATCH /secured/users/me/schedule
func (h *UserHandler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateScheduleRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	if err := h.svc.UpdateSchedule(r.Context(), u.ID, req.ToDomain()); err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.NoContent(w)
}

// MarkRun handles POST /secured/users/me/job-runs
func (h *UserHandler) MarkRun(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	updated, err := h.svc.MarkJobRun(r.Context(), u.ID, h.now())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewScheduleView(updated))
}

// currentUser resolves the gate identity to a stored user. A verified token
// whose user no longer exists is treated as unauthenticated.
func (h *UserHandler) currentUser(w http.ResponseWriter, r *http.Request) (domain.User, bool) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrAuthenticationRequired())
		return domain.User{}, false
	}
	u, found, err := h.svc.LookupByUsername(r.Context(), id.Username)
	if err != nil {
		response.WriteError(w, r, err)
		return domain.User{}, false
	}
	if !found {
		response.WriteError(w, r, domain.ErrAuthenticationRequired())
		return domain.User{}, false
	}
	return u, true
}
