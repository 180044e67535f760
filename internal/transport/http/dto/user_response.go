package dto

import (
	"time"

	"github.com/gugatkesheladze/youtube-monitor/internal/domain"
)

// UserView never carries the password hash.
type UserView struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	CountryCode    *string   `json:"country_code,omitempty"`
	JobRunMinute   *int      `json:"job_run_minute,omitempty"`
	NextJobRunTime time.Time `json:"next_job_run_time"`
	CreatedAt      time.Time `json:"created_at"`
}

func NewUserView(u domain.User) UserView {
	return UserView{
		ID:             u.ID,
		Username:       u.Username,
		CountryCode:    u.CountryCode,
		JobRunMinute:   u.JobRunMinute,
		NextJobRunTime: u.NextJobRunTime.UTC(),
		CreatedAt:      u.CreatedAt.UTC(),
	}
}

type ScheduleView struct {
	UserID         int64     `json:"user_id"`
	JobRunMinute   int       `json:"job_run_minute"`
	NextJobRunTime time.Time `json:"next_job_run_time"`
}

func NewScheduleView(u domain.User) ScheduleView {
	return ScheduleView{
		UserID:         u.ID,
		JobRunMinute:   u.EffectiveRunMinute(),
		NextJobRunTime: u.NextJobRunTime.UTC(),
	}
}
