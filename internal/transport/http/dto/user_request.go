package dto

import (
	"strings"

	"github.com/gugatkesheladze/youtube-monitor/internal/domain"
)

type CreateUserRequest struct {
	Username     string  `json:"username" validate:"required,max=64,username_format"`
	Password     string  `json:"password" validate:"required,max=72"`
	CountryCode  *string `json:"country_code" validate:"omitempty,len=2"`
	JobRunMinute *int    `json:"job_run_minute" validate:"omitempty,min=1,max=60"`
}

func (r *CreateUserRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	return validateStruct(r)
}

type UpdateScheduleRequest struct {
	CountryCode  *string `json:"country_code" validate:"omitempty,len=2"`
	JobRunMinute *int    `json:"job_run_minute" validate:"omitempty,min=1,max=60"`
}

func (r *UpdateScheduleRequest) Validate() error {
	if r.CountryCode == nil && r.JobRunMinute == nil {
		return domain.ErrEmptyUpdate()
	}
	return validateStruct(r)
}

func (r UpdateScheduleRequest) ToDomain() domain.ScheduleUpdate {
	return domain.ScheduleUpdate{CountryCode: r.CountryCode, JobRunMinute: r.JobRunMinute}
}
