package postgres

import (
	"database/sql"
	"time"

	"github.com/gugatkesheladze/youtube-monitor/internal/domain"
)

const userColumns = `id, username, password_hash, country_code, job_run_minute, next_job_run_time, created_at, updated_at`

type userRow struct {
	ID             int64
	Username       string
	PasswordHash   string
	CountryCode    sql.NullString
	JobRunMinute   sql.NullInt32
	NextJobRunTime time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUserRow(row rowScanner) (userRow, error) {
	var ur userRow
	err := row.Scan(
		&ur.ID,
		&ur.Username,
		&ur.PasswordHash,
		&ur.CountryCode,
		&ur.JobRunMinute,
		&ur.NextJobRunTime,
		&ur.CreatedAt,
		&ur.UpdatedAt,
	)
	return ur, err
}

func toDomainUser(ur userRow) domain.User {
	u := domain.User{
		ID:             ur.ID,
		Username:       ur.Username,
		PasswordHash:   ur.PasswordHash,
		NextJobRunTime: ur.NextJobRunTime.UTC(),
		CreatedAt:      ur.CreatedAt.UTC(),
		UpdatedAt:      ur.UpdatedAt.UTC(),
	}
	if ur.CountryCode.Valid {
		cc := ur.CountryCode.String
		u.CountryCode = &cc
	}
	if ur.JobRunMinute.Valid {
		m := int(ur.JobRunMinute.Int32)
		u.JobRunMinute = &m
	}
	return u
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func nullInt(p *int) sql.NullInt32 {
	if p == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*p), Valid: true}
}
