package domain

import "time"

// User is the identity and scheduling record of one account.
// CountryCode and JobRunMinute are optional preferences.
type User struct {
	ID             int64
	Username       string
	PasswordHash   string
	CountryCode    *string
	JobRunMinute   *int
	NextJobRunTime time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// EffectiveRunMinute is the minute used for scheduling: the configured one,
// or DefaultRunMinute when the user never set it.
func (u User) EffectiveRunMinute() int {
	if u.JobRunMinute != nil {
		return *u.JobRunMinute
	}
	return DefaultRunMinute
}

// Reschedule recomputes NextJobRunTime from now.
func (u *User) Reschedule(now time.Time) {
	u.NextJobRunTime = NextJobRunTime(u.EffectiveRunMinute(), now)
}

// IsDue reports whether the user's job should run for a poll taken at asOf.
func (u User) IsDue(asOf time.Time) bool {
	return u.NextJobRunTime.Before(asOf)
}

// ScheduleUpdate carries the optional fields of a schedule change.
// A nil field is left untouched.
type ScheduleUpdate struct {
	CountryCode  *string
	JobRunMinute *int
}

// Empty reports whether no field is present.
func (s ScheduleUpdate) Empty() bool {
	return s.CountryCode == nil && s.JobRunMinute == nil
}

// Identity is the verified, per-request caller. It is never persisted.
type Identity struct {
	Username string
}

// Authenticated reports whether the identity came from a verified token.
func (i Identity) Authenticated() bool {
	return i.Username != ""
}
