package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MinRunMinute = 1
	MaxRunMinute = 60

	// DefaultRunMinute schedules users without a preference at the top of the hour.
	DefaultRunMinute = MaxRunMinute

	CountryCodeLen = 2
)

// NextJobRunTime returns the next instant at minute past the hour that is strictly
// after now. A minute of 60 is the top of the next hour.
//
// The result is always in (now, now+2h].
func NextJobRunTime(minute int, now time.Time) time.Time {
	candidate := now.Truncate(time.Hour).Add(time.Duration(minute) * time.Minute)
	if candidate.After(now) {
		return candidate
	}
	return candidate.Add(time.Hour)
}

// ValidRunMinute reports whether m is in [1, 60].
func ValidRunMinute(m int) bool {
	return m >= MinRunMinute && m <= MaxRunMinute
}

// ValidCountryCode reports whether c is exactly two characters.
func ValidCountryCode(c string) bool {
	return utf8.RuneCountInString(c) == CountryCodeLen
}

// NormalizeCountryCode upper-cases a country code. Validate first; padding is
// not stripped, so "GE " stays invalid.
func NormalizeCountryCode(c string) string {
	return strings.ToUpper(c)
}

// ValidateSchedule checks the optional schedule fields of a create or update.
func ValidateSchedule(countryCode *string, jobRunMinute *int) error {
	if countryCode != nil && !ValidCountryCode(*countryCode) {
		return ErrInvalidField("country_code", "length must be 2")
	}
	if jobRunMinute != nil && !ValidRunMinute(*jobRunMinute) {
		return ErrInvalidField("job_run_minute", "must be in range 1-60 inclusive")
	}
	return nil
}
