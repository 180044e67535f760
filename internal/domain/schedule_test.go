package domain

import (
	"testing"
	"time"
)

func at(h, m, s int) time.Time {
	return time.Date(2024, 3, 10, h, m, s, 0, time.UTC)
}

func TestNextJobRunTime_Examples(t *testing.T) {
	cases := []struct {
		name   string
		minute int
		now    time.Time
		want   time.Time
	}{
		{"minute already passed this hour", 15, at(10, 20, 0), at(11, 15, 0)},
		{"minute still ahead this hour", 15, at(10, 5, 0), at(10, 15, 0)},
		{"exactly on the minute rolls over", 15, at(10, 15, 0), at(11, 15, 0)},
		{"sixty is top of next hour", 60, at(10, 59, 59), at(11, 0, 0)},
		{"sixty on the hour", 60, at(10, 0, 0), at(11, 0, 0)},
		{"minute one just after the hour", 1, at(10, 0, 30), at(10, 1, 0)},
		{"day boundary", 30, at(23, 45, 0), time.Date(2024, 3, 11, 0, 30, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NextJobRunTime(tc.minute, tc.now)
			if !got.Equal(tc.want) {
				t.Fatalf("NextJobRunTime(%d, %s) = %s, want %s", tc.minute, tc.now, got, tc.want)
			}
		})
	}
}

func TestNextJobRunTime_AlwaysFutureWithinTwoHours(t *testing.T) {
	base := time.Date(2023, 12, 31, 22, 0, 0, 0, time.UTC)
	for offset := 0; offset < 3*60*60; offset += 37 {
		now := base.Add(time.Duration(offset)*time.Second + 123*time.Millisecond)
		for m := MinRunMinute; m <= MaxRunMinute; m++ {
			got := NextJobRunTime(m, now)
			if !got.After(now) {
				t.Fatalf("minute=%d now=%s: %s is not after now", m, now, got)
			}
			if got.After(now.Add(2 * time.Hour)) {
				t.Fatalf("minute=%d now=%s: %s is more than 2h ahead", m, now, got)
			}
		}
	}
}

func TestNextJobRunTime_Idempotent(t *testing.T) {
	now := at(7, 42, 13)
	for m := MinRunMinute; m <= MaxRunMinute; m++ {
		a := NextJobRunTime(m, now)
		b := NextJobRunTime(m, now)
		if !a.Equal(b) {
			t.Fatalf("minute=%d: %s != %s", m, a, b)
		}
	}
}

func TestValidRunMinute(t *testing.T) {
	for _, m := range []int{0, -1, 61, 100} {
		if ValidRunMinute(m) {
			t.Fatalf("expected %d invalid", m)
		}
	}
	for _, m := range []int{1, 30, 60} {
		if !ValidRunMinute(m) {
			t.Fatalf("expected %d valid", m)
		}
	}
}

func TestValidateSchedule(t *testing.T) {
	three := "GEO"
	two := "ge"
	zero, sixtyOne, ok := 0, 61, 15

	if err := ValidateSchedule(&three, nil); !Is(err, "invalid_field") {
		t.Fatalf("expected invalid_field for 3-char country, got %v", err)
	}
	for _, padded := range []string{"GE ", " G", " GE"} {
		if err := ValidateSchedule(&padded, nil); !Is(err, "invalid_field") {
			t.Fatalf("expected invalid_field for %q, got %v", padded, err)
		}
	}
	if err := ValidateSchedule(nil, &zero); !Is(err, "invalid_field") {
		t.Fatalf("expected invalid_field for minute 0, got %v", err)
	}
	if err := ValidateSchedule(nil, &sixtyOne); !Is(err, "invalid_field") {
		t.Fatalf("expected invalid_field for minute 61, got %v", err)
	}
	if err := ValidateSchedule(&two, &ok); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if err := ValidateSchedule(nil, nil); err != nil {
		t.Fatalf("expected nil for absent fields, got %v", err)
	}
}

func TestUser_RescheduleUsesDefaultMinute(t *testing.T) {
	u := User{}
	u.Reschedule(at(10, 20, 0))
	if !u.NextJobRunTime.Equal(at(11, 0, 0)) {
		t.Fatalf("expected top of next hour, got %s", u.NextJobRunTime)
	}

	m := 15
	u.JobRunMinute = &m
	u.Reschedule(at(10, 5, 0))
	if !u.NextJobRunTime.Equal(at(10, 15, 0)) {
		t.Fatalf("expected 10:15, got %s", u.NextJobRunTime)
	}
	if u.IsDue(at(10, 15, 0)) {
		t.Fatalf("not due at exactly next run time")
	}
	if !u.IsDue(at(10, 15, 1)) {
		t.Fatalf("expected due after next run time")
	}
}
