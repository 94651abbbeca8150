package types

import "time"

// DateOnly truncates a time to midnight UTC. Billing dates (issue, due,
// occurrence) are day-granular.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the current day at midnight UTC
func Today() time.Time {
	return DateOnly(time.Now().UTC())
}
