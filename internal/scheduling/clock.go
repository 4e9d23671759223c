package scheduling

import "time"

// ToInstant combines a calendar date with a minutes-since-midnight clock
// reading, in the date's location.
func ToInstant(date time.Time, tod TimeOfDay) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, int(tod), 0, 0, date.Location())
}

// MinutesBetween returns b minus a in whole minutes, truncated toward zero.
func MinutesBetween(a, b time.Time) int {
	return int(b.Sub(a) / time.Minute)
}

// DateOnly strips the clock portion of t, keeping its location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
