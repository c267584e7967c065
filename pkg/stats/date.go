package stats

import (
	"fmt"
	"time"
)

// ISO-8601 calendar date layout used throughout the state document.
const dateLayout = "2006-01-02"

// Date is a UTC calendar date in ISO-8601 form ("2006-01-02").
// Lexicographic ordering of valid dates matches chronological ordering,
// so dates are comparable with the builtin string operators.
type Date string

// ParseDate validates s and returns it as a Date.
func ParseDate(s string) (Date, error) {
	_, err := time.Parse(dateLayout, s)
	if err != nil {
		return "", fmt.Errorf("parse date %q: %w", s, err)
	}

	return Date(s), nil
}

// DateOf truncates t to its UTC calendar date.
func DateOf(t time.Time) Date {
	return Date(t.UTC().Format(dateLayout))
}

// Time returns the date as midnight UTC. Invalid dates return the zero time.
func (d Date) Time() time.Time {
	t, err := time.Parse(dateLayout, string(d))
	if err != nil {
		return time.Time{}
	}

	return t
}

// AddDays returns the date shifted by n calendar days (n may be negative).
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	return d < other
}

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool {
	return d > other
}

// Valid reports whether d is a well-formed ISO-8601 calendar date.
func (d Date) Valid() bool {
	_, err := time.Parse(dateLayout, string(d))

	return err == nil
}
