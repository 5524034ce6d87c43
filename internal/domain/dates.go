package domain

import (
	"strconv"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// NormalizeDate drops the clock part and pins the date to UTC midnight.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD civil date.
func ParseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, NewValidationError(field, "is required")
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, NewValidationError(field, "must be a date in YYYY-MM-DD format")
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Nights returns every night of the stay [start, end) in ascending order.
func Nights(start, end time.Time) []time.Time {
	start, end = NormalizeDate(start), NormalizeDate(end)
	var out []time.Time
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// MaxStayNights is the longest stay any range operation accepts. Deployments
// may configure a lower limit for guest-facing routes.
const MaxStayNights = 731

const oneDay = 24 * time.Hour

// ValidateStay checks start < end on normalized dates and caps the stay at
// MaxStayNights.
func ValidateStay(start, end time.Time) error {
	return ValidateStayWithin(start, end, MaxStayNights)
}

// ValidateStayWithin is ValidateStay with a tighter limit. maxNights outside
// 1..MaxStayNights falls back to MaxStayNights.
func ValidateStayWithin(start, end time.Time, maxNights int) error {
	start, end = NormalizeDate(start), NormalizeDate(end)
	if !start.Before(end) {
		return NewValidationError("endDate", "startDate must be before endDate")
	}
	if maxNights <= 0 || maxNights > MaxStayNights {
		maxNights = MaxStayNights
	}
	// Sub saturates, so far-apart dates still compare as too long
	if end.Sub(start) > time.Duration(maxNights)*oneDay {
		return NewValidationError("endDate", "stay must not exceed "+strconv.Itoa(maxNights)+" nights")
	}
	return nil
}
