package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrStorage    = errors.New("storage error")
)

// ValidationError names the offending input field.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// DayOutcome is the result of mutating a single calendar day.
type DayOutcome struct {
	Date time.Time
	Err  error
}

// PartialFailureError reports a range mutation where some days were written and some were not.
type PartialFailureError struct {
	Outcomes     []DayOutcome
	SuccessCount int
	Total        int
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("partial failure: %d of %d dates updated", e.SuccessCount, e.Total)
}

// Failed returns the outcomes that carry an error.
func (e *PartialFailureError) Failed() []DayOutcome {
	out := make([]DayOutcome, 0, e.Total-e.SuccessCount)
	for _, o := range e.Outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// NightConflictError is returned when a stay cannot take one of its nights.
type NightConflictError struct {
	VillaID int64
	Date    time.Time
	Reason  string
}

func (e *NightConflictError) Error() string {
	return fmt.Sprintf("villa %d: %s is %s", e.VillaID, FormatDate(e.Date), e.Reason)
}

func (e *NightConflictError) Unwrap() error { return ErrConflict }
