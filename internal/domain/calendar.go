package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type CalendarStatus string

const (
	CalendarAvailable CalendarStatus = "AVAILABLE"
	CalendarPending   CalendarStatus = "PENDING"
	CalendarReserved  CalendarStatus = "RESERVED"
	CalendarBlocked   CalendarStatus = "BLOCKED"
)

func (s CalendarStatus) Valid() bool {
	switch s {
	case CalendarAvailable, CalendarPending, CalendarReserved, CalendarBlocked:
		return true
	}
	return false
}

// ParseCalendarStatus accepts the closed status set, case-insensitively.
func ParseCalendarStatus(raw string) (CalendarStatus, error) {
	s := CalendarStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", NewValidationError("status", "must be one of AVAILABLE, PENDING, RESERVED, BLOCKED")
	}
	return s, nil
}

type EventType string

const (
	EventCheckIn      EventType = "CHECKIN"
	EventCheckOut     EventType = "CHECKOUT"
	EventSpecialOffer EventType = "SPECIAL_OFFER"
)

func (e EventType) Valid() bool {
	switch e {
	case EventCheckIn, EventCheckOut, EventSpecialOffer:
		return true
	}
	return false
}

func ParseEventType(raw string) (EventType, error) {
	e := EventType(strings.ToUpper(strings.TrimSpace(raw)))
	if !e.Valid() {
		return "", NewValidationError("eventType", "must be one of CHECKIN, CHECKOUT, SPECIAL_OFFER")
	}
	return e, nil
}

// CalendarDay is the availability record of one villa on one date.
// ReservationID is a lookup reference only; the reservation does not own the day.
type CalendarDay struct {
	ID            int64
	VillaID       int64
	Date          time.Time
	Status        CalendarStatus
	Price         *float64
	Note          string
	EventType     *EventType
	ReservationID *uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DayPatch carries the fields a mutation sets. Nil pointers are left untouched;
// the Clear* flags null a column explicitly.
type DayPatch struct {
	Status           *CalendarStatus
	Price            *float64
	ClearPrice       bool
	Note             *string
	EventType        *EventType
	ClearEventType   bool
	ReservationID    *uuid.UUID
	ClearReservation bool
}

func (p DayPatch) Empty() bool {
	return p.Status == nil && p.Price == nil && !p.ClearPrice && p.Note == nil &&
		p.EventType == nil && !p.ClearEventType && p.ReservationID == nil && !p.ClearReservation
}

// DayAvailable is the single place where "no row" means AVAILABLE.
func DayAvailable(d *CalendarDay) bool {
	return d == nil || d.Status == CalendarAvailable
}

// NightClaimable reports whether a stay linked to reservationID may take the night d.
// Besides DayAvailable it refuses the check-in night of another stay, and accepts a
// night the same reservation already holds so that re-marking is idempotent.
func NightClaimable(d *CalendarDay, reservationID *uuid.UUID) bool {
	if d == nil {
		return true
	}
	switch d.Status {
	case CalendarAvailable:
		if d.EventType == nil || *d.EventType != EventCheckIn || d.ReservationID == nil {
			return true
		}
		return reservationID != nil && *d.ReservationID == *reservationID
	case CalendarReserved:
		return sameReservation(d.ReservationID, reservationID)
	}
	return false
}

func sameReservation(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
