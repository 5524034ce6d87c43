package domain

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationCancelled ReservationStatus = "CANCELLED"
	ReservationCompleted ReservationStatus = "COMPLETED"
)

func ParseReservationStatus(raw string) (ReservationStatus, error) {
	s := ReservationStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch s {
	case ReservationPending, ReservationConfirmed, ReservationCancelled, ReservationCompleted:
		return s, nil
	}
	return "", NewValidationError("status", "must be one of PENDING, CONFIRMED, CANCELLED, COMPLETED")
}

// Terminal reports whether the status is normally the end of the lifecycle.
func (s ReservationStatus) Terminal() bool {
	return s == ReservationCancelled || s == ReservationCompleted
}

// HoldsDates reports whether a reservation in this status keeps its nights
// on the calendar.
func (s ReservationStatus) HoldsDates() bool {
	return s == ReservationPending || s == ReservationConfirmed
}

type PaymentType string

const (
	PaymentFull  PaymentType = "FULL_PAYMENT"
	PaymentSplit PaymentType = "SPLIT_PAYMENT"
)

func ParsePaymentType(raw string) (PaymentType, error) {
	p := PaymentType(strings.ToUpper(strings.TrimSpace(raw)))
	switch p {
	case PaymentFull, PaymentSplit:
		return p, nil
	}
	return "", NewValidationError("paymentType", "must be FULL_PAYMENT or SPLIT_PAYMENT")
}

// Reservation is a guest stay over [StartDate, EndDate); EndDate is the checkout day.
type Reservation struct {
	ID                 uuid.UUID
	BookingRef         string
	VillaID            int64
	CurrencyID         string
	StartDate          time.Time
	EndDate            time.Time
	GuestCount         int
	TotalAmount        float64
	AdvanceAmount      float64
	RemainingAmount    float64
	PaymentType        PaymentType
	PaymentMethod      string
	PaymentDueDate     time.Time
	Status             ReservationStatus
	CancellationReason string
	CancelledAt        *time.Time
	CustomerName       string
	CustomerEmail      string
	CustomerPhone      string
	SpecialRequests    string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (r *Reservation) Nights() int {
	return len(Nights(r.StartDate, r.EndDate))
}

// AmountsBalanced checks total = advance + remaining to the cent.
func (r *Reservation) AmountsBalanced() bool {
	return RoundMoney(r.AdvanceAmount+r.RemainingAmount) == RoundMoney(r.TotalAmount)
}

func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
