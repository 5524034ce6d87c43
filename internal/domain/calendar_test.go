package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, _ := time.Parse(DateLayout, s)
	return t
}

func TestDayAvailable(t *testing.T) {
	assert.True(t, DayAvailable(nil), "absent day is available")
	assert.True(t, DayAvailable(&CalendarDay{Status: CalendarAvailable}))
	assert.False(t, DayAvailable(&CalendarDay{Status: CalendarBlocked}))
	assert.False(t, DayAvailable(&CalendarDay{Status: CalendarReserved}))
	assert.False(t, DayAvailable(&CalendarDay{Status: CalendarPending}))
}

func TestNightClaimable(t *testing.T) {
	own := uuid.New()
	other := uuid.New()
	checkIn := EventCheckIn
	checkOut := EventCheckOut

	cases := []struct {
		name string
		day  *CalendarDay
		res  *uuid.UUID
		want bool
	}{
		{"absent", nil, &own, true},
		{"plain available", &CalendarDay{Status: CalendarAvailable}, &own, true},
		{"blocked", &CalendarDay{Status: CalendarBlocked}, &own, false},
		{"reserved by other", &CalendarDay{Status: CalendarReserved, ReservationID: &other}, &own, false},
		{"reserved by self", &CalendarDay{Status: CalendarReserved, ReservationID: &own}, &own, true},
		{"reserved without link, admin mark", &CalendarDay{Status: CalendarReserved}, nil, true},
		{"check-in night of other stay", &CalendarDay{Status: CalendarAvailable, EventType: &checkIn, ReservationID: &other}, &own, false},
		{"check-in night of own stay", &CalendarDay{Status: CalendarAvailable, EventType: &checkIn, ReservationID: &own}, &own, true},
		{"checkout day of other stay", &CalendarDay{Status: CalendarAvailable, EventType: &checkOut, ReservationID: &other}, &own, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NightClaimable(tc.day, tc.res))
		})
	}
}

func TestParseEnums(t *testing.T) {
	s, err := ParseCalendarStatus("blocked")
	require.NoError(t, err)
	assert.Equal(t, CalendarBlocked, s)

	_, err = ParseCalendarStatus("HOLD")
	assert.ErrorIs(t, err, ErrValidation)

	e, err := ParseEventType("special_offer")
	require.NoError(t, err)
	assert.Equal(t, EventSpecialOffer, e)

	_, err = ParseEventType("CHECKIN+CHECKOUT")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ParsePaymentType("CARD")
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "paymentType", vErr.Field)
}

func TestNightsIsEndExclusive(t *testing.T) {
	nights := Nights(date("2025-07-10"), date("2025-07-13"))
	require.Len(t, nights, 3)
	assert.Equal(t, "2025-07-10", FormatDate(nights[0]))
	assert.Equal(t, "2025-07-12", FormatDate(nights[2]))

	assert.Empty(t, Nights(date("2025-07-13"), date("2025-07-13")))
}

func TestValidateStay(t *testing.T) {
	assert.NoError(t, ValidateStay(date("2025-06-01"), date("2025-06-02")))
	assert.ErrorIs(t, ValidateStay(date("2025-06-02"), date("2025-06-02")), ErrValidation)
	assert.ErrorIs(t, ValidateStay(date("2025-06-03"), date("2025-06-02")), ErrValidation)
}

func TestValidateStay_Length(t *testing.T) {
	start := date("2025-01-01")

	assert.NoError(t, ValidateStay(start, start.AddDate(0, 0, MaxStayNights)))
	assert.ErrorIs(t, ValidateStay(start, start.AddDate(0, 0, MaxStayNights+1)), ErrValidation)

	assert.NoError(t, ValidateStayWithin(start, date("2025-01-04"), 3))
	err := ValidateStayWithin(start, date("2025-01-05"), 3)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "endDate", vErr.Field)
	assert.Contains(t, vErr.Error(), "3 nights")

	assert.NoError(t, ValidateStayWithin(start, start.AddDate(0, 0, MaxStayNights), 0), "non-positive limit means the ceiling")
}

func TestValidateStay_ExtremeDates(t *testing.T) {
	// the first representable date is a real date, not a missing one
	assert.NoError(t, ValidateStay(time.Time{}, date("0001-01-05")))
	assert.ErrorIs(t, ValidateStay(date("0001-01-02"), date("9999-12-31")), ErrValidation)
}

func TestReservationAmountsBalanced(t *testing.T) {
	r := &Reservation{TotalAmount: 300, AdvanceAmount: 90.1, RemainingAmount: 209.9}
	assert.True(t, r.AmountsBalanced())

	r.RemainingAmount = 200
	assert.False(t, r.AmountsBalanced())
}
