package calendar

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"villastay/internal/database"
	"villastay/internal/domain"
	"villastay/internal/repository"
)

// RangeResult lists what happened to each day touched by a range mutation, in
// write order: check-in day, checkout day, then interior nights ascending.
type RangeResult struct {
	VillaID  int64
	Outcomes []domain.DayOutcome
}

func (r *RangeResult) add(date time.Time, err error) {
	r.Outcomes = append(r.Outcomes, domain.DayOutcome{Date: date, Err: err})
}

func (r *RangeResult) Total() int { return len(r.Outcomes) }

func (r *RangeResult) SuccessCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err == nil {
			n++
		}
	}
	return n
}

// UpdatedDates returns the successfully written dates as YYYY-MM-DD.
func (r *RangeResult) UpdatedDates() []string {
	out := make([]string, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		if o.Err == nil {
			out = append(out, domain.FormatDate(o.Date))
		}
	}
	return out
}

type RangeService struct {
	calendar *repository.CalendarRepository
	locker   *database.VillaLocker
}

func NewRangeService(calendar *repository.CalendarRepository, locker *database.VillaLocker) *RangeService {
	return &RangeService{calendar: calendar, locker: locker}
}

// MarkStay marks [start, end) for a stay as one all-or-nothing operation under the
// villa lock: start becomes CHECKIN, end CHECKOUT, nights between RESERVED.
func (s *RangeService) MarkStay(ctx context.Context, villaID int64, start, end time.Time, reservationID *uuid.UUID) (*RangeResult, error) {
	if err := domain.ValidateStay(start, end); err != nil {
		return nil, err
	}

	var result *RangeResult
	err := s.locker.InTx(ctx, villaID, func(tx *gorm.DB) error {
		var err error
		result, err = s.MarkStayTx(ctx, tx, villaID, start, end, reservationID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// MarkStayTx is MarkStay for callers that already hold the villa lock and own tx.
// Any refused night aborts with a *domain.NightConflictError; the caller's
// transaction is expected to roll back.
func (s *RangeService) MarkStayTx(ctx context.Context, tx *gorm.DB, villaID int64, start, end time.Time, reservationID *uuid.UUID) (*RangeResult, error) {
	if err := domain.ValidateStay(start, end); err != nil {
		return nil, err
	}
	start, end = domain.NormalizeDate(start), domain.NormalizeDate(end)
	cal := s.calendar.WithTx(tx)
	nights := domain.Nights(start, end)

	rows, err := cal.QueryRange(ctx, villaID, start, nights[len(nights)-1])
	if err != nil {
		return nil, err
	}
	byDate := make(map[time.Time]domain.CalendarDay, len(rows))
	for _, d := range rows {
		byDate[d.Date] = d
	}
	for _, night := range nights {
		if d, ok := byDate[night]; ok && !domain.NightClaimable(&d, reservationID) {
			return nil, &domain.NightConflictError{VillaID: villaID, Date: night, Reason: refusalReason(&d)}
		}
	}

	result := &RangeResult{VillaID: villaID}

	applied, err := cal.MarkBoundary(ctx, villaID, start, domain.EventCheckIn, reservationID)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, &domain.NightConflictError{VillaID: villaID, Date: start, Reason: "taken"}
	}
	result.add(start, nil)

	applied, err = cal.MarkBoundary(ctx, villaID, end, domain.EventCheckOut, reservationID)
	if err != nil {
		return nil, err
	}
	if !applied {
		slog.Debug("calendar_event", "event", "checkout_day_kept", "villa_id", villaID, "date", domain.FormatDate(end))
	}
	result.add(end, nil)

	for _, night := range nights[1:] {
		applied, err := cal.ClaimNight(ctx, villaID, night, reservationID)
		if err != nil {
			return nil, err
		}
		if !applied {
			return nil, &domain.NightConflictError{VillaID: villaID, Date: night, Reason: "taken"}
		}
		result.add(night, nil)
	}

	slog.Info("calendar_event",
		"event", "stay_marked",
		"villa_id", villaID,
		"start_date", domain.FormatDate(start),
		"end_date", domain.FormatDate(end),
		"reservation_id", reservationLabel(reservationID),
	)
	return result, nil
}

// MarkStayEach is the per-day variant: each day is an independent unconditional
// upsert and a failure does not undo the days already written. Mixed outcomes
// are returned together with a *domain.PartialFailureError.
func (s *RangeService) MarkStayEach(ctx context.Context, villaID int64, start, end time.Time, reservationID *uuid.UUID) (*RangeResult, error) {
	if err := domain.ValidateStay(start, end); err != nil {
		return nil, err
	}
	start, end = domain.NormalizeDate(start), domain.NormalizeDate(end)

	unlock := s.locker.Lock(villaID)
	defer unlock()

	available := domain.CalendarAvailable
	reserved := domain.CalendarReserved
	checkIn := domain.EventCheckIn
	checkOut := domain.EventCheckOut

	type step struct {
		date  time.Time
		patch domain.DayPatch
	}
	steps := []step{
		{start, domain.DayPatch{Status: &available, EventType: &checkIn}},
		{end, domain.DayPatch{Status: &available, EventType: &checkOut}},
	}
	for _, night := range domain.Nights(start, end)[1:] {
		steps = append(steps, step{night, domain.DayPatch{Status: &reserved, ClearEventType: true}})
	}

	result := &RangeResult{VillaID: villaID}
	for _, st := range steps {
		p := st.patch
		if st.date.Equal(start) || st.date.Equal(end) {
			p.ReservationID = reservationID
			p.ClearReservation = reservationID == nil
		} else if reservationID != nil {
			p.ReservationID = reservationID
		}
		_, err := s.calendar.Upsert(ctx, villaID, st.date, p)
		if err != nil {
			slog.Warn("calendar_event", "event", "day_mark_failed", "villa_id", villaID, "date", domain.FormatDate(st.date), "error", err.Error())
		}
		result.add(st.date, err)
	}

	ok := result.SuccessCount()
	switch {
	case ok == result.Total():
		return result, nil
	case ok == 0:
		return result, result.Outcomes[0].Err
	default:
		return result, &domain.PartialFailureError{Outcomes: result.Outcomes, SuccessCount: ok, Total: result.Total()}
	}
}

// UnmarkStay releases [start, end] back to AVAILABLE. With a reservation id only
// the days linked to that stay change.
func (s *RangeService) UnmarkStay(ctx context.Context, villaID int64, start, end time.Time, reservationID *uuid.UUID) (int64, error) {
	if err := domain.ValidateStay(start, end); err != nil {
		return 0, err
	}
	var released int64
	err := s.locker.InTx(ctx, villaID, func(tx *gorm.DB) error {
		var err error
		released, err = s.UnmarkStayTx(ctx, tx, villaID, start, end, reservationID)
		return err
	})
	return released, err
}

func (s *RangeService) UnmarkStayTx(ctx context.Context, tx *gorm.DB, villaID int64, start, end time.Time, reservationID *uuid.UUID) (int64, error) {
	released, err := s.calendar.WithTx(tx).Release(ctx, villaID, start, end, reservationID)
	if err != nil {
		return 0, err
	}
	slog.Info("calendar_event",
		"event", "stay_released",
		"villa_id", villaID,
		"start_date", domain.FormatDate(start),
		"end_date", domain.FormatDate(end),
		"reservation_id", reservationLabel(reservationID),
		"days", released,
	)
	return released, nil
}

func refusalReason(d *domain.CalendarDay) string {
	switch d.Status {
	case domain.CalendarReserved:
		return "already reserved"
	case domain.CalendarBlocked:
		return "blocked"
	case domain.CalendarPending:
		return "pending"
	}
	return "the check-in night of another stay"
}

func reservationLabel(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
