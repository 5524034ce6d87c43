package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"villastay/internal/domain"
)

// DefaultListWindow is how far past startDate a listing reaches when endDate is omitted.
const DefaultListWindow = 90 * 24 * time.Hour

type Service struct {
	calendar CalendarStore
	villas   VillaChecker
	now      func() time.Time
}

func NewService(calendar CalendarStore, villas VillaChecker) *Service {
	return &Service{calendar: calendar, villas: villas, now: time.Now}
}

// ListFilter narrows a calendar listing. Zero dates fall back to today and
// today + DefaultListWindow.
type ListFilter struct {
	StartDate time.Time
	EndDate   time.Time
	Statuses  []domain.CalendarStatus
}

// NewDay is the input of CreateDay.
type NewDay struct {
	Date          time.Time
	Status        domain.CalendarStatus
	Price         *float64
	Note          string
	EventType     *domain.EventType
	ReservationID *uuid.UUID
}

// EnsureVilla returns ErrNotFound for unknown villas.
func (s *Service) EnsureVilla(ctx context.Context, villaID int64) error {
	if villaID <= 0 {
		return domain.NewValidationError("villaId", "must be a positive integer")
	}
	ok, err := s.villas.Exists(ctx, villaID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: villa %d", domain.ErrNotFound, villaID)
	}
	return nil
}

func (s *Service) List(ctx context.Context, villaID int64, f ListFilter) ([]domain.CalendarDay, error) {
	if err := s.EnsureVilla(ctx, villaID); err != nil {
		return nil, err
	}

	start := f.StartDate
	if start.IsZero() {
		start = domain.NormalizeDate(s.now())
	}
	end := f.EndDate
	if end.IsZero() {
		end = start.Add(DefaultListWindow)
	}
	if end.Before(start) {
		return nil, domain.NewValidationError("endDate", "must not be before startDate")
	}

	return s.calendar.QueryRange(ctx, villaID, start, end, f.Statuses...)
}

func (s *Service) CreateDay(ctx context.Context, villaID int64, in NewDay) (*domain.CalendarDay, error) {
	if err := s.EnsureVilla(ctx, villaID); err != nil {
		return nil, err
	}
	if in.Date.IsZero() {
		return nil, domain.NewValidationError("date", "is required")
	}
	if err := checkPrice(in.Price); err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = domain.CalendarAvailable
	}

	d := &domain.CalendarDay{
		VillaID:       villaID,
		Date:          domain.NormalizeDate(in.Date),
		Status:        status,
		Price:         in.Price,
		Note:          in.Note,
		EventType:     in.EventType,
		ReservationID: in.ReservationID,
	}
	if err := s.calendar.Create(ctx, d); err != nil {
		return nil, err
	}

	slog.Info("calendar_event", "event", "day_created", "villa_id", villaID, "id", d.ID, "date", domain.FormatDate(d.Date))
	return d, nil
}

// UpdateDay patches one day of villaID. A day that belongs to another villa is
// reported as not found.
func (s *Service) UpdateDay(ctx context.Context, villaID, id int64, patch domain.DayPatch, newDate *time.Time) (*domain.CalendarDay, error) {
	if patch.Empty() && newDate == nil {
		return nil, domain.NewValidationError("", "nothing to update")
	}
	if err := checkPrice(patch.Price); err != nil {
		return nil, err
	}
	if _, err := s.dayOfVilla(ctx, villaID, id); err != nil {
		return nil, err
	}

	d, err := s.calendar.Update(ctx, id, patch, newDate)
	if err != nil {
		return nil, err
	}

	slog.Info("calendar_event", "event", "day_updated", "villa_id", villaID, "id", id, "date", domain.FormatDate(d.Date))
	return d, nil
}

// DeleteDay removes one day of villaID and returns what was removed.
func (s *Service) DeleteDay(ctx context.Context, villaID, id int64) (*domain.CalendarDay, error) {
	d, err := s.dayOfVilla(ctx, villaID, id)
	if err != nil {
		return nil, err
	}
	if err := s.calendar.Delete(ctx, id); err != nil {
		return nil, err
	}

	slog.Info("calendar_event", "event", "day_deleted", "villa_id", villaID, "id", id, "date", domain.FormatDate(d.Date))
	return d, nil
}

func (s *Service) dayOfVilla(ctx context.Context, villaID, id int64) (*domain.CalendarDay, error) {
	d, err := s.calendar.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.VillaID != villaID {
		return nil, fmt.Errorf("%w: calendar event %d", domain.ErrNotFound, id)
	}
	return d, nil
}

func checkPrice(p *float64) error {
	if p != nil && *p < 0 {
		return domain.NewValidationError("price", "must not be negative")
	}
	return nil
}
