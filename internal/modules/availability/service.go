package availability

import (
	"context"
	"time"

	"villastay/internal/domain"
)

// Quote summarizes a stay: whether every night is free and, when all nights
// are priced, the total.
type Quote struct {
	VillaID          int64
	StartDate        time.Time
	EndDate          time.Time
	Nights           int
	Available        bool
	FirstUnavailable *time.Time
	TotalPrice       *float64
}

type Service struct {
	calendar CalendarReader
}

func NewService(calendar CalendarReader) *Service {
	return &Service{calendar: calendar}
}

func (s *Service) IsAvailable(ctx context.Context, villaID int64, date time.Time) (bool, error) {
	d, err := s.calendar.Get(ctx, villaID, date)
	if err != nil {
		return false, err
	}
	return domain.DayAvailable(d), nil
}

// AreAllNightsAvailable checks every night of [start, end). The checkout day is
// not a night of the stay and is not inspected.
func (s *Service) AreAllNightsAvailable(ctx context.Context, villaID int64, start, end time.Time) (bool, error) {
	first, err := s.firstUnavailable(ctx, villaID, start, end)
	if err != nil {
		return false, err
	}
	return first == nil, nil
}

// PriceForRange sums the nightly prices of [start, end). ok is false when any
// night has no price; a partial sum is never returned.
func (s *Service) PriceForRange(ctx context.Context, villaID int64, start, end time.Time) (amount float64, ok bool, err error) {
	if err := domain.ValidateStay(start, end); err != nil {
		return 0, false, err
	}
	byDate, err := s.nightRows(ctx, villaID, start, end)
	if err != nil {
		return 0, false, err
	}

	var total float64
	for _, night := range domain.Nights(start, end) {
		d, found := byDate[night]
		if !found || d.Price == nil {
			return 0, false, nil
		}
		total += *d.Price
	}
	return domain.RoundMoney(total), true, nil
}

// Quote answers availability and price for a stay with one range read.
func (s *Service) Quote(ctx context.Context, villaID int64, start, end time.Time) (*Quote, error) {
	if err := domain.ValidateStay(start, end); err != nil {
		return nil, err
	}
	byDate, err := s.nightRows(ctx, villaID, start, end)
	if err != nil {
		return nil, err
	}

	nights := domain.Nights(start, end)
	q := &Quote{
		VillaID:   villaID,
		StartDate: domain.NormalizeDate(start),
		EndDate:   domain.NormalizeDate(end),
		Nights:    len(nights),
		Available: true,
	}

	var total float64
	priced := true
	for _, night := range nights {
		d, found := byDate[night]
		var row *domain.CalendarDay
		if found {
			row = &d
		}
		if q.Available && !domain.DayAvailable(row) {
			n := night
			q.Available = false
			q.FirstUnavailable = &n
		}
		if row == nil || row.Price == nil {
			priced = false
			continue
		}
		total += *row.Price
	}
	if priced {
		t := domain.RoundMoney(total)
		q.TotalPrice = &t
	}
	return q, nil
}

func (s *Service) firstUnavailable(ctx context.Context, villaID int64, start, end time.Time) (*time.Time, error) {
	if err := domain.ValidateStay(start, end); err != nil {
		return nil, err
	}
	byDate, err := s.nightRows(ctx, villaID, start, end)
	if err != nil {
		return nil, err
	}

	for _, night := range domain.Nights(start, end) {
		d, found := byDate[night]
		if found && !domain.DayAvailable(&d) {
			n := night
			return &n, nil
		}
	}
	return nil, nil
}

// nightRows loads the stored rows of the nights [start, end) keyed by date.
func (s *Service) nightRows(ctx context.Context, villaID int64, start, end time.Time) (map[time.Time]domain.CalendarDay, error) {
	lastNight := domain.NormalizeDate(end).AddDate(0, 0, -1)
	rows, err := s.calendar.QueryRange(ctx, villaID, domain.NormalizeDate(start), lastNight)
	if err != nil {
		return nil, err
	}
	byDate := make(map[time.Time]domain.CalendarDay, len(rows))
	for _, d := range rows {
		byDate[domain.NormalizeDate(d.Date)] = d
	}
	return byDate, nil
}
