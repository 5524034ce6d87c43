package calendar

import (
	"context"
	"time"

	"villastay/internal/domain"
)

// CalendarStore is the part of the calendar repository the admin endpoints use.
type CalendarStore interface {
	QueryRange(ctx context.Context, villaID int64, start, end time.Time, statuses ...domain.CalendarStatus) ([]domain.CalendarDay, error)
	GetByID(ctx context.Context, id int64) (*domain.CalendarDay, error)
	Create(ctx context.Context, d *domain.CalendarDay) error
	Update(ctx context.Context, id int64, patch domain.DayPatch, newDate *time.Time) (*domain.CalendarDay, error)
	Delete(ctx context.Context, id int64) error
}

type VillaChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}
