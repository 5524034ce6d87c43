package availability

import (
	"context"
	"time"

	"villastay/internal/domain"
)

// CalendarReader is the read side of the calendar store.
type CalendarReader interface {
	Get(ctx context.Context, villaID int64, date time.Time) (*domain.CalendarDay, error)
	QueryRange(ctx context.Context, villaID int64, start, end time.Time, statuses ...domain.CalendarStatus) ([]domain.CalendarDay, error)
}

// VillaLookup resolves villas that accept bookings.
type VillaLookup interface {
	GetBookable(ctx context.Context, id int64) (*domain.Villa, error)
}
