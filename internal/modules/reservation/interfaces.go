package reservation

import (
	"context"

	"villastay/internal/domain"
)

// VillaLookup resolves villas that accept bookings.
type VillaLookup interface {
	GetBookable(ctx context.Context, id int64) (*domain.Villa, error)
}
