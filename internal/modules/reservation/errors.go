package reservation

import (
	"fmt"

	"villastay/internal/domain"
)

var (
	ErrNotAvailable = fmt.Errorf("%w: villa is not available for the selected dates", domain.ErrConflict)
	ErrRefExhausted = fmt.Errorf("%w: could not allocate a unique booking reference", domain.ErrStorage)
)
