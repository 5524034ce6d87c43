package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"villastay/internal/domain"
	"villastay/internal/pkg/keylock"
)

// VillaLocker serializes calendar range mutations per villa. Inside one process a
// keyed mutex is taken; on PostgreSQL the transaction also holds
// pg_advisory_xact_lock(villaID) so replicas serialize as well.
type VillaLocker struct {
	db    *gorm.DB
	local *keylock.Locker
}

func NewVillaLocker(db *gorm.DB) *VillaLocker {
	return &VillaLocker{db: db, local: keylock.New()}
}

// Lock takes only the in-process villa lock. Used by the per-day range mode,
// which runs outside a transaction.
func (l *VillaLocker) Lock(villaID int64) (unlock func()) {
	return l.local.Lock(villaID)
}

// InTx runs fn in a transaction while holding the villa lock. fn must use tx only.
func (l *VillaLocker) InTx(ctx context.Context, villaID int64, fn func(tx *gorm.DB) error) error {
	unlock := l.local.Lock(villaID)
	defer unlock()

	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", villaID).Error; err != nil {
				return fmt.Errorf("%w: villa lock: %w", domain.ErrStorage, err)
			}
		}
		return fn(tx)
	})
}
