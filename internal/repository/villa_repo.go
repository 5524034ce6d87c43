package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"villastay/internal/domain"
)

type VillaRepository struct {
	db *gorm.DB
}

func NewVillaRepository(db *gorm.DB) *VillaRepository {
	return &VillaRepository{db: db}
}

type villaModel struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	IsActive  bool      `gorm:"column:is_active;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (villaModel) TableName() string { return "villas" }

// Exists reports whether the villa is known, active or not. Admin calendar
// routes use it.
func (r *VillaRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var cnt int64
	tx := r.db.WithContext(ctx).Model(&villaModel{}).Where("id = ?", id).Count(&cnt)
	if tx.Error != nil {
		return false, wrapErr("villa exists", tx.Error)
	}
	return cnt > 0, nil
}

func (r *VillaRepository) GetByID(ctx context.Context, id int64) (*domain.Villa, error) {
	var rows []villaModel
	tx := r.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&rows)
	if tx.Error != nil {
		return nil, wrapErr("villa get", tx.Error)
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return &domain.Villa{ID: rows[0].ID, Name: rows[0].Name, IsActive: rows[0].IsActive}, nil
}

// GetBookable returns the villa only while it is active. Inactive villas are
// reported as not found on guest-facing routes.
func (r *VillaRepository) GetBookable(ctx context.Context, id int64) (*domain.Villa, error) {
	v, err := r.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && !v.IsActive) {
		return nil, fmt.Errorf("%w: villa %d", domain.ErrNotFound, id)
	}
	return v, err
}

// Save inserts or renames a villa by id. Villa management lives elsewhere; this
// is used by the seeder and tests.
func (r *VillaRepository) Save(ctx context.Context, v *domain.Villa) error {
	m := villaModel{ID: v.ID, Name: v.Name, IsActive: v.IsActive}
	tx := r.db.WithContext(ctx).Save(&m)
	if tx.Error != nil {
		return wrapErr("villa save", tx.Error)
	}
	v.ID = m.ID
	return nil
}
