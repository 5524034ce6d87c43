package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"villastay/internal/domain"
)

// ErrBookingRefTaken is returned by Create when the booking reference already exists.
var ErrBookingRefTaken = fmt.Errorf("%w: booking reference already taken", domain.ErrConflict)

type ReservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) WithTx(tx *gorm.DB) *ReservationRepository {
	return &ReservationRepository{db: tx}
}

type reservationModel struct {
	ID                 uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	BookingRef         string     `gorm:"column:booking_ref;type:varchar(16);not null;uniqueIndex:idx_reservations_booking_ref"`
	VillaID            int64      `gorm:"column:villa_id;not null;index"`
	CurrencyID         string     `gorm:"column:currency_id;type:varchar(32)"`
	StartDate          time.Time  `gorm:"column:start_date;type:date;not null"`
	EndDate            time.Time  `gorm:"column:end_date;type:date;not null"`
	GuestCount         int        `gorm:"column:guest_count;not null"`
	TotalAmount        float64    `gorm:"column:total_amount;not null"`
	AdvanceAmount      float64    `gorm:"column:advance_amount;not null"`
	RemainingAmount    float64    `gorm:"column:remaining_amount;not null"`
	PaymentType        string     `gorm:"column:payment_type;type:varchar(16);not null"`
	PaymentMethod      string     `gorm:"column:payment_method;type:varchar(32)"`
	PaymentDueDate     time.Time  `gorm:"column:payment_due_date"`
	Status             string     `gorm:"column:status;type:varchar(16);not null;index"`
	CancellationReason *string    `gorm:"column:cancellation_reason;type:text"`
	CancelledAt        *time.Time `gorm:"column:cancelled_at"`
	CustomerName       string     `gorm:"column:customer_name;not null"`
	CustomerEmail      string     `gorm:"column:customer_email;not null;index"`
	CustomerPhone      string     `gorm:"column:customer_phone;not null"`
	SpecialRequests    *string    `gorm:"column:special_requests;type:text"`
	CreatedAt          time.Time  `gorm:"column:created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at"`
}

func (reservationModel) TableName() string { return "reservations" }

func toDomainReservation(m reservationModel) *domain.Reservation {
	var reason, requests string
	if m.CancellationReason != nil {
		reason = *m.CancellationReason
	}
	if m.SpecialRequests != nil {
		requests = *m.SpecialRequests
	}

	return &domain.Reservation{
		ID:                 m.ID,
		BookingRef:         m.BookingRef,
		VillaID:            m.VillaID,
		CurrencyID:         m.CurrencyID,
		StartDate:          domain.NormalizeDate(m.StartDate),
		EndDate:            domain.NormalizeDate(m.EndDate),
		GuestCount:         m.GuestCount,
		TotalAmount:        m.TotalAmount,
		AdvanceAmount:      m.AdvanceAmount,
		RemainingAmount:    m.RemainingAmount,
		PaymentType:        domain.PaymentType(m.PaymentType),
		PaymentMethod:      m.PaymentMethod,
		PaymentDueDate:     m.PaymentDueDate,
		Status:             domain.ReservationStatus(m.Status),
		CancellationReason: reason,
		CancelledAt:        m.CancelledAt,
		CustomerName:       m.CustomerName,
		CustomerEmail:      m.CustomerEmail,
		CustomerPhone:      m.CustomerPhone,
		SpecialRequests:    requests,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func toReservationModel(r *domain.Reservation) reservationModel {
	var reason, requests *string
	if r.CancellationReason != "" {
		v := r.CancellationReason
		reason = &v
	}
	if r.SpecialRequests != "" {
		v := r.SpecialRequests
		requests = &v
	}

	return reservationModel{
		ID:                 r.ID,
		BookingRef:         r.BookingRef,
		VillaID:            r.VillaID,
		CurrencyID:         r.CurrencyID,
		StartDate:          domain.NormalizeDate(r.StartDate),
		EndDate:            domain.NormalizeDate(r.EndDate),
		GuestCount:         r.GuestCount,
		TotalAmount:        r.TotalAmount,
		AdvanceAmount:      r.AdvanceAmount,
		RemainingAmount:    r.RemainingAmount,
		PaymentType:        string(r.PaymentType),
		PaymentMethod:      r.PaymentMethod,
		PaymentDueDate:     r.PaymentDueDate,
		Status:             string(r.Status),
		CancellationReason: reason,
		CancelledAt:        r.CancelledAt,
		CustomerName:       r.CustomerName,
		CustomerEmail:      r.CustomerEmail,
		CustomerPhone:      r.CustomerPhone,
		SpecialRequests:    requests,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

// Create inserts the reservation. A duplicate booking reference yields ErrBookingRefTaken.
func (r *ReservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	m := toReservationModel(res)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w (%s)", ErrBookingRefTaken, res.BookingRef)
		}
		return wrapErr("reservation create", err)
	}
	*res = *toDomainReservation(m)
	return nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	return r.first(ctx, r.db.WithContext(ctx).Where("id = ?", id))
}

// GetByIDForUpdate locks the row for the rest of the transaction (no-op on SQLite).
func (r *ReservationRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	return r.first(ctx, r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

func (r *ReservationRepository) GetByBookingRef(ctx context.Context, ref string) (*domain.Reservation, error) {
	ref = strings.ToUpper(strings.TrimSpace(ref))
	return r.first(ctx, r.db.WithContext(ctx).Where("booking_ref = ?", ref))
}

func (r *ReservationRepository) first(_ context.Context, q *gorm.DB) (*domain.Reservation, error) {
	var m reservationModel
	if err := q.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, wrapErr("reservation get", err)
	}
	return toDomainReservation(m), nil
}

// UpdateStatus sets the status; cancelledAt and reason are written when given.
func (r *ReservationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ReservationStatus, reason string, cancelledAt *time.Time) error {
	updates := map[string]interface{}{
		"status":     string(status),
		"updated_at": time.Now().UTC(),
	}
	if cancelledAt != nil {
		updates["cancelled_at"] = *cancelledAt
	}
	if reason != "" {
		updates["cancellation_reason"] = reason
	}

	tx := r.db.WithContext(ctx).Model(&reservationModel{}).Where("id = ?", id).Updates(updates)
	if tx.Error != nil {
		return wrapErr("reservation update status", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
