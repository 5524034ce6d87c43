package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"villastay/internal/database"
	"villastay/internal/domain"
	"villastay/internal/modules/availability"
	"villastay/internal/modules/calendar"
	"villastay/internal/repository"
)

const (
	DefaultMaxRefAttempts    = 5
	DefaultSplitPaymentDueIn = 48 * time.Hour

	// client totals within a cent of the nightly sum are accepted
	priceTolerance = 0.01
)

type Config struct {
	MaxRefAttempts    int
	SplitPaymentDueIn time.Duration
	// MaxStayNights limits guest bookings; 0 means domain.MaxStayNights.
	MaxStayNights int
}

// CreateInput is a validated booking form.
type CreateInput struct {
	VillaID         int64
	CurrencyID      string
	StartDate       time.Time
	EndDate         time.Time
	GuestCount      int
	TotalAmount     float64
	AdvanceAmount   float64
	RemainingAmount float64
	PaymentType     domain.PaymentType
	PaymentMethod   string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	SpecialRequests string
}

type Service struct {
	locker       *database.VillaLocker
	reservations *repository.ReservationRepository
	calendar     *repository.CalendarRepository
	villas       VillaLookup
	ranges       *calendar.RangeService
	refs         RefSource
	cfg          Config
	now          func() time.Time
}

func NewService(
	locker *database.VillaLocker,
	reservations *repository.ReservationRepository,
	cal *repository.CalendarRepository,
	villas VillaLookup,
	ranges *calendar.RangeService,
	refs RefSource,
	cfg Config,
) *Service {
	if cfg.MaxRefAttempts <= 0 {
		cfg.MaxRefAttempts = DefaultMaxRefAttempts
	}
	if cfg.SplitPaymentDueIn <= 0 {
		cfg.SplitPaymentDueIn = DefaultSplitPaymentDueIn
	}
	return &Service{
		locker:       locker,
		reservations: reservations,
		calendar:     cal,
		villas:       villas,
		ranges:       ranges,
		refs:         refs,
		cfg:          cfg,
		now:          time.Now,
	}
}

// Create books a stay. Availability check, pricing, the insert and the calendar
// update run in one transaction under the villa lock; any failure leaves
// neither a reservation nor changed days behind.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Reservation, error) {
	if err := validateInput(&in, s.cfg.MaxStayNights); err != nil {
		return nil, err
	}
	if _, err := s.villas.GetBookable(ctx, in.VillaID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	res := &domain.Reservation{
		ID:              uuid.New(),
		VillaID:         in.VillaID,
		CurrencyID:      in.CurrencyID,
		StartDate:       domain.NormalizeDate(in.StartDate),
		EndDate:         domain.NormalizeDate(in.EndDate),
		GuestCount:      in.GuestCount,
		TotalAmount:     domain.RoundMoney(in.TotalAmount),
		AdvanceAmount:   domain.RoundMoney(in.AdvanceAmount),
		RemainingAmount: domain.RoundMoney(in.RemainingAmount),
		PaymentType:     in.PaymentType,
		PaymentMethod:   in.PaymentMethod,
		PaymentDueDate:  now,
		Status:          domain.ReservationPending,
		CustomerName:    in.CustomerName,
		CustomerEmail:   in.CustomerEmail,
		CustomerPhone:   in.CustomerPhone,
		SpecialRequests: in.SpecialRequests,
	}
	if res.PaymentType == domain.PaymentSplit {
		res.PaymentDueDate = now.Add(s.cfg.SplitPaymentDueIn)
	}

	err := s.locker.InTx(ctx, in.VillaID, func(tx *gorm.DB) error {
		avail := availability.NewService(s.calendar.WithTx(tx))

		free, err := avail.AreAllNightsAvailable(ctx, res.VillaID, res.StartDate, res.EndDate)
		if err != nil {
			return err
		}
		if !free {
			return ErrNotAvailable
		}

		price, priced, err := avail.PriceForRange(ctx, res.VillaID, res.StartDate, res.EndDate)
		if err != nil {
			return err
		}
		if priced && domain.RoundMoney(math.Abs(res.TotalAmount-price)) > priceTolerance {
			return domain.NewValidationError("totalAmount", fmt.Sprintf("does not match the price of the stay (%.2f)", price))
		}

		if err := s.insertWithRef(ctx, tx, res); err != nil {
			return err
		}

		_, err = s.ranges.MarkStayTx(ctx, tx, res.VillaID, res.StartDate, res.EndDate, &res.ID)
		return err
	})
	if err != nil {
		slog.Warn("reservation_event",
			"event", "create_failed",
			"villa_id", in.VillaID,
			"start_date", domain.FormatDate(in.StartDate),
			"end_date", domain.FormatDate(in.EndDate),
			"error", err.Error(),
		)
		return nil, err
	}

	slog.Info("reservation_event",
		"event", "created",
		"reservation_id", res.ID.String(),
		"booking_ref", res.BookingRef,
		"villa_id", res.VillaID,
		"start_date", domain.FormatDate(res.StartDate),
		"end_date", domain.FormatDate(res.EndDate),
	)
	return res, nil
}

// insertWithRef inserts res under a fresh booking reference, retrying inside a
// savepoint when the reference is already taken.
func (s *Service) insertWithRef(ctx context.Context, tx *gorm.DB, res *domain.Reservation) error {
	for attempt := 1; attempt <= s.cfg.MaxRefAttempts; attempt++ {
		ref, err := s.refs.Next()
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrStorage, err)
		}
		res.BookingRef = ref

		err = tx.Transaction(func(sp *gorm.DB) error {
			return s.reservations.WithTx(sp).Create(ctx, res)
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrBookingRefTaken) {
			return err
		}
		slog.Warn("reservation_event", "event", "booking_ref_collision", "booking_ref", ref, "attempt", attempt)
	}
	return fmt.Errorf("%w after %d attempts", ErrRefExhausted, s.cfg.MaxRefAttempts)
}

// UpdateStatus moves a reservation to status. Moves outside the usual lifecycle
// are logged but still applied. Cancelling frees the stay's calendar days in the
// same transaction; reviving a cancelled reservation claims them again and
// fails with a *domain.NightConflictError when they were booked meanwhile.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ReservationStatus, reason string) (*domain.Reservation, error) {
	current, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var updated *domain.Reservation
	err = s.locker.InTx(ctx, current.VillaID, func(tx *gorm.DB) error {
		repo := s.reservations.WithTx(tx)
		r, err := repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !transitionAllowed(r.Status, status) {
			slog.Warn("reservation_event",
				"event", "unusual_transition",
				"reservation_id", id.String(),
				"from", string(r.Status),
				"to", string(status),
			)
		}

		var cancelledAt *time.Time
		if status == domain.ReservationCancelled {
			t := s.now().UTC()
			cancelledAt = &t
		}
		if err := repo.UpdateStatus(ctx, id, status, strings.TrimSpace(reason), cancelledAt); err != nil {
			return err
		}
		switch {
		case status == domain.ReservationCancelled && r.Status != domain.ReservationCancelled:
			if _, err := s.ranges.UnmarkStayTx(ctx, tx, r.VillaID, r.StartDate, r.EndDate, &r.ID); err != nil {
				return err
			}
		case r.Status == domain.ReservationCancelled && status.HoldsDates():
			// the days were released on cancel; take them back or refuse
			if _, err := s.ranges.MarkStayTx(ctx, tx, r.VillaID, r.StartDate, r.EndDate, &r.ID); err != nil {
				return err
			}
		}

		updated, err = repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("reservation_event",
		"event", "status_changed",
		"reservation_id", id.String(),
		"from", string(current.Status),
		"to", string(status),
	)
	return updated, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	return s.reservations.GetByID(ctx, id)
}

// VerifyByBookingRef returns the reservation when both the reference and the
// customer email match, and nil otherwise.
func (s *Service) VerifyByBookingRef(ctx context.Context, ref, email string) (*domain.Reservation, error) {
	ref, email = strings.TrimSpace(ref), strings.TrimSpace(email)
	if ref == "" || email == "" {
		return nil, nil
	}

	r, err := s.reservations.GetByBookingRef(ctx, ref)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(strings.TrimSpace(r.CustomerEmail), email) {
		return nil, nil
	}
	return r, nil
}

func validateInput(in *CreateInput, maxNights int) error {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerEmail = strings.TrimSpace(in.CustomerEmail)
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)

	switch {
	case in.VillaID <= 0:
		return domain.NewValidationError("villaId", "must be a positive integer")
	case in.GuestCount < 1:
		return domain.NewValidationError("guestCount", "must be at least 1")
	case in.CustomerName == "":
		return domain.NewValidationError("customerName", "is required")
	case in.CustomerEmail == "":
		return domain.NewValidationError("customerEmail", "is required")
	case in.CustomerPhone == "":
		return domain.NewValidationError("customerPhone", "is required")
	case in.PaymentType != domain.PaymentFull && in.PaymentType != domain.PaymentSplit:
		return domain.NewValidationError("paymentType", "must be FULL_PAYMENT or SPLIT_PAYMENT")
	case in.TotalAmount < 0 || in.AdvanceAmount < 0 || in.RemainingAmount < 0:
		return domain.NewValidationError("totalAmount", "amounts must not be negative")
	}
	if err := domain.ValidateStayWithin(in.StartDate, in.EndDate, maxNights); err != nil {
		return err
	}

	r := domain.Reservation{TotalAmount: in.TotalAmount, AdvanceAmount: in.AdvanceAmount, RemainingAmount: in.RemainingAmount}
	if !r.AmountsBalanced() {
		return domain.NewValidationError("totalAmount", "must equal advanceAmount + remainingAmount")
	}
	return nil
}

func transitionAllowed(from, to domain.ReservationStatus) bool {
	switch {
	case from.Terminal():
		return false
	case from == domain.ReservationConfirmed:
		return to.Terminal()
	}
	return to != domain.ReservationPending
}
