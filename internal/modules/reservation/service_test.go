package reservation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"villastay/internal/database"
	"villastay/internal/domain"
	"villastay/internal/modules/calendar"
	"villastay/internal/pkg/testdb"
	"villastay/internal/repository"
)

var fixedNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

// stubRefs replays refs in order and then repeats the last one.
type stubRefs struct {
	mu   sync.Mutex
	refs []string
	n    int
}

func (s *stubRefs) Next() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.n
	if i >= len(s.refs) {
		i = len(s.refs) - 1
	}
	s.n++
	return s.refs[i], nil
}

type fixture struct {
	db   *gorm.DB
	svc  *Service
	cal  *repository.CalendarRepository
	repo *repository.ReservationRepository
}

func setup(t *testing.T, refs RefSource) *fixture {
	t.Helper()
	db := testdb.Open(t)
	testdb.SeedVilla(t, db, 1)
	testdb.SeedVilla(t, db, 2)
	require.NoError(t, repository.NewVillaRepository(db).Save(context.Background(), &domain.Villa{ID: 3, Name: "Closed"}))

	cal := repository.NewCalendarRepository(db)
	repo := repository.NewReservationRepository(db)
	locker := database.NewVillaLocker(db)
	if refs == nil {
		refs = NewRefGenerator()
	}

	svc := NewService(locker, repo, cal, repository.NewVillaRepository(db),
		calendar.NewRangeService(cal, locker), refs, Config{MaxRefAttempts: 3, SplitPaymentDueIn: 48 * time.Hour, MaxStayNights: 30})
	svc.now = func() time.Time { return fixedNow }
	return &fixture{db: db, svc: svc, cal: cal, repo: repo}
}

func day(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func form(villaID int64, start, end string) CreateInput {
	return CreateInput{
		VillaID:         villaID,
		CurrencyID:      "USD",
		StartDate:       day(start),
		EndDate:         day(end),
		GuestCount:      2,
		TotalAmount:     0,
		PaymentType:     domain.PaymentFull,
		PaymentMethod:   "card",
		CustomerName:    "Ana Silva",
		CustomerEmail:   "ana@example.com",
		CustomerPhone:   "+351000000",
		SpecialRequests: "late arrival",
	}
}

func (f *fixture) price(t *testing.T, villaID int64, amount float64, dates ...string) {
	t.Helper()
	for _, d := range dates {
		p := amount
		_, err := f.cal.Upsert(context.Background(), villaID, day(d), domain.DayPatch{Price: &p})
		require.NoError(t, err)
	}
}

func (f *fixture) dayAt(t *testing.T, villaID int64, date string) *domain.CalendarDay {
	t.Helper()
	d, err := f.cal.Get(context.Background(), villaID, day(date))
	require.NoError(t, err)
	return d
}

func TestService_CreateMarksCalendar(t *testing.T) {
	f := setup(t, nil)

	res, err := f.svc.Create(context.Background(), form(1, "2025-07-10", "2025-07-13"))
	require.NoError(t, err)
	assert.Regexp(t, refPattern, res.BookingRef)
	assert.Equal(t, domain.ReservationPending, res.Status)
	assert.Equal(t, fixedNow, res.PaymentDueDate.UTC())

	in := f.dayAt(t, 1, "2025-07-10")
	require.NotNil(t, in)
	assert.Equal(t, domain.CalendarAvailable, in.Status)
	assert.Equal(t, domain.EventCheckIn, *in.EventType)
	assert.Equal(t, res.ID, *in.ReservationID)

	for _, night := range []string{"2025-07-11", "2025-07-12"} {
		d := f.dayAt(t, 1, night)
		require.NotNil(t, d, night)
		assert.Equal(t, domain.CalendarReserved, d.Status, night)
	}

	out := f.dayAt(t, 1, "2025-07-13")
	require.NotNil(t, out)
	assert.Equal(t, domain.CalendarAvailable, out.Status)
	assert.Equal(t, domain.EventCheckOut, *out.EventType)

	stored, err := f.repo.GetByBookingRef(context.Background(), res.BookingRef)
	require.NoError(t, err)
	assert.Equal(t, res.ID, stored.ID)
	assert.Equal(t, "late arrival", stored.SpecialRequests)
}

func TestService_CreateSplitPaymentDueDate(t *testing.T) {
	f := setup(t, nil)
	in := form(1, "2025-07-10", "2025-07-12")
	in.PaymentType = domain.PaymentSplit
	in.TotalAmount, in.AdvanceAmount, in.RemainingAmount = 300, 90, 210

	res, err := f.svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, fixedNow.Add(48*time.Hour), res.PaymentDueDate.UTC())
}

func TestService_CreateRejectsOverlap(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, form(1, "2025-07-10", "2025-07-13"))
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, form(1, "2025-07-12", "2025-07-15"))
	assert.ErrorIs(t, err, ErrNotAvailable)

	_, err = f.svc.Create(ctx, form(1, "2025-07-13", "2025-07-15"))
	assert.NoError(t, err, "checkout day of one stay is the check-in day of the next")

	_, err = f.svc.Create(ctx, form(2, "2025-07-10", "2025-07-13"))
	assert.NoError(t, err, "other villa is unaffected")
}

func TestService_CreateConcurrentOverlap(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	var (
		g         errgroup.Group
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for _, in := range []CreateInput{form(1, "2025-07-10", "2025-07-13"), form(1, "2025-07-12", "2025-07-15")} {
		in := in
		g.Go(func() error {
			_, err := f.svc.Create(ctx, in)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrConflict):
				conflicts++
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, conflicts)

	var count int64
	require.NoError(t, f.db.Table("reservations").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestService_CreateChecksPrice(t *testing.T) {
	f := setup(t, nil)
	f.price(t, 1, 100, "2025-07-10", "2025-07-11", "2025-07-12")
	ctx := context.Background()

	in := form(1, "2025-07-10", "2025-07-13")
	in.TotalAmount, in.AdvanceAmount = 250, 250
	_, err := f.svc.Create(ctx, in)
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "totalAmount", vErr.Field)
	assert.Nil(t, f.dayAt(t, 1, "2025-07-13"), "nothing written on rejection")

	in.TotalAmount, in.AdvanceAmount = 300, 300
	_, err = f.svc.Create(ctx, in)
	assert.NoError(t, err)
}

func TestService_CreateUnpricedKeepsClientTotal(t *testing.T) {
	f := setup(t, nil)
	f.price(t, 1, 100, "2025-07-10")

	in := form(1, "2025-07-10", "2025-07-12")
	in.TotalAmount, in.RemainingAmount = 999, 999
	res, err := f.svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 999.0, res.TotalAmount)
}

func TestService_CreateValidation(t *testing.T) {
	f := setup(t, nil)

	cases := map[string]func(in *CreateInput){
		"start after end":  func(in *CreateInput) { in.EndDate = in.StartDate },
		"no guests":        func(in *CreateInput) { in.GuestCount = 0 },
		"blank name":       func(in *CreateInput) { in.CustomerName = "  " },
		"unknown payment":  func(in *CreateInput) { in.PaymentType = "CRYPTO" },
		"unbalanced":       func(in *CreateInput) { in.TotalAmount, in.AdvanceAmount, in.RemainingAmount = 100, 50, 40 },
		"negative amounts": func(in *CreateInput) { in.AdvanceAmount, in.RemainingAmount = -10, 10 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := form(1, "2025-07-10", "2025-07-13")
			mutate(&in)
			_, err := f.svc.Create(context.Background(), in)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestService_CreateUnknownVilla(t *testing.T) {
	f := setup(t, nil)

	_, err := f.svc.Create(context.Background(), form(77, "2025-07-10", "2025-07-13"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_CreateInactiveVilla(t *testing.T) {
	f := setup(t, nil)

	_, err := f.svc.Create(context.Background(), form(3, "2025-07-10", "2025-07-13"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, f.dayAt(t, 3, "2025-07-10"))
}

func TestService_CreateStayLength(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, form(1, "2025-07-01", "2025-08-01"))
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "endDate", vErr.Field)
	assert.Nil(t, f.dayAt(t, 1, "2025-07-01"))

	_, err = f.svc.Create(ctx, form(1, "2025-07-01", "2025-07-31"))
	assert.NoError(t, err, "30 nights is the configured limit")
}

func TestService_CreateRetriesTakenRef(t *testing.T) {
	refs := &stubRefs{refs: []string{"VL-AAAA0001", "VL-AAAA0001", "VL-BBBB0002"}}
	f := setup(t, refs)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, form(1, "2025-07-10", "2025-07-13"))
	require.NoError(t, err)
	assert.Equal(t, "VL-AAAA0001", first.BookingRef)

	second, err := f.svc.Create(ctx, form(1, "2025-08-10", "2025-08-13"))
	require.NoError(t, err)
	assert.Equal(t, "VL-BBBB0002", second.BookingRef)
	assert.NotNil(t, f.dayAt(t, 1, "2025-08-10"))
}

func TestService_CreateRefAttemptsExhausted(t *testing.T) {
	refs := &stubRefs{refs: []string{"VL-AAAA0001"}}
	f := setup(t, refs)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, form(1, "2025-07-10", "2025-07-13"))
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, form(1, "2025-08-10", "2025-08-13"))
	assert.ErrorIs(t, err, ErrRefExhausted)
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.Equal(t, 4, refs.n, "one ref for the first booking plus three attempts")
	assert.Nil(t, f.dayAt(t, 1, "2025-08-10"))
}

func TestService_CancelReleasesDays(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	res, err := f.svc.Create(ctx, form(1, "2025-07-10", "2025-07-13"))
	require.NoError(t, err)

	cancelled, err := f.svc.UpdateStatus(ctx, res.ID, domain.ReservationCancelled, " guest request ")
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationCancelled, cancelled.Status)
	assert.Equal(t, "guest request", cancelled.CancellationReason)
	require.NotNil(t, cancelled.CancelledAt)

	for _, date := range []string{"2025-07-10", "2025-07-11", "2025-07-12", "2025-07-13"} {
		d := f.dayAt(t, 1, date)
		require.NotNil(t, d, date)
		assert.Equal(t, domain.CalendarAvailable, d.Status, date)
		assert.Nil(t, d.ReservationID, date)
		assert.Nil(t, d.EventType, date)
	}

	_, err = f.svc.Create(ctx, form(1, "2025-07-11", "2025-07-14"))
	assert.NoError(t, err, "freed nights can be booked again")
}

func TestService_RevivingCancelledReservationClaimsDays(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	res, err := f.svc.Create(ctx, form(1, "2025-07-10", "2025-07-13"))
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, res.ID, domain.ReservationCancelled, "")
	require.NoError(t, err)

	revived, err := f.svc.UpdateStatus(ctx, res.ID, domain.ReservationConfirmed, "")
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationConfirmed, revived.Status)

	for _, night := range []string{"2025-07-11", "2025-07-12"} {
		d := f.dayAt(t, 1, night)
		require.NotNil(t, d, night)
		assert.Equal(t, domain.CalendarReserved, d.Status, night)
		assert.Equal(t, res.ID, *d.ReservationID, night)
	}

	_, err = f.svc.Create(ctx, form(1, "2025-07-11", "2025-07-14"))
	assert.ErrorIs(t, err, ErrNotAvailable)
}

func TestService_RevivingCancelledReservationRefusedWhenRebooked(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	res, err := f.svc.Create(ctx, form(1, "2025-07-10", "2025-07-13"))
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, res.ID, domain.ReservationCancelled, "")
	require.NoError(t, err)

	other, err := f.svc.Create(ctx, form(1, "2025-07-11", "2025-07-14"))
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, res.ID, domain.ReservationPending, "")
	var nightErr *domain.NightConflictError
	require.ErrorAs(t, err, &nightErr)

	stored, err := f.svc.GetByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationCancelled, stored.Status, "status change rolled back")

	d := f.dayAt(t, 1, "2025-07-12")
	require.NotNil(t, d)
	assert.Equal(t, other.ID, *d.ReservationID)
}

func TestTransitionAllowed(t *testing.T) {
	assert.True(t, transitionAllowed(domain.ReservationPending, domain.ReservationConfirmed))
	assert.True(t, transitionAllowed(domain.ReservationConfirmed, domain.ReservationCompleted))
	assert.False(t, transitionAllowed(domain.ReservationConfirmed, domain.ReservationPending))
	assert.False(t, transitionAllowed(domain.ReservationCancelled, domain.ReservationConfirmed))
	assert.False(t, transitionAllowed(domain.ReservationCompleted, domain.ReservationCancelled))
	assert.False(t, transitionAllowed(domain.ReservationPending, domain.ReservationPending))
}

func TestService_UpdateStatusUnusualMoveIsApplied(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	res, err := f.svc.Create(ctx, form(1, "2025-07-10", "2025-07-13"))
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, res.ID, domain.ReservationCompleted, "")
	require.NoError(t, err)

	back, err := f.svc.UpdateStatus(ctx, res.ID, domain.ReservationPending, "")
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationPending, back.Status)
}

func TestService_UpdateStatusMissing(t *testing.T) {
	f := setup(t, nil)

	_, err := f.svc.UpdateStatus(context.Background(), uuid.New(), domain.ReservationConfirmed, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_VerifyByBookingRef(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	res, err := f.svc.Create(ctx, form(1, "2025-07-10", "2025-07-13"))
	require.NoError(t, err)

	found, err := f.svc.VerifyByBookingRef(ctx, " "+res.BookingRef+" ", " ANA@example.com ")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, res.ID, found.ID)

	found, err = f.svc.VerifyByBookingRef(ctx, res.BookingRef, "someone@example.com")
	require.NoError(t, err)
	assert.Nil(t, found)

	found, err = f.svc.VerifyByBookingRef(ctx, "VL-00000000", "ana@example.com")
	require.NoError(t, err)
	assert.Nil(t, found)
}
