package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"villastay/internal/domain"
	"villastay/internal/pkg/testdb"
	"villastay/internal/repository"
)

func day(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr[T any](v T) *T { return &v }

func TestCalendarRepository_GetAbsentReturnsNil(t *testing.T) {
	repo := repository.NewCalendarRepository(testdb.Open(t))

	d, err := repo.Get(context.Background(), 1, day("2025-06-01"))
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestCalendarRepository_UpsertCreatesThenMerges(t *testing.T) {
	repo := repository.NewCalendarRepository(testdb.Open(t))
	ctx := context.Background()

	created, err := repo.Upsert(ctx, 1, day("2025-06-01"), domain.DayPatch{Price: ptr(120.0)})
	require.NoError(t, err)
	assert.Equal(t, domain.CalendarAvailable, created.Status)
	require.NotNil(t, created.Price)
	assert.Equal(t, 120.0, *created.Price)

	merged, err := repo.Upsert(ctx, 1, day("2025-06-01"), domain.DayPatch{
		Status: ptr(domain.CalendarBlocked),
		Note:   ptr("maintenance"),
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, merged.ID)
	assert.Equal(t, domain.CalendarBlocked, merged.Status)
	assert.Equal(t, "maintenance", merged.Note)
	require.NotNil(t, merged.Price, "price not in patch must survive")
	assert.Equal(t, 120.0, *merged.Price)

	cleared, err := repo.Upsert(ctx, 1, day("2025-06-01"), domain.DayPatch{ClearPrice: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.Price)
}

func TestCalendarRepository_QueryRangeOrderedAndFiltered(t *testing.T) {
	repo := repository.NewCalendarRepository(testdb.Open(t))
	ctx := context.Background()

	for _, d := range []string{"2025-06-03", "2025-06-01", "2025-06-02", "2025-06-10"} {
		_, err := repo.Upsert(ctx, 1, day(d), domain.DayPatch{})
		require.NoError(t, err)
	}
	_, err := repo.Upsert(ctx, 1, day("2025-06-02"), domain.DayPatch{Status: ptr(domain.CalendarBlocked)})
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, 2, day("2025-06-02"), domain.DayPatch{})
	require.NoError(t, err)

	days, err := repo.QueryRange(ctx, 1, day("2025-06-01"), day("2025-06-05"))
	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, "2025-06-01", domain.FormatDate(days[0].Date))
	assert.Equal(t, "2025-06-03", domain.FormatDate(days[2].Date))

	blocked, err := repo.QueryRange(ctx, 1, day("2025-06-01"), day("2025-06-30"), domain.CalendarBlocked)
	require.NoError(t, err)
	require.Len(t, blocked, 1)
	assert.Equal(t, "2025-06-02", domain.FormatDate(blocked[0].Date))
}

func TestCalendarRepository_CreateDuplicateIsConflict(t *testing.T) {
	repo := repository.NewCalendarRepository(testdb.Open(t))
	ctx := context.Background()

	first := &domain.CalendarDay{VillaID: 1, Date: day("2025-06-01"), Status: domain.CalendarAvailable}
	require.NoError(t, repo.Create(ctx, first))
	assert.NotZero(t, first.ID)

	err := repo.Create(ctx, &domain.CalendarDay{VillaID: 1, Date: day("2025-06-01")})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCalendarRepository_ClaimNightIsConditional(t *testing.T) {
	repo := repository.NewCalendarRepository(testdb.Open(t))
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	ok, err := repo.ClaimNight(ctx, 1, day("2025-07-11"), &a)
	require.NoError(t, err)
	assert.True(t, ok, "absent night is claimable")

	ok, err = repo.ClaimNight(ctx, 1, day("2025-07-11"), &a)
	require.NoError(t, err)
	assert.True(t, ok, "own night can be claimed again")

	ok, err = repo.ClaimNight(ctx, 1, day("2025-07-11"), &b)
	require.NoError(t, err)
	assert.False(t, ok, "night held by another reservation is refused")

	d, err := repo.Get(ctx, 1, day("2025-07-11"))
	require.NoError(t, err)
	assert.Equal(t, domain.CalendarReserved, d.Status)
	require.NotNil(t, d.ReservationID)
	assert.Equal(t, a, *d.ReservationID)

	_, err = repo.Upsert(ctx, 1, day("2025-07-20"), domain.DayPatch{Status: ptr(domain.CalendarBlocked)})
	require.NoError(t, err)
	ok, err = repo.ClaimNight(ctx, 1, day("2025-07-20"), &b)
	require.NoError(t, err)
	assert.False(t, ok, "blocked night is refused")
}

func TestCalendarRepository_CheckoutKeepsNextCheckIn(t *testing.T) {
	repo := repository.NewCalendarRepository(testdb.Open(t))
	ctx := context.Background()
	next, prev := uuid.New(), uuid.New()

	ok, err := repo.MarkBoundary(ctx, 1, day("2025-07-13"), domain.EventCheckIn, &next)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.MarkBoundary(ctx, 1, day("2025-07-13"), domain.EventCheckOut, &prev)
	require.NoError(t, err)
	assert.False(t, ok)

	d, err := repo.Get(ctx, 1, day("2025-07-13"))
	require.NoError(t, err)
	require.NotNil(t, d.EventType)
	assert.Equal(t, domain.EventCheckIn, *d.EventType)
	assert.Equal(t, next, *d.ReservationID)
}

func TestCalendarRepository_ReleaseByReservation(t *testing.T) {
	repo := repository.NewCalendarRepository(testdb.Open(t))
	ctx := context.Background()
	mine, other := uuid.New(), uuid.New()

	_, err := repo.ClaimNight(ctx, 1, day("2025-07-11"), &mine)
	require.NoError(t, err)
	_, err = repo.ClaimNight(ctx, 1, day("2025-07-12"), &other)
	require.NoError(t, err)

	n, err := repo.Release(ctx, 1, day("2025-07-10"), day("2025-07-13"), &mine)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	freed, err := repo.Get(ctx, 1, day("2025-07-11"))
	require.NoError(t, err)
	assert.Equal(t, domain.CalendarAvailable, freed.Status)
	assert.Nil(t, freed.ReservationID)
	assert.Nil(t, freed.EventType)

	kept, err := repo.Get(ctx, 1, day("2025-07-12"))
	require.NoError(t, err)
	assert.Equal(t, domain.CalendarReserved, kept.Status)
}

func TestCalendarRepository_UpdateAndDelete(t *testing.T) {
	repo := repository.NewCalendarRepository(testdb.Open(t))
	ctx := context.Background()

	d := &domain.CalendarDay{VillaID: 1, Date: day("2025-06-01")}
	require.NoError(t, repo.Create(ctx, d))
	require.NoError(t, repo.Create(ctx, &domain.CalendarDay{VillaID: 1, Date: day("2025-06-02")}))

	updated, err := repo.Update(ctx, d.ID, domain.DayPatch{Price: ptr(99.5)}, nil)
	require.NoError(t, err)
	assert.Equal(t, 99.5, *updated.Price)

	moved := day("2025-06-02")
	_, err = repo.Update(ctx, d.ID, domain.DayPatch{}, &moved)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = repo.Update(ctx, 9999, domain.DayPatch{Price: ptr(1.0)}, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, d.ID))
	assert.ErrorIs(t, repo.Delete(ctx, d.ID), domain.ErrNotFound)
}
