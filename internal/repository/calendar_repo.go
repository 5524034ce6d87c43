package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"villastay/internal/domain"
)

type CalendarRepository struct {
	db *gorm.DB
}

func NewCalendarRepository(db *gorm.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *CalendarRepository) WithTx(tx *gorm.DB) *CalendarRepository {
	return &CalendarRepository{db: tx}
}

type calendarDayModel struct {
	ID            int64      `gorm:"column:id;primaryKey"`
	VillaID       int64      `gorm:"column:villa_id;not null;uniqueIndex:idx_calendar_villa_date,priority:1"`
	Date          time.Time  `gorm:"column:date;type:date;not null;uniqueIndex:idx_calendar_villa_date,priority:2"`
	Status        string     `gorm:"column:status;type:varchar(16);not null;index"`
	Price         *float64   `gorm:"column:price"`
	Note          string     `gorm:"column:note;type:text;not null"`
	EventType     *string    `gorm:"column:event_type;type:varchar(16)"`
	ReservationID *uuid.UUID `gorm:"column:reservation_id;type:uuid;index"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

func (calendarDayModel) TableName() string { return "calendar_days" }

func toDomainCalendarDay(m calendarDayModel) domain.CalendarDay {
	d := domain.CalendarDay{
		ID:            m.ID,
		VillaID:       m.VillaID,
		Date:          domain.NormalizeDate(m.Date),
		Status:        domain.CalendarStatus(m.Status),
		Price:         m.Price,
		Note:          m.Note,
		ReservationID: m.ReservationID,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	if m.EventType != nil {
		e := domain.EventType(*m.EventType)
		d.EventType = &e
	}
	return d
}

func toCalendarDayModel(d *domain.CalendarDay) calendarDayModel {
	m := calendarDayModel{
		ID:            d.ID,
		VillaID:       d.VillaID,
		Date:          domain.NormalizeDate(d.Date),
		Status:        string(d.Status),
		Price:         d.Price,
		Note:          d.Note,
		ReservationID: d.ReservationID,
	}
	if m.Status == "" {
		m.Status = string(domain.CalendarAvailable)
	}
	if d.EventType != nil {
		e := string(*d.EventType)
		m.EventType = &e
	}
	return m
}

// Get returns nil, nil when the villa has no row for date.
func (r *CalendarRepository) Get(ctx context.Context, villaID int64, date time.Time) (*domain.CalendarDay, error) {
	var rows []calendarDayModel
	tx := r.db.WithContext(ctx).
		Where(`villa_id = ? AND "date" = ?`, villaID, domain.NormalizeDate(date)).
		Limit(1).
		Find(&rows)
	if tx.Error != nil {
		return nil, wrapErr("calendar get", tx.Error)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	d := toDomainCalendarDay(rows[0])
	return &d, nil
}

// QueryRange lists rows with start <= date <= end, ascending by date.
func (r *CalendarRepository) QueryRange(ctx context.Context, villaID int64, start, end time.Time, statuses ...domain.CalendarStatus) ([]domain.CalendarDay, error) {
	q := r.db.WithContext(ctx).
		Where(`villa_id = ? AND "date" >= ? AND "date" <= ?`, villaID, domain.NormalizeDate(start), domain.NormalizeDate(end))
	if len(statuses) > 0 {
		raw := make([]string, 0, len(statuses))
		for _, s := range statuses {
			raw = append(raw, string(s))
		}
		q = q.Where("status IN ?", raw)
	}

	var rows []calendarDayModel
	if err := q.Order(`"date" ASC`).Find(&rows).Error; err != nil {
		return nil, wrapErr("calendar query range", err)
	}

	out := make([]domain.CalendarDay, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomainCalendarDay(m))
	}
	return out, nil
}

func (r *CalendarRepository) GetByID(ctx context.Context, id int64) (*domain.CalendarDay, error) {
	var rows []calendarDayModel
	tx := r.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&rows)
	if tx.Error != nil {
		return nil, wrapErr("calendar get by id", tx.Error)
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	d := toDomainCalendarDay(rows[0])
	return &d, nil
}

// Create inserts a new day; an existing (villa, date) row yields ErrConflict.
func (r *CalendarRepository) Create(ctx context.Context, d *domain.CalendarDay) error {
	m := toCalendarDayModel(d)
	m.ID = 0
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return wrapErr("calendar create", err)
	}
	*d = toDomainCalendarDay(m)
	return nil
}

// Update applies patch to row id and optionally moves it to newDate.
func (r *CalendarRepository) Update(ctx context.Context, id int64, patch domain.DayPatch, newDate *time.Time) (*domain.CalendarDay, error) {
	updates := patchColumns(patch)
	if newDate != nil {
		updates["date"] = domain.NormalizeDate(*newDate)
	}
	updates["updated_at"] = time.Now().UTC()

	tx := r.db.WithContext(ctx).Model(&calendarDayModel{}).Where("id = ?", id).Updates(updates)
	if tx.Error != nil {
		return nil, wrapErr("calendar update", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return nil, domain.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *CalendarRepository) Delete(ctx context.Context, id int64) error {
	tx := r.db.WithContext(ctx).Where("id = ?", id).Delete(&calendarDayModel{})
	if tx.Error != nil {
		return wrapErr("calendar delete", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Upsert merges patch into the (villa, date) row in one INSERT ... ON CONFLICT
// statement. A missing row is created as AVAILABLE plus the patch.
func (r *CalendarRepository) Upsert(ctx context.Context, villaID int64, date time.Time, patch domain.DayPatch) (*domain.CalendarDay, error) {
	if _, err := r.upsert(ctx, villaID, date, patch, nil); err != nil {
		return nil, err
	}
	return r.Get(ctx, villaID, date)
}

// ClaimNight marks date RESERVED for reservationID only if the existing row is
// claimable (see domain.NightClaimable). It reports whether the write applied.
func (r *CalendarRepository) ClaimNight(ctx context.Context, villaID int64, date time.Time, reservationID *uuid.UUID) (bool, error) {
	reserved := domain.CalendarReserved
	patch := domain.DayPatch{Status: &reserved, ClearEventType: true}
	setReservation(&patch, reservationID)
	return r.upsert(ctx, villaID, date, patch, []clause.Expression{claimableExpr(reservationID)})
}

// MarkBoundary tags date as the CHECKIN or CHECKOUT day of a stay. A check-in day
// must be claimable like any night. A checkout day is only written when it is
// free and not another stay's check-in; otherwise it is left as is.
func (r *CalendarRepository) MarkBoundary(ctx context.Context, villaID int64, date time.Time, event domain.EventType, reservationID *uuid.UUID) (bool, error) {
	available := domain.CalendarAvailable
	patch := domain.DayPatch{Status: &available, EventType: &event}
	setReservation(&patch, reservationID)

	cond := claimableExpr(reservationID)
	if event == domain.EventCheckOut {
		cond = checkoutFreeExpr(reservationID)
	}
	return r.upsert(ctx, villaID, date, patch, []clause.Expression{cond})
}

// Release resets days in [start, end] to AVAILABLE and drops their stay link and
// check-in/checkout tag. With a reservation id only that stay's days are touched.
func (r *CalendarRepository) Release(ctx context.Context, villaID int64, start, end time.Time, reservationID *uuid.UUID) (int64, error) {
	q := r.db.WithContext(ctx).Model(&calendarDayModel{}).
		Where(`villa_id = ? AND "date" >= ? AND "date" <= ?`, villaID, domain.NormalizeDate(start), domain.NormalizeDate(end))
	if reservationID != nil {
		q = q.Where("reservation_id = ?", *reservationID)
	} else {
		q = q.Where("status <> ?", string(domain.CalendarBlocked)).
			Where("(status = ? OR event_type IN ?)", string(domain.CalendarReserved),
				[]string{string(domain.EventCheckIn), string(domain.EventCheckOut)})
	}

	tx := q.Updates(releaseColumns())
	if tx.Error != nil {
		return 0, wrapErr("calendar release", tx.Error)
	}
	return tx.RowsAffected, nil
}

// ReleaseCancelled frees every day still linked to a CANCELLED reservation.
func (r *CalendarRepository) ReleaseCancelled(ctx context.Context) (int64, error) {
	sub := r.db.Model(&reservationModel{}).Select("id").Where("status = ?", string(domain.ReservationCancelled))
	tx := r.db.WithContext(ctx).Model(&calendarDayModel{}).
		Where("reservation_id IN (?)", sub).
		Updates(releaseColumns())
	if tx.Error != nil {
		return 0, wrapErr("calendar release cancelled", tx.Error)
	}
	return tx.RowsAffected, nil
}

func releaseColumns() map[string]interface{} {
	return map[string]interface{}{
		"status":         string(domain.CalendarAvailable),
		"event_type":     nil,
		"reservation_id": nil,
		"updated_at":     time.Now().UTC(),
	}
}

func (r *CalendarRepository) upsert(ctx context.Context, villaID int64, date time.Time, patch domain.DayPatch, where []clause.Expression) (bool, error) {
	m := calendarDayModel{
		VillaID: villaID,
		Date:    domain.NormalizeDate(date),
		Status:  string(domain.CalendarAvailable),
	}
	cols := []string{"updated_at"}

	if patch.Status != nil {
		m.Status = string(*patch.Status)
		cols = append(cols, "status")
	}
	if patch.Price != nil {
		m.Price = patch.Price
		cols = append(cols, "price")
	} else if patch.ClearPrice {
		cols = append(cols, "price")
	}
	if patch.Note != nil {
		m.Note = *patch.Note
		cols = append(cols, "note")
	}
	if patch.EventType != nil {
		e := string(*patch.EventType)
		m.EventType = &e
		cols = append(cols, "event_type")
	} else if patch.ClearEventType {
		cols = append(cols, "event_type")
	}
	if patch.ReservationID != nil {
		id := *patch.ReservationID
		m.ReservationID = &id
		cols = append(cols, "reservation_id")
	} else if patch.ClearReservation {
		cols = append(cols, "reservation_id")
	}

	onConflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "villa_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns(cols),
	}
	if len(where) > 0 {
		onConflict.Where = clause.Where{Exprs: where}
	}

	tx := r.db.WithContext(ctx).Clauses(onConflict).Create(&m)
	if tx.Error != nil {
		return false, wrapErr("calendar upsert", tx.Error)
	}
	return tx.RowsAffected > 0, nil
}

func patchColumns(p domain.DayPatch) map[string]interface{} {
	cols := map[string]interface{}{}
	if p.Status != nil {
		cols["status"] = string(*p.Status)
	}
	if p.Price != nil {
		cols["price"] = *p.Price
	} else if p.ClearPrice {
		cols["price"] = nil
	}
	if p.Note != nil {
		cols["note"] = *p.Note
	}
	if p.EventType != nil {
		cols["event_type"] = string(*p.EventType)
	} else if p.ClearEventType {
		cols["event_type"] = nil
	}
	if p.ReservationID != nil {
		cols["reservation_id"] = *p.ReservationID
	} else if p.ClearReservation {
		cols["reservation_id"] = nil
	}
	return cols
}

func setReservation(p *domain.DayPatch, reservationID *uuid.UUID) {
	if reservationID != nil {
		id := *reservationID
		p.ReservationID = &id
		return
	}
	p.ClearReservation = true
}

// claimableExpr is the SQL form of domain.NightClaimable, evaluated against the
// existing row inside ON CONFLICT DO UPDATE.
func claimableExpr(reservationID *uuid.UUID) clause.Expression {
	if reservationID == nil {
		return clause.Expr{SQL: `(calendar_days.status = 'AVAILABLE' AND (COALESCE(calendar_days.event_type, '') <> 'CHECKIN' OR calendar_days.reservation_id IS NULL))` +
			` OR (calendar_days.status = 'RESERVED' AND calendar_days.reservation_id IS NULL)`}
	}
	id := *reservationID
	return clause.Expr{
		SQL: `(calendar_days.status = 'AVAILABLE' AND (COALESCE(calendar_days.event_type, '') <> 'CHECKIN' OR calendar_days.reservation_id IS NULL OR calendar_days.reservation_id = ?))` +
			` OR (calendar_days.status = 'RESERVED' AND calendar_days.reservation_id = ?)`,
		Vars: []interface{}{id, id},
	}
}

func checkoutFreeExpr(reservationID *uuid.UUID) clause.Expression {
	if reservationID == nil {
		return clause.Expr{SQL: `calendar_days.status = 'AVAILABLE' AND (COALESCE(calendar_days.event_type, '') <> 'CHECKIN' OR calendar_days.reservation_id IS NULL)`}
	}
	return clause.Expr{
		SQL:  `calendar_days.status = 'AVAILABLE' AND (COALESCE(calendar_days.event_type, '') <> 'CHECKIN' OR calendar_days.reservation_id IS NULL OR calendar_days.reservation_id = ?)`,
		Vars: []interface{}{*reservationID},
	}
}
