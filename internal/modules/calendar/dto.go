package calendar

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"villastay/internal/domain"
)

type CalendarDayResponse struct {
	ID            int64     `json:"id"`
	VillaID       int64     `json:"villaId"`
	Date          string    `json:"date"`
	Status        string    `json:"status"`
	Price         *float64  `json:"price"`
	Note          string    `json:"note"`
	EventType     *string   `json:"eventType"`
	ReservationID *string   `json:"reservationId"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toResponse(d domain.CalendarDay) CalendarDayResponse {
	out := CalendarDayResponse{
		ID:        d.ID,
		VillaID:   d.VillaID,
		Date:      domain.FormatDate(d.Date),
		Status:    string(d.Status),
		Price:     d.Price,
		Note:      d.Note,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if d.EventType != nil {
		e := string(*d.EventType)
		out.EventType = &e
	}
	if d.ReservationID != nil {
		id := d.ReservationID.String()
		out.ReservationID = &id
	}
	return out
}

func toResponses(days []domain.CalendarDay) []CalendarDayResponse {
	out := make([]CalendarDayResponse, 0, len(days))
	for _, d := range days {
		out = append(out, toResponse(d))
	}
	return out
}

type CreateDayRequest struct {
	Date      string   `json:"date" validate:"required,isodate"`
	Status    string   `json:"status"`
	Price     *float64 `json:"price" validate:"omitempty,gte=0"`
	Note      string   `json:"note" validate:"max=1000"`
	EventType *string  `json:"eventType"`
	// links the day to a stay, as the range endpoint does
	ReservationID *string `json:"reservationId" validate:"omitempty,uuid"`
}

func (r CreateDayRequest) toNewDay() (NewDay, error) {
	date, err := domain.ParseDate("date", r.Date)
	if err != nil {
		return NewDay{}, err
	}
	in := NewDay{Date: date, Price: r.Price, Note: r.Note}
	if r.Status != "" {
		if in.Status, err = domain.ParseCalendarStatus(r.Status); err != nil {
			return NewDay{}, err
		}
	}
	if r.EventType != nil {
		e, err := domain.ParseEventType(*r.EventType)
		if err != nil {
			return NewDay{}, err
		}
		in.EventType = &e
	}
	if r.ReservationID != nil {
		id, err := parseReservationID(*r.ReservationID)
		if err != nil {
			return NewDay{}, err
		}
		in.ReservationID = &id
	}
	return in, nil
}

// parsePatch reads a PATCH body field by field so that an explicit JSON null
// can be told apart from an omitted key. null clears price, note, eventType and
// reservationId.
func parsePatch(body map[string]json.RawMessage) (domain.DayPatch, *time.Time, error) {
	var (
		patch   domain.DayPatch
		newDate *time.Time
	)

	if raw, ok := body["date"]; ok {
		s, err := stringField("date", raw, false)
		if err != nil {
			return patch, nil, err
		}
		d, err := domain.ParseDate("date", *s)
		if err != nil {
			return patch, nil, err
		}
		newDate = &d
	}

	if raw, ok := body["status"]; ok {
		s, err := stringField("status", raw, false)
		if err != nil {
			return patch, nil, err
		}
		status, err := domain.ParseCalendarStatus(*s)
		if err != nil {
			return patch, nil, err
		}
		patch.Status = &status
	}

	if raw, ok := body["price"]; ok {
		if isNull(raw) {
			patch.ClearPrice = true
		} else {
			var p float64
			if err := json.Unmarshal(raw, &p); err != nil {
				return patch, nil, domain.NewValidationError("price", "must be a number")
			}
			patch.Price = &p
		}
	}

	if raw, ok := body["note"]; ok {
		s, err := stringField("note", raw, true)
		if err != nil {
			return patch, nil, err
		}
		note := ""
		if s != nil {
			note = *s
		}
		patch.Note = &note
	}

	if raw, ok := body["eventType"]; ok {
		if isNull(raw) {
			patch.ClearEventType = true
		} else {
			s, err := stringField("eventType", raw, false)
			if err != nil {
				return patch, nil, err
			}
			e, err := domain.ParseEventType(*s)
			if err != nil {
				return patch, nil, err
			}
			patch.EventType = &e
		}
	}

	if raw, ok := body["reservationId"]; ok {
		if isNull(raw) {
			patch.ClearReservation = true
		} else {
			s, err := stringField("reservationId", raw, false)
			if err != nil {
				return patch, nil, err
			}
			id, err := parseReservationID(*s)
			if err != nil {
				return patch, nil, err
			}
			patch.ReservationID = &id
		}
	}

	return patch, newDate, nil
}

func parseReservationID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.NewValidationError("reservationId", "must be a UUID")
	}
	return id, nil
}

func isNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}

func stringField(field string, raw json.RawMessage, nullable bool) (*string, error) {
	if isNull(raw) {
		if nullable {
			return nil, nil
		}
		return nil, domain.NewValidationError(field, "must not be null")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, domain.NewValidationError(field, "must be a string")
	}
	return &s, nil
}

type RangeRequest struct {
	VillaID       int64  `json:"villaId" validate:"required,gt=0"`
	StartDate     string `json:"startDate" validate:"required,isodate"`
	EndDate       string `json:"endDate" validate:"required,isodate"`
	ReservationID string `json:"reservationId" validate:"omitempty,uuid"`
}

type DayErrorResponse struct {
	Date  string `json:"date"`
	Error string `json:"error"`
}

type DeletedDayResponse struct {
	ID      int64  `json:"id"`
	VillaID int64  `json:"villaId"`
	Date    string `json:"date"`
}
