package reservation

import (
	"time"

	"villastay/internal/domain"
)

type CreateReservationRequest struct {
	VillaID         int64   `json:"villaId" validate:"required,gt=0"`
	CurrencyID      string  `json:"currencyId" validate:"max=32"`
	StartDate       string  `json:"startDate" validate:"required,isodate"`
	EndDate         string  `json:"endDate" validate:"required,isodate"`
	GuestCount      int     `json:"guestCount" validate:"required,gte=1"`
	TotalAmount     float64 `json:"totalAmount" validate:"gte=0"`
	AdvanceAmount   float64 `json:"advanceAmount" validate:"gte=0"`
	RemainingAmount float64 `json:"remainingAmount" validate:"gte=0"`
	PaymentType     string  `json:"paymentType" validate:"required"`
	PaymentMethod   string  `json:"paymentMethod" validate:"max=32"`
	CustomerName    string  `json:"customerName" validate:"required,max=200"`
	CustomerEmail   string  `json:"customerEmail" validate:"required,email"`
	CustomerPhone   string  `json:"customerPhone" validate:"required,max=32"`
	SpecialRequests string  `json:"specialRequests" validate:"max=2000"`
}

func (r CreateReservationRequest) toInput() (CreateInput, error) {
	start, err := domain.ParseDate("startDate", r.StartDate)
	if err != nil {
		return CreateInput{}, err
	}
	end, err := domain.ParseDate("endDate", r.EndDate)
	if err != nil {
		return CreateInput{}, err
	}
	pt, err := domain.ParsePaymentType(r.PaymentType)
	if err != nil {
		return CreateInput{}, err
	}
	return CreateInput{
		VillaID:         r.VillaID,
		CurrencyID:      r.CurrencyID,
		StartDate:       start,
		EndDate:         end,
		GuestCount:      r.GuestCount,
		TotalAmount:     r.TotalAmount,
		AdvanceAmount:   r.AdvanceAmount,
		RemainingAmount: r.RemainingAmount,
		PaymentType:     pt,
		PaymentMethod:   r.PaymentMethod,
		CustomerName:    r.CustomerName,
		CustomerEmail:   r.CustomerEmail,
		CustomerPhone:   r.CustomerPhone,
		SpecialRequests: r.SpecialRequests,
	}, nil
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason" validate:"max=1000"`
}

type ReservationResponse struct {
	ID                 string     `json:"id"`
	BookingRef         string     `json:"bookingRef"`
	VillaID            int64      `json:"villaId"`
	CurrencyID         string     `json:"currencyId"`
	StartDate          string     `json:"startDate"`
	EndDate            string     `json:"endDate"`
	Nights             int        `json:"nights"`
	GuestCount         int        `json:"guestCount"`
	TotalAmount        float64    `json:"totalAmount"`
	AdvanceAmount      float64    `json:"advanceAmount"`
	RemainingAmount    float64    `json:"remainingAmount"`
	PaymentType        string     `json:"paymentType"`
	PaymentMethod      string     `json:"paymentMethod"`
	PaymentDueDate     time.Time  `json:"paymentDueDate"`
	Status             string     `json:"status"`
	CancellationReason string     `json:"cancellationReason,omitempty"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`
	CustomerName       string     `json:"customerName"`
	CustomerEmail      string     `json:"customerEmail"`
	CustomerPhone      string     `json:"customerPhone"`
	SpecialRequests    string     `json:"specialRequests,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

func toResponse(r *domain.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:                 r.ID.String(),
		BookingRef:         r.BookingRef,
		VillaID:            r.VillaID,
		CurrencyID:         r.CurrencyID,
		StartDate:          domain.FormatDate(r.StartDate),
		EndDate:            domain.FormatDate(r.EndDate),
		Nights:             r.Nights(),
		GuestCount:         r.GuestCount,
		TotalAmount:        r.TotalAmount,
		AdvanceAmount:      r.AdvanceAmount,
		RemainingAmount:    r.RemainingAmount,
		PaymentType:        string(r.PaymentType),
		PaymentMethod:      r.PaymentMethod,
		PaymentDueDate:     r.PaymentDueDate,
		Status:             string(r.Status),
		CancellationReason: r.CancellationReason,
		CancelledAt:        r.CancelledAt,
		CustomerName:       r.CustomerName,
		CustomerEmail:      r.CustomerEmail,
		CustomerPhone:      r.CustomerPhone,
		SpecialRequests:    r.SpecialRequests,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}
