package availability

import "villastay/internal/domain"

type QuoteResponse struct {
	VillaID          int64    `json:"villaId"`
	StartDate        string   `json:"startDate"`
	EndDate          string   `json:"endDate"`
	Nights           int      `json:"nights"`
	Available        bool     `json:"available"`
	FirstUnavailable *string  `json:"firstUnavailable"`
	TotalPrice       *float64 `json:"totalPrice"`
}

func toQuoteResponse(q *Quote) QuoteResponse {
	out := QuoteResponse{
		VillaID:    q.VillaID,
		StartDate:  domain.FormatDate(q.StartDate),
		EndDate:    domain.FormatDate(q.EndDate),
		Nights:     q.Nights,
		Available:  q.Available,
		TotalPrice: q.TotalPrice,
	}
	if q.FirstUnavailable != nil {
		s := domain.FormatDate(*q.FirstUnavailable)
		out.FirstUnavailable = &s
	}
	return out
}
