package availability

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"villastay/internal/domain"
	"villastay/internal/pkg/response"
)

type Handler struct {
	svc       *Service
	villas    VillaLookup
	maxNights int
}

// NewHandler serves quotes for stays of at most maxNights nights.
func NewHandler(svc *Service, villas VillaLookup, maxNights int) *Handler {
	return &Handler{svc: svc, villas: villas, maxNights: maxNights}
}

func (h *Handler) RegisterRoutes(public *gin.RouterGroup) {
	public.GET("/villas/:id/availability", h.GetQuote)
}

// GetQuote answers whether every night of a stay is free and what it costs.
// @Summary	Stay availability and price
// @Tags		Availability
// @Param		id			path	int		true	"Villa ID"
// @Param		startDate	query	string	true	"Check-in date, YYYY-MM-DD"
// @Param		endDate		query	string	true	"Checkout date, YYYY-MM-DD"
// @Router		/villas/{id}/availability [GET]
func (h *Handler) GetQuote(c *gin.Context) {
	villaID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || villaID <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid villa ID")
		return
	}
	start, err := domain.ParseDate("startDate", c.Query("startDate"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	end, err := domain.ParseDate("endDate", c.Query("endDate"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	if err := domain.ValidateStayWithin(start, end, h.maxNights); err != nil {
		response.FromError(c, err)
		return
	}

	ctx := c.Request.Context()
	if _, err := h.villas.GetBookable(ctx, villaID); err != nil {
		response.FromError(c, err)
		return
	}

	q, err := h.svc.Quote(ctx, villaID, start, end)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toQuoteResponse(q))
}
