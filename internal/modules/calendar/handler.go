package calendar

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"villastay/internal/domain"
	"villastay/internal/pkg/response"
	"villastay/internal/pkg/validator"
)

type Handler struct {
	svc         *Service
	ranges      *RangeService
	strictRange bool
}

// NewHandler wires the calendar endpoints. With strictRange false the range
// endpoint falls back to per-day writes and may answer 207.
func NewHandler(svc *Service, ranges *RangeService, strictRange bool) *Handler {
	return &Handler{svc: svc, ranges: ranges, strictRange: strictRange}
}

func (h *Handler) RegisterRoutes(public, admin *gin.RouterGroup) {
	if public != nil {
		public.GET("/villas/:id/calendar-events", h.List)
	}

	if admin != nil {
		admin.POST("/villas/:id/calendar-events", h.Create)
		admin.PATCH("/villas/:id/calendar-events/:eventId", h.Update)
		admin.DELETE("/villas/:id/calendar-events/:eventId", h.Delete)
		admin.POST("/villas/update-calendar-events", h.UpdateRange)
		admin.POST("/villas/release-calendar-events", h.ReleaseRange)
	}
}

// List returns the calendar days of a villa.
// @Summary	List calendar days
// @Tags		Calendar
// @Param		id			path	int		true	"Villa ID"
// @Param		startDate	query	string	false	"YYYY-MM-DD, default today"
// @Param		endDate		query	string	false	"YYYY-MM-DD, default startDate + 90 days"
// @Param		status		query	string	false	"AVAILABLE | PENDING | RESERVED | BLOCKED"
// @Router		/villas/{id}/calendar-events [GET]
func (h *Handler) List(c *gin.Context) {
	villaID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var f ListFilter
	if raw := c.Query("startDate"); raw != "" {
		d, err := domain.ParseDate("startDate", raw)
		if err != nil {
			response.FromError(c, err)
			return
		}
		f.StartDate = d
	}
	if raw := c.Query("endDate"); raw != "" {
		d, err := domain.ParseDate("endDate", raw)
		if err != nil {
			response.FromError(c, err)
			return
		}
		f.EndDate = d
	}
	if raw := c.Query("status"); raw != "" {
		s, err := domain.ParseCalendarStatus(raw)
		if err != nil {
			response.FromError(c, err)
			return
		}
		f.Statuses = []domain.CalendarStatus{s}
	}

	days, err := h.svc.List(c.Request.Context(), villaID, f)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toResponses(days))
}

// Create adds a single calendar day.
// @Summary	Create calendar day
// @Tags		Calendar
// @Security	BearerAuth
// @Router		/villas/{id}/calendar-events [POST]
func (h *Handler) Create(c *gin.Context) {
	villaID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req CreateDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if err := validator.AsDomainError(req); err != nil {
		response.FromError(c, err)
		return
	}
	in, err := req.toNewDay()
	if err != nil {
		response.FromError(c, err)
		return
	}

	d, err := h.svc.CreateDay(c.Request.Context(), villaID, in)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			response.Error(c, http.StatusConflict, "CONFLICT", "A calendar day already exists for this date")
			return
		}
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, toResponse(*d))
}

// Update patches a calendar day. JSON null clears price, note, eventType or
// reservationId.
// @Summary	Update calendar day
// @Tags		Calendar
// @Security	BearerAuth
// @Router		/villas/{id}/calendar-events/{eventId} [PATCH]
func (h *Handler) Update(c *gin.Context) {
	villaID, ok := pathID(c, "id")
	if !ok {
		return
	}
	eventID, ok := pathID(c, "eventId")
	if !ok {
		return
	}

	var body map[string]json.RawMessage
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	patch, newDate, err := parsePatch(body)
	if err != nil {
		response.FromError(c, err)
		return
	}

	d, err := h.svc.UpdateDay(c.Request.Context(), villaID, eventID, patch, newDate)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			response.Error(c, http.StatusConflict, "CONFLICT", "A calendar day already exists for this date")
			return
		}
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toResponse(*d))
}

// Delete removes a calendar day.
// @Summary	Delete calendar day
// @Tags		Calendar
// @Security	BearerAuth
// @Router		/villas/{id}/calendar-events/{eventId} [DELETE]
func (h *Handler) Delete(c *gin.Context) {
	villaID, ok := pathID(c, "id")
	if !ok {
		return
	}
	eventID, ok := pathID(c, "eventId")
	if !ok {
		return
	}

	d, err := h.svc.DeleteDay(c.Request.Context(), villaID, eventID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, DeletedDayResponse{ID: d.ID, VillaID: d.VillaID, Date: domain.FormatDate(d.Date)})
}

// UpdateRange marks a stay on the calendar: check-in day, reserved nights and
// checkout day.
// @Summary	Mark a stay
// @Tags		Calendar
// @Security	BearerAuth
// @Router		/villas/update-calendar-events [POST]
func (h *Handler) UpdateRange(c *gin.Context) {
	var req RangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if err := validator.AsDomainError(req); err != nil {
		response.FromError(c, err)
		return
	}
	start, err := domain.ParseDate("startDate", req.StartDate)
	if err != nil {
		response.FromError(c, err)
		return
	}
	end, err := domain.ParseDate("endDate", req.EndDate)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if err := domain.ValidateStay(start, end); err != nil {
		response.FromError(c, err)
		return
	}
	var reservationID *uuid.UUID
	if req.ReservationID != "" {
		id, err := parseReservationID(req.ReservationID)
		if err != nil {
			response.FromError(c, err)
			return
		}
		reservationID = &id
	}

	ctx := c.Request.Context()
	if err := h.svc.EnsureVilla(ctx, req.VillaID); err != nil {
		response.FromError(c, err)
		return
	}

	totalDates := len(domain.Nights(start, end)) + 1

	if h.strictRange {
		result, err := h.ranges.MarkStay(ctx, req.VillaID, start, end, reservationID)
		var nightErr *domain.NightConflictError
		if errors.As(err, &nightErr) {
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_AVAILABLE",
					"message": "Stay could not be marked; no dates were changed",
				},
				"details":      []DayErrorResponse{{Date: domain.FormatDate(nightErr.Date), Error: nightErr.Reason}},
				"successCount": 0,
				"totalDates":   totalDates,
			})
			return
		}
		if err != nil {
			response.FromError(c, err)
			return
		}
		rangeOK(c, result)
		return
	}

	result, err := h.ranges.MarkStayEach(ctx, req.VillaID, start, end, reservationID)
	var partial *domain.PartialFailureError
	if errors.As(err, &partial) {
		details := make([]DayErrorResponse, 0, partial.Total-partial.SuccessCount)
		for _, o := range partial.Failed() {
			details = append(details, DayErrorResponse{Date: domain.FormatDate(o.Date), Error: dayErrorMessage(o.Err)})
		}
		c.JSON(http.StatusMultiStatus, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PARTIAL_FAILURE",
				"message": partial.Error(),
			},
			"details":      details,
			"successCount": partial.SuccessCount,
			"totalDates":   partial.Total,
		})
		return
	}
	if err != nil {
		response.FromError(c, err)
		return
	}
	rangeOK(c, result)
}

// ReleaseRange frees [startDate, endDate] back to AVAILABLE. With reservationId
// only the days linked to that stay change; blocked days are left alone.
// @Summary	Release a stay
// @Tags		Calendar
// @Security	BearerAuth
// @Router		/villas/release-calendar-events [POST]
func (h *Handler) ReleaseRange(c *gin.Context) {
	var req RangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if err := validator.AsDomainError(req); err != nil {
		response.FromError(c, err)
		return
	}
	start, err := domain.ParseDate("startDate", req.StartDate)
	if err != nil {
		response.FromError(c, err)
		return
	}
	end, err := domain.ParseDate("endDate", req.EndDate)
	if err != nil {
		response.FromError(c, err)
		return
	}
	var reservationID *uuid.UUID
	if req.ReservationID != "" {
		id, err := parseReservationID(req.ReservationID)
		if err != nil {
			response.FromError(c, err)
			return
		}
		reservationID = &id
	}

	ctx := c.Request.Context()
	if err := h.svc.EnsureVilla(ctx, req.VillaID); err != nil {
		response.FromError(c, err)
		return
	}
	released, err := h.ranges.UnmarkStay(ctx, req.VillaID, start, end, reservationID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"releasedDays": released,
	})
}

func rangeOK(c *gin.Context, result *RangeResult) {
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"updatedDates": result.UpdatedDates(),
		"totalDates":   result.Total(),
	})
}

func dayErrorMessage(err error) string {
	if errors.Is(err, domain.ErrConflict) {
		return "conflict"
	}
	return "failed to update date"
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+name)
		return 0, false
	}
	return id, true
}
