package reservation

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"villastay/internal/domain"
	"villastay/internal/pkg/response"
	"villastay/internal/pkg/validator"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the booking endpoints. lookupGuard runs in front of the
// public lookup, typically a rate limiter.
func (h *Handler) RegisterRoutes(public, admin *gin.RouterGroup, lookupGuard ...gin.HandlerFunc) {
	if public != nil {
		public.POST("/reservations", h.Create)
		public.GET("/reservations/lookup", append(lookupGuard, h.Lookup)...)
	}

	if admin != nil {
		admin.GET("/reservations/:id", h.GetByID)
		admin.PATCH("/reservations/:id/status", h.UpdateStatus)
	}
}

// Create books a stay.
// @Summary	Create reservation
// @Tags		Reservations
// @Param		request	body	CreateReservationRequest	true	"Booking form"
// @Success	200	{object}	map[string]interface{}	"id and bookingRef"
// @Failure	400	{object}	map[string]interface{}	"Validation error"
// @Failure	404	{object}	map[string]interface{}	"Villa not found"
// @Failure	409	{object}	map[string]interface{}	"Dates not available"
// @Router		/reservations [POST]
func (h *Handler) Create(c *gin.Context) {
	var req CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if err := validator.AsDomainError(req); err != nil {
		response.FromError(c, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		response.FromError(c, err)
		return
	}

	res, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		if errors.Is(err, ErrNotAvailable) {
			response.Error(c, http.StatusConflict, "NOT_AVAILABLE", "Villa is not available for the selected dates")
			return
		}
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Reservation created",
		"id":         res.ID.String(),
		"bookingRef": res.BookingRef,
	})
}

// Lookup lets a guest find a booking by reference and email.
// @Summary	Find reservation by booking reference
// @Tags		Reservations
// @Param		bookingRef	query	string	true	"Booking reference"
// @Param		email		query	string	true	"Customer email"
// @Router		/reservations/lookup [GET]
func (h *Handler) Lookup(c *gin.Context) {
	res, err := h.svc.VerifyByBookingRef(c.Request.Context(), c.Query("bookingRef"), c.Query("email"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	if res == nil {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Reservation not found")
		return
	}
	response.Success(c, http.StatusOK, toResponse(res))
}

// GetByID returns one reservation.
// @Summary	Get reservation
// @Tags		Reservations
// @Security	BearerAuth
// @Router		/reservations/{id} [GET]
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}

	res, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toResponse(res))
}

// UpdateStatus changes the reservation status. Cancelling frees its dates.
// @Summary	Update reservation status
// @Tags		Reservations
// @Security	BearerAuth
// @Param		request	body	UpdateStatusRequest	true	"PENDING | CONFIRMED | CANCELLED | COMPLETED"
// @Router		/reservations/{id}/status [PATCH]
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if err := validator.AsDomainError(req); err != nil {
		response.FromError(c, err)
		return
	}
	status, err := domain.ParseReservationStatus(req.Status)
	if err != nil {
		response.FromError(c, err)
		return
	}

	res, err := h.svc.UpdateStatus(c.Request.Context(), id, status, req.Reason)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toResponse(res))
}

func reservationID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid reservation ID")
		return uuid.Nil, false
	}
	return id, true
}
