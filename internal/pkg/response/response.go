package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"villastay/internal/domain"
)

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// FromError maps domain errors to status codes. Validation, not-found and
// conflict errors carry their message; anything else is logged and answered
// with a generic 500.
func FromError(c *gin.Context, err error) {
	var (
		vErr     *domain.ValidationError
		nightErr *domain.NightConflictError
	)

	switch {
	case errors.As(err, &vErr):
		ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", vErr.Error(), gin.H{"field": vErr.Field})
	case errors.Is(err, domain.ErrValidation):
		Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.As(err, &nightErr):
		ErrorWithDetails(c, http.StatusConflict, "NOT_AVAILABLE", nightErr.Error(), gin.H{
			"date":   domain.FormatDate(nightErr.Date),
			"reason": nightErr.Reason,
		})
	case errors.Is(err, domain.ErrConflict):
		Error(c, http.StatusConflict, "CONFLICT", "Resource conflicts with an existing record")
	default:
		_ = c.Error(err)
		slog.Error("request_failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err.Error(),
		)
		Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
