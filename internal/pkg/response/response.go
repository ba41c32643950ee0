package response

import (
	"errors"
	"net/http"

	"coworking/internal/domain"

	"github.com/gin-gonic/gin"
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

// FromError writes the envelope for a service error, choosing the status from its kind.
// Unclassified errors are attached to the gin context for the request logger.
func FromError(c *gin.Context, err error) {
	var stateErr *domain.StateError
	switch {
	case errors.As(err, &stateErr):
		ErrorWithDetails(c, http.StatusConflict, "STATE_CONFLICT", stateErr.Error(), gin.H{"current_status": stateErr.Current})
	case errors.Is(err, domain.ErrNotFound):
		Error(c, http.StatusNotFound, "NOT_FOUND", domain.Message(err))
	case errors.Is(err, domain.ErrValidation):
		Error(c, http.StatusBadRequest, "VALIDATION_ERROR", domain.Message(err))
	case errors.Is(err, domain.ErrConflict):
		Error(c, http.StatusConflict, "CONFLICT", domain.Message(err))
	case errors.Is(err, domain.ErrForbidden):
		Error(c, http.StatusForbidden, "FORBIDDEN", domain.Message(err))
	case errors.Is(err, domain.ErrExternal):
		_ = c.Error(err)
		Error(c, http.StatusBadGateway, "EXTERNAL_FAILURE", domain.Message(err))
	default:
		_ = c.Error(err)
		Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
