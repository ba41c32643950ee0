package payment

import (
	"errors"
	"net/http"

	"coworking/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/payments/callback", h.Callback)
}

// Callback godoc
// @Summary      Payment gateway callback
// @Description  Verifies the token and confirms or fails the booking payment (idempotent)
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Param        body body CallbackRequest true "Gateway notification"
// @Success      200 {object} map[string]interface{}
// @Failure      400 {object} map[string]interface{}
// @Failure      403 {object} map[string]interface{}
// @Router       /payments/callback [post]
func (h *Handler) Callback(c *gin.Context) {
	var req CallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid callback payload")
		return
	}

	changed, err := h.service.HandleCallback(c.Request.Context(), req)
	switch {
	case errors.Is(err, ErrInvalidSignature):
		response.Error(c, http.StatusForbidden, "INVALID_SIGNATURE", "Invalid signature")
		return
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrUnknownStatus):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	case err != nil:
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"order_id": req.OrderID, "changed": changed})
}
