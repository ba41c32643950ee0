package refund

import (
	"net/http"
	"strconv"

	"coworking/internal/domain"
	"coworking/internal/middleware"
	"coworking/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes expects rg to be behind JWTAuth.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/refunds", middleware.StaffOnly(), h.Request)
	rg.GET("/refunds/:id", h.Get)
	rg.PATCH("/refunds/:id/decision", middleware.RequireRole(domain.RoleOwner), h.Decide)
	rg.POST("/refunds/:id/process", middleware.StaffOnly(), h.Process)
	rg.GET("/owners/me/refunds", middleware.RequireRole(domain.RoleOwner), h.ListMine)
}

// @Summary Request refund
// @Description Opens a refund for a confirmed booking. Amounts are frozen at request time.
// @Tags Refunds
// @Accept json
// @Produce json
// @Param request body CreateRefundRequest true "Refund"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{} "Refund window closed"
// @Failure 409 {object} map[string]interface{} "Active refund exists"
// @Router /refunds [post]
// @Security Bearer
func (h *Handler) Request(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return
	}
	var req CreateRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	r, err := h.service.RequestRefund(c.Request.Context(), actor, req.BookingID, req.Notes)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"refund": r})
}

func (h *Handler) Get(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	r, err := h.service.GetRefundRequest(c.Request.Context(), actor, id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"refund": r})
}

// @Summary Decide refund
// @Description The room owner approves or rejects a pending refund exactly once.
// @Tags Refunds
// @Accept json
// @Produce json
// @Param id path int true "Refund request ID"
// @Param request body DecisionRequest true "Decision"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{} "Already decided"
// @Router /refunds/{id}/decision [patch]
// @Security Bearer
func (h *Handler) Decide(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	approved, err := h.service.ApproveRefund(c.Request.Context(), actor, id, *req.Approve, req.Notes)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"refund_id": id, "approved": approved})
}

// @Summary Process refund
// @Description Executes an approved refund, or one whose owner approval window has lapsed.
// @Tags Refunds
// @Produce json
// @Param id path int true "Refund request ID"
// @Success 200 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{} "Gateway refund failed"
// @Router /refunds/{id}/process [post]
// @Security Bearer
func (h *Handler) Process(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	txnID, err := h.service.ProcessRefund(c.Request.Context(), actor, id, c.ClientIP())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"refund_id": id, "gateway_transaction_id": txnID})
}

func (h *Handler) ListMine(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return
	}
	list, err := h.service.ListPendingForOwner(c.Request.Context(), actor.ID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"refunds": list})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid id")
		return 0, false
	}
	return id, true
}
