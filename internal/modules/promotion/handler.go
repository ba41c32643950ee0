package promotion

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
	promos := rg.Group("/promotions", middleware.RequireRole(domain.RoleOwner, domain.RoleAdmin))
	{
		promos.POST("", h.Generate)
		promos.PATCH("/:id/activate", h.Activate)
	}
}

// @Summary Create promotion code
// @Description Owners create codes for their rooms, admins create global codes. Codes start inactive.
// @Tags Promotions
// @Accept json
// @Produce json
// @Param request body GenerateRequest true "Promotion"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /promotions [post]
// @Security Bearer
func (h *Handler) Generate(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return
	}

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	p, err := h.service.Generate(c.Request.Context(), actor, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"promotion": p})
}

// @Summary Activate promotion code
// @Tags Promotions
// @Produce json
// @Param id path int true "Promotion ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /promotions/{id}/activate [patch]
// @Security Bearer
func (h *Handler) Activate(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid promotion ID")
		return
	}

	p, err := h.service.Activate(c.Request.Context(), actor, id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"promotion": p})
}
