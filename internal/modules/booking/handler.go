package booking

import (
	"net/http"
	"strconv"
	"time"

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

// RegisterPublicRoutes mounts the read-only room catalogue.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/rooms", h.ListRooms)
	rg.GET("/rooms/:id", h.GetRoom)
	rg.GET("/rooms/:id/availability", h.GetAvailability)
}

// RegisterRoutes expects rg to be behind JWTAuth.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/quotes", h.Quote)
	rg.POST("/bookings", h.CreateBooking)
	rg.GET("/users/me/bookings", h.ListMyBookings)

	bookings := rg.Group("/bookings/:code")
	{
		bookings.GET("", h.GetBooking)
		bookings.PATCH("/cancel", h.CancelBooking)

		staff := bookings.Group("", middleware.StaffOnly())
		staff.PATCH("", h.UpdateDetails)
		staff.PATCH("/confirm-payment", h.ConfirmPayment)
		staff.PATCH("/reschedule", h.Reschedule)
		staff.PATCH("/check-in", h.CheckIn)
		staff.PATCH("/check-out", h.CheckOut)
	}

	owner := rg.Group("", middleware.RequireRole(domain.RoleOwner, domain.RoleAdmin))
	{
		owner.POST("/rooms/:id/blocks", h.BlockSlot)
		owner.DELETE("/blocks/:id", h.ReleaseSlot)
	}
}

func (h *Handler) Quote(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return
	}
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	q, err := h.service.Quote(c.Request.Context(), actor.ID, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"quote": q})
}

// @Summary Create booking
// @Description Reserves a room. The booking starts in pending_payment.
// @Tags Bookings
// @Accept json
// @Produce json
// @Param request body CreateBookingRequest true "Booking"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{} "Room is not available"
// @Router /bookings [post]
// @Security Bearer
func (h *Handler) CreateBooking(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return
	}
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	b, err := h.service.CreateBooking(c.Request.Context(), actor, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"booking": b})
}

func (h *Handler) GetBooking(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return
	}
	b, err := h.service.GetBooking(c.Request.Context(), actor, c.Param("code"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) ListMyBookings(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	list, err := h.service.ListCustomerBookings(c.Request.Context(), actor.ID, limit, offset)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": list})
}

func (h *Handler) ConfirmPayment(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return
	}
	var req ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	changed, err := h.service.ConfirmPayment(c.Request.Context(), ConfirmPaymentInput{
		Code:       c.Param("code"),
		Provider:   req.Provider,
		PaymentRef: req.PaymentRef,
		Amount:     req.Amount,
		Currency:   req.Currency,
		ActorID:    actor.ID,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	msg := "Payment confirmed"
	if !changed {
		msg = "Booking is already confirmed"
	}
	response.Success(c, http.StatusOK, gin.H{"confirmed": true, "changed": changed, "message": msg})
}

// @Summary Cancel booking
// @Description Customers cancel their own bookings. Staff and owners must give a reason.
// @Tags Bookings
// @Accept json
// @Produce json
// @Param code path string true "Booking code"
// @Param request body CancelBookingRequest false "Reason"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /bookings/{code}/cancel [patch]
// @Security Bearer
func (h *Handler) CancelBooking(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return
	}
	var req CancelBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
			return
		}
	}

	changed, err := h.service.CancelBooking(c.Request.Context(), actor, c.Param("code"), req.Reason)
	if err != nil {
		response.FromError(c, err)
		return
	}
	msg := "Booking cancelled"
	if !changed {
		msg = "Booking is already cancelled"
	}
	response.Success(c, http.StatusOK, gin.H{"cancelled": true, "changed": changed, "message": msg})
}

func (h *Handler) Reschedule(c *gin.Context) {
	actor, b, ok := h.staffBooking(c)
	if !ok {
		return
	}
	var req RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	changed, err := h.service.RescheduleBooking(c.Request.Context(), actor, b.ID, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"rescheduled": true, "changed": changed})
}

func (h *Handler) UpdateDetails(c *gin.Context) {
	actor, b, ok := h.staffBooking(c)
	if !ok {
		return
	}
	var patch domain.BookingPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	updated, err := h.service.UpdateBookingDetails(c.Request.Context(), actor, b.ID, patch)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": updated})
}

func (h *Handler) CheckIn(c *gin.Context) {
	actor, b, ok := h.staffBooking(c)
	if !ok {
		return
	}
	updated, err := h.service.CheckIn(c.Request.Context(), actor, b.ID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": updated})
}

func (h *Handler) CheckOut(c *gin.Context) {
	actor, b, ok := h.staffBooking(c)
	if !ok {
		return
	}
	updated, err := h.service.CheckOut(c.Request.Context(), actor, b.ID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": updated})
}

func (h *Handler) ListRooms(c *gin.Context) {
	rooms, err := h.service.ListRooms(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"rooms": rooms})
}

func (h *Handler) GetRoom(c *gin.Context) {
	id, ok := parseID(c, "room")
	if !ok {
		return
	}
	room, err := h.service.GetRoom(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"room": room})
}

// @Summary Room availability
// @Description Free windows of the room for a day (YYYY-MM-DD, UTC).
// @Tags Rooms
// @Produce json
// @Param id path int true "Room ID"
// @Param date query string true "Date"
// @Success 200 {object} map[string]interface{}
// @Router /rooms/{id}/availability [get]
func (h *Handler) GetAvailability(c *gin.Context) {
	id, ok := parseID(c, "room")
	if !ok {
		return
	}
	day, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "date must be YYYY-MM-DD")
		return
	}

	free, err := h.service.Availability(c.Request.Context(), id, day)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"room_id": id,
		"date":    day.Format("2006-01-02"),
		"free":    free,
	})
}

func (h *Handler) BlockSlot(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return
	}
	roomID, ok := parseID(c, "room")
	if !ok {
		return
	}
	var req BlockSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	slot, err := h.service.BlockSlot(c.Request.Context(), actor, roomID, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"slot": slot})
}

func (h *Handler) ReleaseSlot(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return
	}
	slotID, ok := parseID(c, "slot")
	if !ok {
		return
	}
	if err := h.service.ReleaseSlot(c.Request.Context(), actor, slotID); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"released": true})
}

// staffBooking resolves the :code param for the staff routes.
func (h *Handler) staffBooking(c *gin.Context) (domain.Actor, *domain.Booking, bool) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return actor, nil, false
	}
	b, err := h.service.GetBooking(c.Request.Context(), actor, c.Param("code"))
	if err != nil {
		response.FromError(c, err)
		return actor, nil, false
	}
	return actor, b, true
}

func parseID(c *gin.Context, what string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+what+" ID")
		return 0, false
	}
	return id, true
}
