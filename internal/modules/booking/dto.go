package booking

import (
	"time"

	"coworking/internal/modules/pricing"
)

type CreateBookingRequest struct {
	RoomID          int64     `json:"room_id" binding:"required,gt=0"`
	CustomerID      int64     `json:"customer_id" binding:"gte=0"`
	StartTime       time.Time `json:"start_time" binding:"required"`
	EndTime         time.Time `json:"end_time" binding:"required"`
	Participants    int       `json:"participants" binding:"required,gt=0"`
	SpecialRequests string    `json:"special_requests" binding:"max=1000"`
	PromotionCode   string    `json:"promotion_code" binding:"max=64"`
}

type ConfirmPaymentRequest struct {
	Provider   string  `json:"provider" binding:"required,max=64"`
	PaymentRef string  `json:"payment_ref" binding:"required,max=128"`
	Amount     float64 `json:"amount" binding:"gte=0"`
	Currency   string  `json:"currency" binding:"required,len=3"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

type RescheduleRequest struct {
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
}

type QuoteRequest struct {
	RoomID        int64     `json:"room_id" binding:"required,gt=0"`
	StartTime     time.Time `json:"start_time" binding:"required"`
	EndTime       time.Time `json:"end_time" binding:"required"`
	Participants  int       `json:"participants" binding:"required,gt=0"`
	PromotionCode string    `json:"promotion_code" binding:"max=64"`
}

type QuoteResponse struct {
	*pricing.Quote
	PromotionCode  string  `json:"promotion_code,omitempty"`
	DiscountAmount float64 `json:"discount_amount"`
}

type BlockSlotRequest struct {
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
	Reason    string    `json:"reason" binding:"required,max=255"`
}
