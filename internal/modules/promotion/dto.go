package promotion

import (
	"time"

	"coworking/internal/domain"
)

type GenerateRequest struct {
	Code          string              `json:"code" validate:"omitempty,min=3,max=64"`
	Description   string              `json:"description" validate:"max=500"`
	DiscountType  domain.DiscountType `json:"discount_type" validate:"required,oneof=percentage fixed"`
	DiscountValue float64             `json:"discount_value" validate:"gt=0"`
	MinimumAmount float64             `json:"minimum_amount" validate:"gte=0"`
	StartDate     time.Time           `json:"start_date" validate:"required"`
	EndDate       time.Time           `json:"end_date" validate:"required,gtfield=StartDate"`
	UsageLimit    int                 `json:"usage_limit" validate:"required,gt=0"`
}
