package domain

import "time"

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Promotion is a discount code. OwnerID nil means the code is global.
// Percentage values are fractions in (0, 1].
type Promotion struct {
	ID            int64        `json:"id" gorm:"primaryKey"`
	Code          string       `json:"code" gorm:"size:64;uniqueIndex;not null"`
	Description   string       `json:"description,omitempty" gorm:"type:text"`
	DiscountType  DiscountType `json:"discount_type" gorm:"size:16;not null"`
	DiscountValue float64      `json:"discount_value" gorm:"not null"`
	MinimumAmount float64      `json:"minimum_amount" gorm:"not null;default:0"`
	StartDate     time.Time    `json:"start_date" gorm:"not null"`
	EndDate       time.Time    `json:"end_date" gorm:"not null"`
	UsageLimit    int          `json:"usage_limit" gorm:"not null"`
	UsedCount     int          `json:"used_count" gorm:"not null;default:0"`
	IsActive      bool         `json:"is_active" gorm:"not null;default:false"`
	OwnerID       *int64       `json:"owner_id,omitempty" gorm:"index"`
	CreatedBy     int64        `json:"created_by"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

func (p *Promotion) Global() bool { return p.OwnerID == nil }

type PromotionUsage struct {
	ID             int64     `json:"id" gorm:"primaryKey"`
	PromotionID    int64     `json:"promotion_id" gorm:"index;not null"`
	BookingID      int64     `json:"booking_id" gorm:"uniqueIndex;not null"`
	UserID         int64     `json:"user_id" gorm:"index;not null"`
	DiscountAmount float64   `json:"discount_amount" gorm:"not null"`
	UsedAt         time.Time `json:"used_at" gorm:"not null"`
}
