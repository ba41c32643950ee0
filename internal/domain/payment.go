package domain

import "time"

type Payment struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	BookingID int64     `json:"booking_id" gorm:"index;not null"`
	Provider  string    `json:"provider" gorm:"size:64;not null;uniqueIndex:idx_payment_provider_ref"`
	Reference string    `json:"reference" gorm:"size:128;not null;uniqueIndex:idx_payment_provider_ref"`
	Amount    float64   `json:"amount" gorm:"not null"`
	Currency  string    `json:"currency" gorm:"size:3;not null"`
	PaidAt    time.Time `json:"paid_at" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}
