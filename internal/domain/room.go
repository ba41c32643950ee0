package domain

import "time"

type Room struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	OwnerID     int64     `json:"owner_id" gorm:"index;not null"`
	Name        string    `json:"name" gorm:"size:255;not null" validate:"required"`
	Description string    `json:"description,omitempty" gorm:"type:text"`
	Capacity    int       `json:"capacity" gorm:"not null" validate:"required,gt=0"`
	HourlyRate  float64   `json:"hourly_rate" gorm:"not null" validate:"gte=0"`
	DailyRate   float64   `json:"daily_rate,omitempty" validate:"gte=0"`
	MonthlyRate float64   `json:"monthly_rate,omitempty" validate:"gte=0"`
	Currency    string    `json:"currency" gorm:"size:3;not null" validate:"required,len=3"`
	IsActive    bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
