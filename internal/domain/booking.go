package domain

import "time"

type Booking struct {
	ID              int64         `json:"id" gorm:"primaryKey"`
	Code            string        `json:"code" gorm:"size:32;uniqueIndex;not null"`
	CustomerID      int64         `json:"customer_id" gorm:"index;not null"`
	RoomID          int64         `json:"room_id" gorm:"index:idx_bookings_room_time;not null"`
	StartUTC        time.Time     `json:"start_utc" gorm:"column:start_time;index:idx_bookings_room_time;not null"`
	EndUTC          time.Time     `json:"end_utc" gorm:"column:end_time;not null"`
	Participants    int           `json:"participants" gorm:"not null"`
	SpecialRequests string        `json:"special_requests,omitempty" gorm:"type:text"`
	Notes           string        `json:"notes,omitempty" gorm:"type:text"`
	TotalPrice      float64       `json:"total_price" gorm:"not null"`
	TaxAmount       float64       `json:"tax_amount" gorm:"not null"`
	ServiceFee      float64       `json:"service_fee" gorm:"not null"`
	DiscountAmount  float64       `json:"discount_amount" gorm:"not null;default:0"`
	FinalAmount     float64       `json:"final_amount" gorm:"not null"`
	Currency        string        `json:"currency" gorm:"size:3;not null"`
	PromotionID     *int64        `json:"promotion_id,omitempty"`
	Status          BookingStatus `json:"status" gorm:"type:varchar(32);index;not null"`
	PaymentProvider string        `json:"payment_provider,omitempty" gorm:"size:64"`
	PaymentRef      *string       `json:"payment_ref,omitempty" gorm:"size:128"`
	CheckedInAt     *time.Time    `json:"checked_in_at,omitempty"`
	CheckedOutAt    *time.Time    `json:"checked_out_at,omitempty"`

	CancellationReason *string    `json:"cancellation_reason,omitempty" gorm:"type:text"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	FailureReason      string     `json:"failure_reason,omitempty" gorm:"type:text"`
	IsReviewed         bool       `json:"is_reviewed" gorm:"not null;default:false"`

	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Booking) Interval() Interval {
	return Interval{Start: b.StartUTC, End: b.EndUTC}
}

func (b *Booking) HasPaymentRef() bool {
	return b.PaymentRef != nil && *b.PaymentRef != ""
}

// BlockedTimeSlot is an interval on a room that no booking may overlap.
// BookingID is nil for owner-imposed manual blocks.
type BlockedTimeSlot struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	RoomID    int64     `json:"room_id" gorm:"index:idx_slots_room_time;not null"`
	StartUTC  time.Time `json:"start_utc" gorm:"column:start_time;index:idx_slots_room_time;not null"`
	EndUTC    time.Time `json:"end_utc" gorm:"column:end_time;not null"`
	Reason    string    `json:"reason" gorm:"size:255"`
	BookingID *int64    `json:"booking_id,omitempty" gorm:"index"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *BlockedTimeSlot) Interval() Interval {
	return Interval{Start: s.StartUTC, End: s.EndUTC}
}

func (s *BlockedTimeSlot) Manual() bool { return s.BookingID == nil }
