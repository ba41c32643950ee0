package domain

import "time"

type ApprovalSource string

const (
	ApprovedByOwner   ApprovalSource = "owner"
	ApprovedByTimeout ApprovalSource = "timeout"
)

// RefundRequest is one refund workflow instance for a confirmed booking.
// The amounts are frozen at request time.
type RefundRequest struct {
	ID             int64          `json:"id" gorm:"primaryKey"`
	BookingID      int64          `json:"booking_id" gorm:"index;not null"`
	RequestedBy    int64          `json:"requested_by" gorm:"not null"`
	OwnerID        int64          `json:"owner_id" gorm:"index;not null"`
	Status         RefundStatus   `json:"status" gorm:"type:varchar(32);index;not null"`
	ApprovalSource ApprovalSource `json:"approval_source,omitempty" gorm:"size:16"`
	RequestedAt    time.Time      `json:"requested_at" gorm:"not null"`
	OwnerDecidedAt *time.Time     `json:"owner_decided_at,omitempty"`
	ProcessedAt    *time.Time     `json:"processed_at,omitempty"`
	ProcessedBy    *int64         `json:"processed_by,omitempty"`
	StaffNotes     string         `json:"staff_notes,omitempty" gorm:"type:text"`
	OwnerNotes     string         `json:"owner_notes,omitempty" gorm:"type:text"`

	BasePrice        float64 `json:"base_price" gorm:"not null"`
	NonRefundableFee float64 `json:"non_refundable_fee" gorm:"not null"`
	RefundPercentage float64 `json:"refund_percentage" gorm:"not null"`
	RefundAmount     float64 `json:"calculated_refund_amount" gorm:"not null"`
	SystemCut        float64 `json:"system_cut" gorm:"not null"`
	Currency         string  `json:"currency" gorm:"size:3;not null"`

	GatewayTransactionID *string   `json:"gateway_transaction_id,omitempty" gorm:"size:128"`
	FailureReason        string    `json:"failure_reason,omitempty" gorm:"type:text"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}
