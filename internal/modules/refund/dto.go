package refund

type CreateRefundRequest struct {
	BookingID int64  `json:"booking_id" binding:"required"`
	Notes     string `json:"notes"`
}

type DecisionRequest struct {
	Approve *bool  `json:"approve" binding:"required"`
	Notes   string `json:"notes"`
}
