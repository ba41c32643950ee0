package payment

// CallbackRequest is the gateway notification for a booking payment.
type CallbackRequest struct {
	OrderID   string `json:"orderId" binding:"required"`
	PaymentID string `json:"paymentId" binding:"required"`
	Status    string `json:"status" binding:"required"`
	Amount    string `json:"amount" binding:"required"`
	Currency  string `json:"currency" binding:"required"`
	Token     string `json:"token" binding:"required"`
}

func (r CallbackRequest) params() map[string]string {
	return map[string]string{
		"Amount":    r.Amount,
		"Currency":  r.Currency,
		"OrderId":   r.OrderID,
		"PaymentId": r.PaymentID,
		"Status":    r.Status,
	}
}
