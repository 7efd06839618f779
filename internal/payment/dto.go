package payment

import "time"

// VerifyRequest captures the client's claim about a completed payment.
type VerifyRequest struct {
	PaymentID string `json:"payment_id"`
	OrderID   string `json:"order_id"`
	Amount    int64  `json:"amount"`
}

// VerifyResponse represents the API response for a verified payment.
type VerifyResponse struct {
	OrderID     string    `json:"order_id"`
	PaymentID   string    `json:"payment_id"`
	OrderName   string    `json:"order_name,omitempty"`
	Amount      int64     `json:"amount"`
	Status      string    `json:"status"`
	Balance     int64     `json:"balance"`
	CompletedAt time.Time `json:"completed_at"`
}
