package payment

import (
	"errors"
	"time"
)

// Status tracks the lifecycle of a payment record.
type Status string

const (
	// StatusReady marks a payment requested but not yet verified.
	StatusReady Status = "READY"
	// StatusPaid marks a payment verified against the gateway.
	StatusPaid Status = "PAID"
	// StatusFailed marks a payment that failed verification.
	StatusFailed Status = "FAILED"
	// StatusCancelled tags a refunded or aborted payment.
	StatusCancelled Status = "CANCELLED"
)

// ErrInvalidTransition occurs on a backwards status change; transitions move
// forward only and a PAID order is never re-verified.
var ErrInvalidTransition = errors.New("invalid payment status transition")

var transitions = map[Status][]Status{
	StatusReady: {StatusPaid, StatusFailed, StatusCancelled},
	StatusPaid:  {StatusCancelled},
}

// CanTransition reports whether the status may move to the target state.
func (s Status) CanTransition(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Payment is the stored record of one externally-verified payment. PaymentID
// and OrderID are externally supplied and globally unique in the store.
type Payment struct {
	ID        string
	MemberID  string
	PaymentID string
	OrderID   string
	Amount    int64
	OrderName string
	Status    Status
	CreatedAt time.Time
}
