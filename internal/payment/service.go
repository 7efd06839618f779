package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pointwallet/pointwallet/internal/member"
	"github.com/pointwallet/pointwallet/internal/notification"
)

var (
	// ErrPaymentLookupFailed occurs when the gateway is unreachable or its
	// response is malformed. Never retried within the call; surfaced as-is.
	ErrPaymentLookupFailed = errors.New("payment lookup failed")

	// ErrPaymentNotCompleted occurs when the gateway reports any status other
	// than PAID for the claimed payment.
	ErrPaymentNotCompleted = errors.New("payment not completed")

	// ErrAmountMismatch occurs when the gateway-reported total differs from
	// the claimed amount.
	ErrAmountMismatch = errors.New("payment amount mismatch")
)

// Service validates inbound payment claims against the gateway and credits
// the wallet ledger exactly once per order.
type Service struct {
	repo     Repository
	members  *member.Service
	gateway  Gateway
	notifier notification.Notifier
}

// NewService constructs a payment intake service.
func NewService(repo Repository, members *member.Service, gateway Gateway, notifier notification.Notifier) *Service {
	if gateway == nil {
		gateway = NewStaticGateway()
	}
	return &Service{repo: repo, members: members, gateway: gateway, notifier: notifier}
}

// VerifyInput captures an inbound payment claim.
type VerifyInput struct {
	MemberID  string
	PaymentID string
	OrderID   string
	Amount    int64
}

// VerifyResult describes the outcome of a verified and credited payment.
type VerifyResult struct {
	Payment     Payment
	Balance     int64
	CompletedAt time.Time
}

// VerifyAndCredit checks the claim against the gateway, persists a PAID
// record and credits the ledger as one atomic unit. The gateway call happens
// before the atomic unit and never holds the member's balance lock.
func (s *Service) VerifyAndCredit(ctx context.Context, input VerifyInput) (VerifyResult, error) {
	if input.Amount <= 0 {
		return VerifyResult{}, fmt.Errorf("amount must be positive")
	}
	if input.PaymentID == "" || input.OrderID == "" {
		return VerifyResult{}, fmt.Errorf("payment id and order id are required")
	}

	if _, err := s.repo.FindByOrderID(ctx, input.OrderID); err == nil {
		return VerifyResult{}, ErrDuplicatePayment
	} else if !errors.Is(err, ErrNotFound) {
		return VerifyResult{}, err
	}

	m, err := s.members.Get(ctx, input.MemberID)
	if err != nil {
		return VerifyResult{}, err
	}

	rec, err := s.gateway.Lookup(ctx, input.PaymentID)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("%w: %v", ErrPaymentLookupFailed, err)
	}

	if rec.Status != GatewayStatusPaid {
		return VerifyResult{}, fmt.Errorf("%w: gateway status %q", ErrPaymentNotCompleted, rec.Status)
	}
	if rec.Total != input.Amount {
		return VerifyResult{}, fmt.Errorf("%w: claimed %d, actual %d", ErrAmountMismatch, input.Amount, rec.Total)
	}

	record := Payment{
		MemberID:  m.ID,
		PaymentID: input.PaymentID,
		OrderID:   input.OrderID,
		Amount:    input.Amount,
		OrderName: rec.OrderName,
		Status:    StatusPaid,
	}
	balance, err := s.repo.CreatePaid(ctx, record)
	if err != nil {
		return VerifyResult{}, err
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindPaymentCredited,
			Destination: m.ID,
			Body:        fmt.Sprintf("%d points charged for order %s", input.Amount, input.OrderID),
		})
	}

	return VerifyResult{Payment: record, Balance: balance, CompletedAt: time.Now().UTC()}, nil
}

// Cancel tags the member's payment as CANCELLED. Transitions are forward-only
// and balances are untouched. Orders owned by another member report ErrNotFound
// rather than revealing they exist.
func (s *Service) Cancel(ctx context.Context, memberID, orderID string) error {
	p, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		return err
	}
	if p.MemberID != memberID {
		return ErrNotFound
	}
	return s.repo.UpdateStatus(ctx, orderID, StatusCancelled)
}
