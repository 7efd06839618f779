package payment

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pointwallet/pointwallet/internal/ledger"
)

type memoryRepository struct {
	mu          sync.Mutex
	ledger      ledger.Ledger
	byOrderID   map[string]Payment
	byPaymentID map[string]string
}

// NewMemoryRepository builds an in-memory payment store for tests and
// development mode. The repository lock spans the duplicate check, the insert
// and the ledger credit, mirroring the transactional unit of the Postgres
// implementation.
func NewMemoryRepository(l ledger.Ledger) Repository {
	return &memoryRepository{
		ledger:      l,
		byOrderID:   make(map[string]Payment),
		byPaymentID: make(map[string]string),
	}
}

func (r *memoryRepository) FindByOrderID(_ context.Context, orderID string) (Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byOrderID[orderID]
	if !ok {
		return Payment{}, ErrNotFound
	}
	return p, nil
}

func (r *memoryRepository) FindByPaymentID(_ context.Context, paymentID string) (Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	orderID, ok := r.byPaymentID[paymentID]
	if !ok {
		return Payment{}, ErrNotFound
	}
	return r.byOrderID[orderID], nil
}

func (r *memoryRepository) CreatePaid(ctx context.Context, p Payment) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byOrderID[p.OrderID]; exists {
		return 0, ErrDuplicatePayment
	}
	if _, exists := r.byPaymentID[p.PaymentID]; exists {
		return 0, ErrDuplicatePayment
	}

	// Credit before storing: a failed credit leaves no record behind.
	balance, err := r.ledger.Credit(ctx, p.MemberID, p.Amount, ledger.KindCharge)
	if err != nil {
		return 0, err
	}

	p.ID = uuid.NewString()
	p.Status = StatusPaid
	p.CreatedAt = time.Now().UTC()
	r.byOrderID[p.OrderID] = p
	r.byPaymentID[p.PaymentID] = p.OrderID
	return balance, nil
}

func (r *memoryRepository) UpdateStatus(_ context.Context, orderID string, to Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byOrderID[orderID]
	if !ok {
		return ErrNotFound
	}
	if !p.Status.CanTransition(to) {
		return ErrInvalidTransition
	}
	p.Status = to
	r.byOrderID[orderID] = p
	return nil
}
