package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// account carries one member's balance and history under its own lock, so
// concurrent operations on different members never contend.
type account struct {
	mu      sync.Mutex
	balance int64
	entries []Entry
}

type inMemoryLedger struct {
	mu       sync.RWMutex
	accounts map[string]*account
}

// NewInMemory creates a concurrency-safe in-memory ledger useful for unit
// tests and development mode. The outer lock only guards the account map;
// each read-modify-write holds the per-member lock.
func NewInMemory() Ledger {
	return &inMemoryLedger{accounts: make(map[string]*account)}
}

func (l *inMemoryLedger) Ensure(_ context.Context, memberID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.accounts[memberID]; !exists {
		l.accounts[memberID] = &account{}
	}
	return nil
}

func (l *inMemoryLedger) account(memberID string) (*account, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	acct, ok := l.accounts[memberID]
	if !ok {
		return nil, ErrMemberNotFound
	}
	return acct, nil
}

func (l *inMemoryLedger) Balance(_ context.Context, memberID string) (int64, error) {
	acct, err := l.account(memberID)
	if err != nil {
		return 0, err
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()
	return acct.balance, nil
}

func (l *inMemoryLedger) Credit(_ context.Context, memberID string, amount int64, kind Kind) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}
	return l.apply(memberID, amount, kind)
}

func (l *inMemoryLedger) Debit(_ context.Context, memberID string, amount int64, kind Kind) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}
	return l.apply(memberID, -amount, kind)
}

func (l *inMemoryLedger) apply(memberID string, delta int64, kind Kind) (int64, error) {
	acct, err := l.account(memberID)
	if err != nil {
		return 0, err
	}

	acct.mu.Lock()
	defer acct.mu.Unlock()

	newBalance := acct.balance + delta
	if newBalance < 0 {
		return 0, fmt.Errorf("%w: requested %d, available %d", ErrInsufficientFunds, -delta, acct.balance)
	}

	acct.balance = newBalance
	acct.entries = append(acct.entries, Entry{
		ID:        uuid.NewString(),
		MemberID:  memberID,
		Amount:    delta,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	})
	return newBalance, nil
}

func (l *inMemoryLedger) History(_ context.Context, memberID string) ([]Entry, error) {
	acct, err := l.account(memberID)
	if err != nil {
		return nil, err
	}

	acct.mu.Lock()
	defer acct.mu.Unlock()

	// Entries append in creation order; return a newest-first copy.
	out := make([]Entry, 0, len(acct.entries))
	for i := len(acct.entries) - 1; i >= 0; i-- {
		out = append(out, acct.entries[i])
	}
	return out, nil
}
