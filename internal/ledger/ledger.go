package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrMemberNotFound occurs when the referenced member has no ledger account.
	ErrMemberNotFound = errors.New("member not found")

	// ErrInsufficientFunds occurs when the member's balance cannot cover a
	// requested debit. The balance is never allowed to go negative.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrWriteConflict marks a transient concurrency failure during a
	// read-modify-write of the balance. Backends retry these internally;
	// callers never observe this error on a healthy store.
	ErrWriteConflict = errors.New("ledger write conflict")
)

// Kind categorizes a balance mutation in the history trail.
type Kind string

const (
	// KindCharge is a credit funded by a verified external payment.
	KindCharge Kind = "CHARGE"
	// KindUse is a debit spending points, e.g. a game stake.
	KindUse Kind = "USE"
	// KindReward is a credit earned from a winning game round.
	KindReward Kind = "REWARD"
	// KindRefund is a credit restoring previously spent points.
	KindRefund Kind = "REFUND"
)

// Entry is one immutable line of a member's point history. Amount carries the
// sign: positive for credits, negative for debits.
type Entry struct {
	ID        string
	MemberID  string
	Amount    int64
	Kind      Kind
	CreatedAt time.Time
}

// Ledger defines the contract implemented by ledger backends (e.g. Postgres).
// Credit and Debit are each one atomic unit: the balance mutation and the
// matching history entry commit or fail together. Operations against the same
// member serialize; operations against different members proceed independently.
type Ledger interface {
	// Ensure guarantees a ledger account exists for the member.
	Ensure(ctx context.Context, memberID string) error
	// Balance returns the member's current point balance.
	Balance(ctx context.Context, memberID string) (int64, error)
	// Credit increases the balance by amount and appends a +amount entry.
	Credit(ctx context.Context, memberID string, amount int64, kind Kind) (int64, error)
	// Debit decreases the balance by amount and appends a -amount entry,
	// failing with ErrInsufficientFunds when the balance cannot cover it.
	Debit(ctx context.Context, memberID string, amount int64, kind Kind) (int64, error)
	// History returns the member's entries newest first. A member with no
	// activity yields an empty slice, not an error; an unknown member fails
	// with ErrMemberNotFound.
	History(ctx context.Context, memberID string) ([]Entry, error)
}
