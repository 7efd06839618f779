package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// maxAttempts bounds the internal retry budget for transient write conflicts.
const maxAttempts = 3

// PostgresLedger persists balances and history entries in PostgreSQL.
//
// Expected schema:
//
//	members         (id uuid PK, balance bigint NOT NULL DEFAULT 0, ...)
//	point_histories (id uuid PK, member_id uuid REFERENCES members, amount bigint NOT NULL,
//	                 kind text NOT NULL, created_at timestamptz NOT NULL DEFAULT now())
//
// Each mutation locks the member row (SELECT ... FOR UPDATE) for the span of
// the read-modify-write, so operations on the same member serialize while
// different members proceed on separate row locks.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// Ensure verifies the member row backing the ledger account exists.
func (l *PostgresLedger) Ensure(ctx context.Context, memberID string) error {
	id, err := uuid.Parse(memberID)
	if err != nil {
		return ErrMemberNotFound
	}
	var exists bool
	if err := l.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM members WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrMemberNotFound
	}
	return nil
}

// Balance returns the member's current point balance.
func (l *PostgresLedger) Balance(ctx context.Context, memberID string) (int64, error) {
	id, err := uuid.Parse(memberID)
	if err != nil {
		return 0, ErrMemberNotFound
	}
	var balance int64
	if err := l.db.QueryRow(ctx, `SELECT balance FROM members WHERE id = $1`, id).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrMemberNotFound
		}
		return 0, err
	}
	return balance, nil
}

// Credit increases the balance and appends a +amount history entry atomically.
func (l *PostgresLedger) Credit(ctx context.Context, memberID string, amount int64, kind Kind) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}
	return l.mutate(ctx, memberID, amount, kind)
}

// Debit decreases the balance and appends a -amount history entry atomically,
// failing with ErrInsufficientFunds when the balance cannot cover the amount.
func (l *PostgresLedger) Debit(ctx context.Context, memberID string, amount int64, kind Kind) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}
	return l.mutate(ctx, memberID, -amount, kind)
}

// mutate applies a signed delta inside its own transaction, retrying transient
// serialization and deadlock failures before giving up.
func (l *PostgresLedger) mutate(ctx context.Context, memberID string, delta int64, kind Kind) (int64, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		balance, err := l.mutateOnce(ctx, memberID, delta, kind)
		if err == nil {
			return balance, nil
		}
		if !errors.Is(err, ErrWriteConflict) {
			return 0, err
		}
		lastErr = err
	}
	return 0, lastErr
}

func (l *PostgresLedger) mutateOnce(ctx context.Context, memberID string, delta int64, kind Kind) (int64, error) {
	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	balance, err := applyDelta(ctx, tx, memberID, delta, kind)
	if err != nil {
		return 0, classify(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, classify(err)
	}
	return balance, nil
}

// CreditInTx posts a credit within a caller-managed transaction. It exists so
// flows that must commit a credit together with their own writes (payment
// intake) can share one atomic unit while the ledger remains the only author
// of balance and history SQL.
func (l *PostgresLedger) CreditInTx(ctx context.Context, tx pgx.Tx, memberID string, amount int64, kind Kind) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}
	return applyDelta(ctx, tx, memberID, amount, kind)
}

func applyDelta(ctx context.Context, tx pgx.Tx, memberID string, delta int64, kind Kind) (int64, error) {
	id, err := uuid.Parse(memberID)
	if err != nil {
		return 0, ErrMemberNotFound
	}

	var balance int64
	if err := tx.QueryRow(ctx, `SELECT balance FROM members WHERE id = $1 FOR UPDATE`, id).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrMemberNotFound
		}
		return 0, err
	}

	newBalance := balance + delta
	if newBalance < 0 {
		return 0, fmt.Errorf("%w: requested %d, available %d", ErrInsufficientFunds, -delta, balance)
	}

	if _, err := tx.Exec(ctx, `UPDATE members SET balance = $1 WHERE id = $2`, newBalance, id); err != nil {
		return 0, err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO point_histories (id, member_id, amount, kind) VALUES ($1, $2, $3, $4)`,
		uuid.New(), id, delta, string(kind)); err != nil {
		return 0, err
	}

	return newBalance, nil
}

// History returns the member's entries ordered by creation time, newest first.
func (l *PostgresLedger) History(ctx context.Context, memberID string) ([]Entry, error) {
	id, err := uuid.Parse(memberID)
	if err != nil {
		return nil, ErrMemberNotFound
	}

	rows, err := l.db.Query(ctx, `SELECT id, member_id, amount, kind, created_at
        FROM point_histories WHERE member_id = $1 ORDER BY created_at DESC, id DESC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var (
			entryID  uuid.UUID
			memberID uuid.UUID
			entry    Entry
			kind     string
		)
		if err := rows.Scan(&entryID, &memberID, &entry.Amount, &kind, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.ID = entryID.String()
		entry.MemberID = memberID.String()
		entry.Kind = Kind(kind)
		entry.CreatedAt = entry.CreatedAt.UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// No rows covers both an idle member and an unknown one; only the former
	// yields an empty history.
	if len(entries) == 0 {
		if err := l.Ensure(ctx, memberID); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// classify maps transient Postgres failures (serialization aborts, deadlocks)
// to ErrWriteConflict so mutate can retry them.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return fmt.Errorf("%w: %s", ErrWriteConflict, pgErr.Code)
		}
	}
	return err
}
