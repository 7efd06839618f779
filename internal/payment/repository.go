package payment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pointwallet/pointwallet/internal/ledger"
)

var (
	// ErrDuplicatePayment occurs when the order or payment identifier was
	// already processed. The store-level unique constraints are the
	// authoritative guard; concurrent duplicate submissions are rejected on
	// insert, not only by the service pre-check.
	ErrDuplicatePayment = errors.New("duplicate payment")

	// ErrNotFound occurs when no payment record matches the lookup key.
	ErrNotFound = errors.New("payment not found")
)

// Repository persists payment records. CreatePaid is one atomic unit: the
// record insert and the ledger credit commit or roll back together, so no
// payment is ever marked PAID without a matching credit.
type Repository interface {
	FindByOrderID(ctx context.Context, orderID string) (Payment, error)
	FindByPaymentID(ctx context.Context, paymentID string) (Payment, error)
	CreatePaid(ctx context.Context, p Payment) (int64, error)
	UpdateStatus(ctx context.Context, orderID string, to Status) error
}

// PostgresRepository stores payments in PostgreSQL.
//
// Expected schema:
//
//	payments (id uuid PK, member_id uuid REFERENCES members, payment_id text UNIQUE,
//	          order_id text UNIQUE, amount bigint NOT NULL, order_name text,
//	          status text NOT NULL, created_at timestamptz NOT NULL DEFAULT now())
type PostgresRepository struct {
	db     *pgxpool.Pool
	ledger *ledger.PostgresLedger
}

// NewPostgresRepository builds a repository backed by PostgreSQL. The ledger
// writes the credit inside the repository's transaction so it remains the
// sole author of balance and history SQL.
func NewPostgresRepository(db *pgxpool.Pool, l *ledger.PostgresLedger) *PostgresRepository {
	return &PostgresRepository{db: db, ledger: l}
}

// FindByOrderID fetches a payment by order identifier.
func (r *PostgresRepository) FindByOrderID(ctx context.Context, orderID string) (Payment, error) {
	row := r.db.QueryRow(ctx, `SELECT id, member_id, payment_id, order_id, amount, order_name, status, created_at
        FROM payments WHERE order_id = $1`, orderID)
	return scanPayment(row)
}

// FindByPaymentID fetches a payment by gateway payment identifier.
func (r *PostgresRepository) FindByPaymentID(ctx context.Context, paymentID string) (Payment, error) {
	row := r.db.QueryRow(ctx, `SELECT id, member_id, payment_id, order_id, amount, order_name, status, created_at
        FROM payments WHERE payment_id = $1`, paymentID)
	return scanPayment(row)
}

// CreatePaid inserts a PAID payment record and credits the ledger in one
// transaction, returning the new balance.
func (r *PostgresRepository) CreatePaid(ctx context.Context, p Payment) (int64, error) {
	memberID, err := uuid.Parse(p.MemberID)
	if err != nil {
		return 0, ledger.ErrMemberNotFound
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, `INSERT INTO payments (id, member_id, payment_id, order_id, amount, order_name, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.New(), memberID, p.PaymentID, p.OrderID, p.Amount, p.OrderName, string(StatusPaid)); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrDuplicatePayment
		}
		return 0, err
	}

	balance, err := r.ledger.CreditInTx(ctx, tx, p.MemberID, p.Amount, ledger.KindCharge)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return balance, nil
}

// UpdateStatus tags the payment with a new status, enforcing forward-only
// transitions under a row lock.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, orderID string, to Status) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	var current string
	if err := tx.QueryRow(ctx, `SELECT status FROM payments WHERE order_id = $1 FOR UPDATE`, orderID).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if !Status(current).CanTransition(to) {
		return ErrInvalidTransition
	}

	if _, err := tx.Exec(ctx, `UPDATE payments SET status = $1 WHERE order_id = $2`, string(to), orderID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func scanPayment(row pgx.Row) (Payment, error) {
	var (
		id        uuid.UUID
		memberID  uuid.UUID
		status    string
		createdAt time.Time
		p         Payment
	)
	if err := row.Scan(&id, &memberID, &p.PaymentID, &p.OrderID, &p.Amount, &p.OrderName, &status, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payment{}, ErrNotFound
		}
		return Payment{}, err
	}
	p.ID = id.String()
	p.MemberID = memberID.String()
	p.Status = Status(status)
	p.CreatedAt = createdAt.UTC()
	return p, nil
}
