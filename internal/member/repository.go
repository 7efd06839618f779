package member

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound occurs when no member matches the lookup key.
	ErrNotFound = errors.New("member not found")

	// ErrDuplicateEmail occurs when the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrDuplicateNickname occurs when the nickname is already taken.
	ErrDuplicateNickname = errors.New("nickname already taken")
)

// Repository persists members. The core reads members through it; the balance
// column is mutated only by the ledger.
type Repository interface {
	Create(ctx context.Context, m Member) error
	FindByID(ctx context.Context, id string) (Member, error)
	FindByEmail(ctx context.Context, email string) (Member, error)
	ExistsByNickname(ctx context.Context, nickname string) (bool, error)
}

// PostgresRepository stores members in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a member record with a zero starting balance.
func (r *PostgresRepository) Create(ctx context.Context, m Member) error {
	memberID, err := uuid.Parse(m.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO members (id, email, nickname, password_hash, balance, created_at)
        VALUES ($1, $2, $3, $4, 0, $5)`, memberID, m.Email, m.Nickname, m.PasswordHash, m.CreatedAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if pgErr.ConstraintName == "members_nickname_key" {
				return ErrDuplicateNickname
			}
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// FindByID fetches a member by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (Member, error) {
	memberID, err := uuid.Parse(id)
	if err != nil {
		return Member{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, email, nickname, password_hash, balance, created_at
        FROM members WHERE id = $1`, memberID)
	return scanMember(row)
}

// FindByEmail fetches a member by email.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (Member, error) {
	row := r.db.QueryRow(ctx, `SELECT id, email, nickname, password_hash, balance, created_at
        FROM members WHERE email = $1`, email)
	return scanMember(row)
}

// ExistsByNickname reports whether the nickname is already in use.
func (r *PostgresRepository) ExistsByNickname(ctx context.Context, nickname string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM members WHERE nickname = $1)`, nickname).Scan(&exists)
	return exists, err
}

func scanMember(row pgx.Row) (Member, error) {
	var (
		id        uuid.UUID
		createdAt time.Time
		m         Member
	)
	if err := row.Scan(&id, &m.Email, &m.Nickname, &m.PasswordHash, &m.Balance, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Member{}, ErrNotFound
		}
		return Member{}, err
	}
	m.ID = id.String()
	m.CreatedAt = createdAt.UTC()
	return m, nil
}
