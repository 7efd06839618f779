package member

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/pointwallet/pointwallet/internal/ledger"
)

// ErrInvalidCredentials occurs when email/password verification fails.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service manages member lifecycle. The wallet core only reads members from
// it; balances flow through the ledger.
type Service struct {
	repo   Repository
	ledger ledger.Ledger
}

// NewService creates a member service instance.
func NewService(repo Repository, ledgerBackend ledger.Ledger) *Service {
	return &Service{repo: repo, ledger: ledgerBackend}
}

// Register creates a member with a hashed password and an empty ledger account.
func (s *Service) Register(ctx context.Context, creds Credentials) (Member, error) {
	if len(creds.Password) < 8 {
		return Member{}, errors.New("password must be at least 8 characters")
	}

	if _, err := s.repo.FindByEmail(ctx, creds.Email); err == nil {
		return Member{}, ErrDuplicateEmail
	} else if !errors.Is(err, ErrNotFound) {
		return Member{}, err
	}
	taken, err := s.repo.ExistsByNickname(ctx, creds.Nickname)
	if err != nil {
		return Member{}, err
	}
	if taken {
		return Member{}, ErrDuplicateNickname
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return Member{}, err
	}

	m := Member{
		ID:           uuid.New().String(),
		Email:        creds.Email,
		Nickname:     creds.Nickname,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return Member{}, err
	}
	if err := s.ledger.Ensure(ctx, m.ID); err != nil {
		return Member{}, err
	}

	return m, nil
}

// Authenticate verifies email and password.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Member, error) {
	m, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Member{}, ErrInvalidCredentials
		}
		return Member{}, err
	}

	if err := bcrypt.CompareHashAndPassword(m.PasswordHash, []byte(password)); err != nil {
		return Member{}, ErrInvalidCredentials
	}

	return m, nil
}

// Get fetches member metadata by identifier.
func (s *Service) Get(ctx context.Context, id string) (Member, error) {
	return s.repo.FindByID(ctx, id)
}
