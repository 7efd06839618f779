package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/pointwallet/pointwallet/internal/ledger"
	"github.com/pointwallet/pointwallet/internal/notification"
)

// Pick is the player's call on the round outcome.
type Pick string

const (
	// PickOdd bets on an odd die value.
	PickOdd Pick = "ODD"
	// PickEven bets on an even die value.
	PickEven Pick = "EVEN"
)

const sides = 6

var (
	// ErrInvalidPick occurs when the call is neither ODD nor EVEN.
	ErrInvalidPick = errors.New("pick must be ODD or EVEN")

	// ErrPayoutFailed occurs when the winning credit fails after the stake
	// was already debited. The stake stays taken; the inconsistency is
	// surfaced to the caller instead of being swallowed.
	ErrPayoutFailed = errors.New("payout failed after stake debit")
)

// Die produces uniformly distributed rolls in [1, 6].
type Die interface {
	Roll() int
}

type randDie struct{}

func (randDie) Roll() int { return rand.IntN(sides) + 1 }

// NewDie returns the default uniform die.
func NewDie() Die { return randDie{} }

// Round reports the outcome of one wagering round. Its effect on the wallet
// is recorded entirely through ledger history entries.
type Round struct {
	Dice    int
	Outcome Pick
	Win     bool
	Payout  int64
	Balance int64
}

// Service orchestrates a single game round against the wallet ledger: debit
// the stake, resolve the outcome, conditionally credit the payout.
type Service struct {
	ledger   ledger.Ledger
	die      Die
	notifier notification.Notifier
}

// NewService constructs a wagering service. A nil die falls back to the
// default uniform source.
func NewService(ledgerBackend ledger.Ledger, die Die, notifier notification.Notifier) *Service {
	if die == nil {
		die = NewDie()
	}
	return &Service{ledger: ledgerBackend, die: die, notifier: notifier}
}

// PlayRound runs one round for the member. The stake debit and the payout
// credit are two independent ledger calls: the debit persists even when the
// round is lost, and a payout failure after a winning debit surfaces as
// ErrPayoutFailed rather than fabricating or silently dropping points.
func (s *Service) PlayRound(ctx context.Context, memberID string, bet int64, pick Pick) (Round, error) {
	if bet <= 0 {
		return Round{}, fmt.Errorf("bet amount must be positive")
	}
	if pick != PickOdd && pick != PickEven {
		return Round{}, ErrInvalidPick
	}

	// The round never starts without a successful stake debit.
	balance, err := s.ledger.Debit(ctx, memberID, bet, ledger.KindUse)
	if err != nil {
		return Round{}, err
	}

	dice := s.die.Roll()
	round := Round{Dice: dice, Outcome: classify(dice), Balance: balance}

	if round.Outcome != pick {
		return round, nil
	}

	payout := bet * 2
	balance, err = s.ledger.Credit(ctx, memberID, payout, ledger.KindReward)
	if err != nil {
		return round, fmt.Errorf("%w: stake %d taken, reward %d not applied: %v", ErrPayoutFailed, bet, payout, err)
	}
	round.Win = true
	round.Payout = payout
	round.Balance = balance

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindGameWin,
			Destination: memberID,
			Body:        fmt.Sprintf("won %d points on a roll of %d", payout, dice),
		})
	}

	return round, nil
}

func classify(dice int) Pick {
	if dice%2 != 0 {
		return PickOdd
	}
	return PickEven
}
