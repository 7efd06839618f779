package game

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/pointwallet/pointwallet/internal/ledger"
)

type fixedDie struct{ value int }

func (d fixedDie) Roll() int { return d.value }

func newFundedLedger(t *testing.T, memberID string, balance int64) ledger.Ledger {
	t.Helper()
	led := ledger.NewInMemory()
	if err := led.Ensure(context.Background(), memberID); err != nil {
		t.Fatalf("ensure member: %v", err)
	}
	if balance > 0 {
		if _, err := led.Credit(context.Background(), memberID, balance, ledger.KindCharge); err != nil {
			t.Fatalf("seed credit: %v", err)
		}
	}
	return led
}

func TestPlayRoundWin(t *testing.T) {
	ctx := context.Background()
	led := newFundedLedger(t, "member-a", 5_000)

	// Roll of 3 is ODD; the member picks ODD and wins.
	svc := NewService(led, fixedDie{3}, nil)

	round, err := svc.PlayRound(ctx, "member-a", 1_000, PickOdd)
	if err != nil {
		t.Fatalf("play round: %v", err)
	}
	if !round.Win || round.Dice != 3 || round.Outcome != PickOdd {
		t.Fatalf("unexpected round: %+v", round)
	}
	if round.Payout != 2_000 {
		t.Fatalf("expected payout 2000, got %d", round.Payout)
	}
	// Net effect of a winning 1000 bet is +1000.
	if round.Balance != 6_000 {
		t.Fatalf("expected balance 6000, got %d", round.Balance)
	}

	entries, err := led.History(ctx, "member-a")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries (charge, use, reward), got %d", len(entries))
	}
	if entries[0].Kind != ledger.KindReward || entries[0].Amount != 2_000 {
		t.Fatalf("expected newest entry REWARD +2000, got %+v", entries[0])
	}
	if entries[1].Kind != ledger.KindUse || entries[1].Amount != -1_000 {
		t.Fatalf("expected USE -1000 before the reward, got %+v", entries[1])
	}
}

func TestPlayRoundLoss(t *testing.T) {
	ctx := context.Background()
	led := newFundedLedger(t, "member-a", 5_000)

	// Roll of 4 is EVEN; the member picks ODD and loses.
	svc := NewService(led, fixedDie{4}, nil)

	round, err := svc.PlayRound(ctx, "member-a", 1_000, PickOdd)
	if err != nil {
		t.Fatalf("play round: %v", err)
	}
	if round.Win || round.Payout != 0 {
		t.Fatalf("expected loss with zero payout, got %+v", round)
	}
	if round.Outcome != PickEven {
		t.Fatalf("expected EVEN outcome, got %s", round.Outcome)
	}
	if round.Balance != 4_000 {
		t.Fatalf("expected balance 4000, got %d", round.Balance)
	}

	entries, err := led.History(ctx, "member-a")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("lost round must not credit: got %d entries", len(entries))
	}
	if entries[0].Kind != ledger.KindUse || entries[0].Amount != -1_000 {
		t.Fatalf("expected newest entry USE -1000, got %+v", entries[0])
	}
}

func TestPlayRoundInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	led := newFundedLedger(t, "member-a", 500)

	svc := NewService(led, fixedDie{3}, nil)

	_, err := svc.PlayRound(ctx, "member-a", 1_000, PickOdd)
	if !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	// The round never started: no debit, no history.
	balance, _ := led.Balance(ctx, "member-a")
	if balance != 500 {
		t.Fatalf("expected untouched balance 500, got %d", balance)
	}
	entries, _ := led.History(ctx, "member-a")
	if len(entries) != 1 {
		t.Fatalf("expected only the seed entry, got %d", len(entries))
	}
}

func TestPlayRoundInvalidPick(t *testing.T) {
	led := newFundedLedger(t, "member-a", 5_000)
	svc := NewService(led, fixedDie{3}, nil)

	if _, err := svc.PlayRound(context.Background(), "member-a", 1_000, Pick("SEVEN")); !errors.Is(err, ErrInvalidPick) {
		t.Fatalf("expected invalid pick, got %v", err)
	}
}

// creditFailLedger lets the debit through and fails the payout credit.
type creditFailLedger struct {
	ledger.Ledger
}

func (l creditFailLedger) Credit(ctx context.Context, memberID string, amount int64, kind ledger.Kind) (int64, error) {
	if kind == ledger.KindReward {
		return 0, fmt.Errorf("store unavailable")
	}
	return l.Ledger.Credit(ctx, memberID, amount, kind)
}

func TestPlayRoundPayoutFailureIsSurfaced(t *testing.T) {
	ctx := context.Background()
	led := newFundedLedger(t, "member-a", 5_000)

	svc := NewService(creditFailLedger{led}, fixedDie{3}, nil)

	_, err := svc.PlayRound(ctx, "member-a", 1_000, PickOdd)
	if !errors.Is(err, ErrPayoutFailed) {
		t.Fatalf("expected payout failure, got %v", err)
	}

	// The stake debit persists; only the reward is missing.
	balance, _ := led.Balance(ctx, "member-a")
	if balance != 4_000 {
		t.Fatalf("expected balance 4000 after failed payout, got %d", balance)
	}
}

func TestDefaultDieStaysInRange(t *testing.T) {
	die := NewDie()
	for i := 0; i < 1_000; i++ {
		if v := die.Roll(); v < 1 || v > 6 {
			t.Fatalf("roll out of range: %d", v)
		}
	}
}
