package payment

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pointwallet/pointwallet/internal/ledger"
	"github.com/pointwallet/pointwallet/internal/member"
)

func newTestMember(t *testing.T, led ledger.Ledger) (*member.Service, member.Member) {
	t.Helper()
	members := member.NewService(member.NewMemoryRepository(), led)
	m, err := members.Register(context.Background(), member.Credentials{
		Email:    "a@example.com",
		Password: "s3cret-pw",
		Nickname: "alice",
	})
	if err != nil {
		t.Fatalf("register member: %v", err)
	}
	return members, m
}

func TestVerifyAndCredit(t *testing.T) {
	ctx := context.Background()
	led := ledger.NewInMemory()
	members, m := newTestMember(t, led)
	gateway := NewStaticGateway()
	gateway.Approve("pay-1", 10_000, "10000 points")

	svc := NewService(NewMemoryRepository(led), members, gateway, nil)

	res, err := svc.VerifyAndCredit(ctx, VerifyInput{MemberID: m.ID, PaymentID: "pay-1", OrderID: "order-1", Amount: 10_000})
	if err != nil {
		t.Fatalf("verify and credit: %v", err)
	}
	if res.Balance != 10_000 {
		t.Fatalf("expected balance 10000, got %d", res.Balance)
	}
	if res.Payment.Status != StatusPaid {
		t.Fatalf("expected status PAID, got %s", res.Payment.Status)
	}
	if res.Payment.OrderName != "10000 points" {
		t.Fatalf("expected gateway order name, got %q", res.Payment.OrderName)
	}

	entries, err := led.History(ctx, m.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 1 || entries[0].Kind != ledger.KindCharge || entries[0].Amount != 10_000 {
		t.Fatalf("expected one CHARGE entry of 10000, got %+v", entries)
	}
}

func TestVerifyAndCreditDuplicateOrder(t *testing.T) {
	ctx := context.Background()
	led := ledger.NewInMemory()
	members, m := newTestMember(t, led)
	gateway := NewStaticGateway()
	gateway.Approve("pay-1", 5_000, "")

	svc := NewService(NewMemoryRepository(led), members, gateway, nil)

	input := VerifyInput{MemberID: m.ID, PaymentID: "pay-1", OrderID: "order-1", Amount: 5_000}
	if _, err := svc.VerifyAndCredit(ctx, input); err != nil {
		t.Fatalf("first verify: %v", err)
	}
	if _, err := svc.VerifyAndCredit(ctx, input); !errors.Is(err, ErrDuplicatePayment) {
		t.Fatalf("expected duplicate payment, got %v", err)
	}

	// The ledger must have been credited exactly once.
	balance, err := led.Balance(ctx, m.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 5_000 {
		t.Fatalf("expected single credit of 5000, got balance %d", balance)
	}
}

func TestVerifyAndCreditRacingDuplicates(t *testing.T) {
	ctx := context.Background()
	led := ledger.NewInMemory()
	members, m := newTestMember(t, led)
	gateway := NewStaticGateway()
	gateway.Approve("pay-1", 5_000, "")

	svc := NewService(NewMemoryRepository(led), members, gateway, nil)

	// All workers race the same order; the store must admit exactly one.
	const workers = 16
	input := VerifyInput{MemberID: m.ID, PaymentID: "pay-1", OrderID: "order-1", Amount: 5_000}

	var wg sync.WaitGroup
	var successes, duplicates atomic.Int64
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.VerifyAndCredit(ctx, input)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, ErrDuplicatePayment):
				duplicates.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes.Load() != 1 {
		t.Fatalf("expected exactly 1 success, got %d", successes.Load())
	}
	if duplicates.Load() != workers-1 {
		t.Fatalf("expected %d duplicates, got %d", workers-1, duplicates.Load())
	}

	balance, err := led.Balance(ctx, m.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 5_000 {
		t.Fatalf("racing duplicates must credit once: balance %d", balance)
	}
}

func TestVerifyAndCreditDuplicatePaymentID(t *testing.T) {
	ctx := context.Background()
	led := ledger.NewInMemory()
	members, m := newTestMember(t, led)
	gateway := NewStaticGateway()
	gateway.Approve("pay-1", 5_000, "")

	svc := NewService(NewMemoryRepository(led), members, gateway, nil)

	if _, err := svc.VerifyAndCredit(ctx, VerifyInput{MemberID: m.ID, PaymentID: "pay-1", OrderID: "order-1", Amount: 5_000}); err != nil {
		t.Fatalf("first verify: %v", err)
	}
	// Same gateway payment claimed under a fresh order identifier.
	if _, err := svc.VerifyAndCredit(ctx, VerifyInput{MemberID: m.ID, PaymentID: "pay-1", OrderID: "order-2", Amount: 5_000}); !errors.Is(err, ErrDuplicatePayment) {
		t.Fatalf("expected duplicate payment, got %v", err)
	}
}

func TestVerifyAndCreditAmountMismatch(t *testing.T) {
	ctx := context.Background()
	led := ledger.NewInMemory()
	members, m := newTestMember(t, led)
	gateway := NewStaticGateway()
	gateway.Approve("pay-1", 9_999, "")

	svc := NewService(NewMemoryRepository(led), members, gateway, nil)

	_, err := svc.VerifyAndCredit(ctx, VerifyInput{MemberID: m.ID, PaymentID: "pay-1", OrderID: "order-1", Amount: 10_000})
	if !errors.Is(err, ErrAmountMismatch) {
		t.Fatalf("expected amount mismatch, got %v", err)
	}

	balance, err := led.Balance(ctx, m.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("mismatched payment credited the ledger: balance %d", balance)
	}
	if _, err := svc.repo.FindByOrderID(ctx, "order-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("mismatched payment left a record: %v", err)
	}
}

func TestVerifyAndCreditNotCompleted(t *testing.T) {
	ctx := context.Background()
	led := ledger.NewInMemory()
	members, m := newTestMember(t, led)
	gateway := NewStaticGateway()
	gateway.mu.Lock()
	gateway.records["pay-1"] = Record{ID: "pay-1", Status: "FAILED", Total: 5_000}
	gateway.mu.Unlock()

	svc := NewService(NewMemoryRepository(led), members, gateway, nil)

	_, err := svc.VerifyAndCredit(ctx, VerifyInput{MemberID: m.ID, PaymentID: "pay-1", OrderID: "order-1", Amount: 5_000})
	if !errors.Is(err, ErrPaymentNotCompleted) {
		t.Fatalf("expected payment not completed, got %v", err)
	}
}

func TestVerifyAndCreditLookupFailure(t *testing.T) {
	ctx := context.Background()
	led := ledger.NewInMemory()
	members, m := newTestMember(t, led)

	// Empty static gateway: every lookup fails.
	svc := NewService(NewMemoryRepository(led), members, NewStaticGateway(), nil)

	_, err := svc.VerifyAndCredit(ctx, VerifyInput{MemberID: m.ID, PaymentID: "pay-1", OrderID: "order-1", Amount: 5_000})
	if !errors.Is(err, ErrPaymentLookupFailed) {
		t.Fatalf("expected lookup failure, got %v", err)
	}
}

func TestVerifyAndCreditUnknownMember(t *testing.T) {
	ctx := context.Background()
	led := ledger.NewInMemory()
	members, _ := newTestMember(t, led)
	gateway := NewStaticGateway()
	gateway.Approve("pay-1", 5_000, "")

	svc := NewService(NewMemoryRepository(led), members, gateway, nil)

	_, err := svc.VerifyAndCredit(ctx, VerifyInput{MemberID: "nobody", PaymentID: "pay-1", OrderID: "order-1", Amount: 5_000})
	if !errors.Is(err, member.ErrNotFound) {
		t.Fatalf("expected member not found, got %v", err)
	}
}

func TestCancelForwardOnly(t *testing.T) {
	ctx := context.Background()
	led := ledger.NewInMemory()
	members, m := newTestMember(t, led)
	gateway := NewStaticGateway()
	gateway.Approve("pay-1", 5_000, "")

	repo := NewMemoryRepository(led)
	svc := NewService(repo, members, gateway, nil)

	if _, err := svc.VerifyAndCredit(ctx, VerifyInput{MemberID: m.ID, PaymentID: "pay-1", OrderID: "order-1", Amount: 5_000}); err != nil {
		t.Fatalf("verify: %v", err)
	}

	if err := svc.Cancel(ctx, m.ID, "order-1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := svc.Cancel(ctx, m.ID, "order-1"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition on second cancel, got %v", err)
	}
}

func TestCancelRejectsForeignOrder(t *testing.T) {
	ctx := context.Background()
	led := ledger.NewInMemory()
	members, m := newTestMember(t, led)
	gateway := NewStaticGateway()
	gateway.Approve("pay-1", 5_000, "")

	repo := NewMemoryRepository(led)
	svc := NewService(repo, members, gateway, nil)

	if _, err := svc.VerifyAndCredit(ctx, VerifyInput{MemberID: m.ID, PaymentID: "pay-1", OrderID: "order-1", Amount: 5_000}); err != nil {
		t.Fatalf("verify: %v", err)
	}

	if err := svc.Cancel(ctx, "someone-else", "order-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for foreign order, got %v", err)
	}

	// The record is untouched.
	p, err := repo.FindByOrderID(ctx, "order-1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if p.Status != StatusPaid {
		t.Fatalf("expected status PAID after rejected cancel, got %s", p.Status)
	}
}
