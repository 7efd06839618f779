package routes

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/pointwallet/pointwallet/internal/ledger"
)

func newWalletApp(t *testing.T, memberID string) (*fiber.App, ledger.Ledger) {
	t.Helper()
	led := ledger.NewInMemory()
	if err := led.Ensure(context.Background(), memberID); err != nil {
		t.Fatalf("ensure member: %v", err)
	}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", memberID)
		return c.Next()
	})
	RegisterWalletRoutes(app, NewWalletHandler(led))
	return app, led
}

func postJSON(t *testing.T, app *fiber.App, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test %s: %v", path, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp.StatusCode, decoded
}

func TestWalletChargeThenUse(t *testing.T) {
	app, led := newWalletApp(t, "member-a")

	status, body := postJSON(t, app, "/wallet/charge", `{"amount":1000}`)
	if status != fiber.StatusCreated {
		t.Fatalf("charge: expected %d got %d", fiber.StatusCreated, status)
	}
	if got := body["balance"].(float64); got != 1000 {
		t.Fatalf("charge: expected balance 1000, got %v", got)
	}

	status, body = postJSON(t, app, "/wallet/use", `{"amount":400}`)
	if status != fiber.StatusOK {
		t.Fatalf("use: expected %d got %d", fiber.StatusOK, status)
	}
	if got := body["balance"].(float64); got != 600 {
		t.Fatalf("use: expected balance 600, got %v", got)
	}

	entries, err := led.History(context.Background(), "member-a")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Kind != ledger.KindUse || entries[0].Amount != -400 {
		t.Fatalf("expected newest entry USE -400, got %+v", entries[0])
	}
	if entries[1].Kind != ledger.KindCharge || entries[1].Amount != 1000 {
		t.Fatalf("expected CHARGE +1000, got %+v", entries[1])
	}
}

func TestWalletUseInsufficientFunds(t *testing.T) {
	app, led := newWalletApp(t, "member-a")

	status, _ := postJSON(t, app, "/wallet/use", `{"amount":500}`)
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected %d got %d", fiber.StatusBadRequest, status)
	}

	balance, err := led.Balance(context.Background(), "member-a")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("rejected use must not touch the balance, got %d", balance)
	}
}

func TestWalletChargeRejectsNonPositiveAmount(t *testing.T) {
	app, _ := newWalletApp(t, "member-a")

	for _, body := range []string{`{"amount":0}`, `{"amount":-100}`} {
		if status, _ := postJSON(t, app, "/wallet/charge", body); status != fiber.StatusBadRequest {
			t.Fatalf("expected %d for body %s, got %d", fiber.StatusBadRequest, body, status)
		}
	}
}
