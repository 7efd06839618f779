package routes

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pointwallet/pointwallet/internal/ledger"
)

// WalletHandler serves the authenticated member's balance and point history.
type WalletHandler struct {
	ledger ledger.Ledger
}

// NewWalletHandler builds a WalletHandler backed by the given ledger.
func NewWalletHandler(l ledger.Ledger) *WalletHandler {
	return &WalletHandler{ledger: l}
}

type mutateRequest struct {
	Amount int64 `json:"amount"`
}

type historyEntry struct {
	ID        string    `json:"id"`
	Amount    int64     `json:"amount"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// Balance handles GET /wallet/balance.
func (h *WalletHandler) Balance(c *fiber.Ctx) error {
	memberID, _ := c.Locals("user_id").(string)

	balance, err := h.ledger.Balance(c.UserContext(), memberID)
	if err != nil {
		if errors.Is(err, ledger.ErrMemberNotFound) {
			return fiber.NewError(http.StatusNotFound, "member not found")
		}
		return fiber.NewError(http.StatusInternalServerError, "balance lookup failed")
	}

	return c.JSON(fiber.Map{"member_id": memberID, "balance": balance})
}

// History handles GET /wallet/history. Entries come back newest first.
func (h *WalletHandler) History(c *fiber.Ctx) error {
	memberID, _ := c.Locals("user_id").(string)

	entries, err := h.ledger.History(c.UserContext(), memberID)
	if err != nil {
		if errors.Is(err, ledger.ErrMemberNotFound) {
			return fiber.NewError(http.StatusNotFound, "member not found")
		}
		return fiber.NewError(http.StatusInternalServerError, "history lookup failed")
	}

	out := make([]historyEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyEntry{
			ID:        e.ID,
			Amount:    e.Amount,
			Kind:      string(e.Kind),
			CreatedAt: e.CreatedAt,
		})
	}

	return c.JSON(fiber.Map{"member_id": memberID, "entries": out})
}

// Charge handles POST /wallet/charge, crediting points directly onto the
// authenticated member's balance.
func (h *WalletHandler) Charge(c *fiber.Ctx) error {
	memberID, _ := c.Locals("user_id").(string)

	var req mutateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Amount <= 0 {
		return fiber.NewError(http.StatusBadRequest, "amount must be positive")
	}

	balance, err := h.ledger.Credit(c.UserContext(), memberID, req.Amount, ledger.KindCharge)
	if err != nil {
		if errors.Is(err, ledger.ErrMemberNotFound) {
			return fiber.NewError(http.StatusNotFound, "member not found")
		}
		return fiber.NewError(http.StatusInternalServerError, "charge failed")
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{"member_id": memberID, "balance": balance})
}

// Use handles POST /wallet/use, spending points from the authenticated
// member's balance.
func (h *WalletHandler) Use(c *fiber.Ctx) error {
	memberID, _ := c.Locals("user_id").(string)

	var req mutateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Amount <= 0 {
		return fiber.NewError(http.StatusBadRequest, "amount must be positive")
	}

	balance, err := h.ledger.Debit(c.UserContext(), memberID, req.Amount, ledger.KindUse)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrMemberNotFound):
			return fiber.NewError(http.StatusNotFound, "member not found")
		case errors.Is(err, ledger.ErrInsufficientFunds):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, "use failed")
		}
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{"member_id": memberID, "balance": balance})
}

// RegisterWalletRoutes wires wallet endpoints for the authenticated member.
func RegisterWalletRoutes(r fiber.Router, h *WalletHandler) {
	group := r.Group("/wallet")
	group.Get("/balance", h.Balance)
	group.Get("/history", h.History)
	group.Post("/charge", h.Charge)
	group.Post("/use", h.Use)
}
