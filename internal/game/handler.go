package game

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pointwallet/pointwallet/internal/ledger"
	"github.com/pointwallet/pointwallet/internal/metrics"
)

// Handler exposes the wagering HTTP endpoint.
type Handler struct {
	service *Service
}

// NewHandler constructs a game handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Play runs one dice round for the authenticated member.
func (h *Handler) Play(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}

	var req PlayRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	started := time.Now()
	round, err := h.service.PlayRound(c.UserContext(), uid, req.BetAmount, Pick(req.Pick))
	if err != nil {
		metrics.RecordRound("error", started)
		switch {
		case errors.Is(err, ledger.ErrInsufficientFunds):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ledger.ErrMemberNotFound):
			return fiber.NewError(http.StatusNotFound, "member not found")
		case errors.Is(err, ErrInvalidPick):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrPayoutFailed):
			// Stake was taken but the reward credit did not land; report the
			// inconsistency instead of pretending the round settled.
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	result := "lose"
	message := "better luck next time"
	if round.Win {
		result = "win"
		message = "congratulations, you won!"
	}
	metrics.RecordRound(result, started)

	return c.Status(http.StatusOK).JSON(PlayResponse{
		Dice:    round.Dice,
		Outcome: string(round.Outcome),
		Win:     round.Win,
		Payout:  round.Payout,
		Balance: round.Balance,
		Message: message,
	})
}
