package payment

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pointwallet/pointwallet/internal/member"
	"github.com/pointwallet/pointwallet/internal/metrics"
)

// Handler exposes payment HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a payment handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Verify validates an inbound payment claim and credits the caller's wallet.
func (h *Handler) Verify(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}

	var req VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	started := time.Now()
	res, err := h.service.VerifyAndCredit(c.UserContext(), VerifyInput{
		MemberID:  uid,
		PaymentID: req.PaymentID,
		OrderID:   req.OrderID,
		Amount:    req.Amount,
	})
	metrics.RecordPaymentVerify(err == nil, started)
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicatePayment):
			return fiber.NewError(http.StatusConflict, "order already processed")
		case errors.Is(err, member.ErrNotFound):
			return fiber.NewError(http.StatusNotFound, "member not found")
		case errors.Is(err, ErrPaymentLookupFailed):
			return fiber.NewError(http.StatusBadGateway, err.Error())
		case errors.Is(err, ErrPaymentNotCompleted), errors.Is(err, ErrAmountMismatch):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.Status(http.StatusCreated).JSON(VerifyResponse{
		OrderID:     res.Payment.OrderID,
		PaymentID:   res.Payment.PaymentID,
		OrderName:   res.Payment.OrderName,
		Amount:      res.Payment.Amount,
		Status:      string(res.Payment.Status),
		Balance:     res.Balance,
		CompletedAt: res.CompletedAt,
	})
}

// Cancel tags one of the caller's payment records as CANCELLED. It never
// touches balances.
func (h *Handler) Cancel(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}

	orderID := c.Params("orderId")
	if err := h.service.Cancel(c.UserContext(), uid, orderID); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return fiber.NewError(http.StatusNotFound, "payment not found")
		case errors.Is(err, ErrInvalidTransition):
			return fiber.NewError(http.StatusConflict, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"order_id": orderID, "status": string(StatusCancelled)})
}
