package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pointwallet/pointwallet/internal/payment"
)

// RegisterPaymentRoutes wires payment verification endpoints.
func RegisterPaymentRoutes(r fiber.Router, h *payment.Handler) {
	group := r.Group("/payments")
	group.Post("/verify", h.Verify)
	group.Post("/:orderId/cancel", h.Cancel)
}
