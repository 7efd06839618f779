package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pointwallet/pointwallet/internal/auth"
)

// RegisterAuthRoutes wires signup and login endpoints.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter fiber.Handler) {
	group := r.Group("/auth")
	group.Post("/signup", h.Signup)
	if rateLimiter != nil {
		group.Post("/login", rateLimiter, h.Login)
	} else {
		group.Post("/login", h.Login)
	}
}
