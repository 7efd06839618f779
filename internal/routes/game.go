package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pointwallet/pointwallet/internal/game"
)

// RegisterGameRoutes wires the dice game endpoint.
func RegisterGameRoutes(r fiber.Router, h *game.Handler) {
	group := r.Group("/game")
	group.Post("/dice", h.Play)
}
