package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/pointwallet/pointwallet/internal/auth"
	"github.com/pointwallet/pointwallet/internal/config"
	"github.com/pointwallet/pointwallet/internal/member"
)

// JWTAuth validates bearer access tokens and confirms the subject still exists
// before admitting the request. The member id is exposed via c.Locals("user_id").
func JWTAuth(cfg config.Config, members *member.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])
		claims, err := auth.ParseAndVerifyHS256(tokenStr, []byte(cfg.JWTSecret))
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}
		sub, _ := claims["sub"].(string)
		if sub == "" {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}

		if _, err := members.Get(c.UserContext(), sub); err != nil {
			return fiber.NewError(http.StatusUnauthorized, "token subject no longer exists")
		}

		c.Locals("user_id", sub)
		return c.Next()
	}
}
