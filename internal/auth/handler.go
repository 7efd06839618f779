package auth

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/pointwallet/pointwallet/internal/member"
)

// Handler exposes signup and login endpoints.
type Handler struct {
	members *member.Service
	auth    *Service
}

// NewHandler constructs an auth handler.
func NewHandler(members *member.Service, auth *Service) *Handler {
	return &Handler{members: members, auth: auth}
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup registers a member and provisions an empty wallet.
func (h *Handler) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	m, err := h.members.Register(c.UserContext(), member.Credentials{
		Email:    req.Email,
		Password: req.Password,
		Nickname: req.Nickname,
	})
	if err != nil {
		switch {
		case errors.Is(err, member.ErrDuplicateEmail), errors.Is(err, member.ErrDuplicateNickname):
			return fiber.NewError(http.StatusConflict, err.Error())
		default:
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"member_id": m.ID,
		"email":     m.Email,
		"nickname":  m.Nickname,
	})
}

// Login verifies credentials and returns an access token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	m, err := h.members.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, member.ErrInvalidCredentials) {
			return fiber.NewError(http.StatusUnauthorized, "invalid email or password")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	token, err := h.auth.Issue(m)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(token)
}
