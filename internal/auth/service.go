package auth

import (
	"time"

	"github.com/pointwallet/pointwallet/internal/config"
	"github.com/pointwallet/pointwallet/internal/member"
)

// Service issues access tokens for authenticated members.
type Service struct {
	cfg config.Config
}

// NewService builds an auth service instance.
func NewService(cfg config.Config) *Service {
	return &Service{cfg: cfg}
}

// Token bundles the issued access token and its lifetime.
type Token struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Issue signs an access token for the member.
func (s *Service) Issue(m member.Member) (Token, error) {
	now := time.Now()
	exp := now.Add(s.cfg.AccessTokenTTL)
	claims := map[string]any{
		"sub":   m.ID,
		"email": m.Email,
		"iat":   now.Unix(),
		"exp":   exp.Unix(),
	}
	signed, err := SignHS256(claims, []byte(s.cfg.JWTSecret))
	if err != nil {
		return Token{}, err
	}
	return Token{AccessToken: signed, ExpiresIn: int64(s.cfg.AccessTokenTTL.Seconds())}, nil
}
