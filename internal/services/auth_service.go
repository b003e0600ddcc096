package services

import (
	"context"
	"time"

	"github.com/yoockh/nnsurvey/internal/utils"
)

type AuthService interface {
	// Login exchanges the admin password for a bearer token.
	Login(ctx context.Context, password string) (token string, expiresAt time.Time, err error)
}

type authService struct {
	secret       string
	passwordHash string
	ttl          time.Duration
}

func NewAuthService(secret, passwordHash string, ttl time.Duration) AuthService {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &authService{secret: secret, passwordHash: passwordHash, ttl: ttl}
}

func (s *authService) Login(_ context.Context, password string) (string, time.Time, error) {
	const op = "AuthService.Login"

	if s.secret == "" || s.passwordHash == "" {
		return "", time.Time{}, utils.E(utils.CodeUnavailable, op, "admin login is not configured", nil)
	}
	if password == "" {
		return "", time.Time{}, utils.E(utils.CodeInvalidArgument, op, "password is required", nil)
	}
	if !utils.CheckPassword(s.passwordHash, password) {
		return "", time.Time{}, utils.E(utils.CodeUnauthorized, op, "invalid password", nil)
	}

	tok, exp, err := utils.IssueAdminToken(s.secret, s.ttl, time.Now().UTC())
	if err != nil {
		return "", time.Time{}, utils.E(utils.CodeInternal, op, "failed to issue token", err)
	}
	return tok, exp, nil
}
