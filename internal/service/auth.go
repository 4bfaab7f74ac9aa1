package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"sweetshop/internal/domain"
	"sweetshop/internal/hash"
	"sweetshop/internal/logging"
	"sweetshop/internal/models"
	"sweetshop/internal/repo"
	"sweetshop/internal/tokens"
)

type AuthService struct {
	Users         *repo.UserRepo
	JWTSecret     []byte
	RefreshSecret []byte
}

type AuthResult struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
}

func (s *AuthService) Register(ctx context.Context, username, password, role string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if len(username) < 3 {
		return nil, fmt.Errorf("%w: username must be at least 3 characters", domain.ErrValidation)
	}
	if len(password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", domain.ErrValidation)
	}
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, role)
	}

	pwHash, err := hash.Password(password)
	if err != nil {
		l.Error("register_failed", "reason", "cannot hash password", "error", err)
		return nil, err
	}

	user := &models.User{
		Username:     username,
		PasswordHash: pwHash,
		Role:         role,
	}
	if err := s.Users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			l.Warn("register_failed", "reason", "username taken", "username", username)
			return nil, err
		}
		l.Error("register_failed", "error", err)
		return nil, err
	}

	pair, err := tokens.IssuePair(user, s.JWTSecret, s.RefreshSecret)
	if err != nil {
		l.Error("register_failed", "reason", "cannot sign tokens", "error", err)
		return nil, err
	}

	l.Info("user_registered", "user_id", user.ID, "role", user.Role)
	return &AuthResult{User: user, AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

// Login answers the same ErrInvalidCredentials for an unknown username and a
// wrong password, so the response never confirms which accounts exist.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Users.ByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("login_failed", "reason", "unknown username")
			return nil, domain.ErrInvalidCredentials
		}
		l.Error("login_failed", "error", err)
		return nil, err
	}

	if !hash.Check(user.PasswordHash, password) {
		l.Warn("login_failed", "reason", "password mismatch", "user_id", user.ID)
		return nil, domain.ErrInvalidCredentials
	}

	pair, err := tokens.IssuePair(user, s.JWTSecret, s.RefreshSecret)
	if err != nil {
		l.Error("login_failed", "reason", "cannot sign tokens", "error", err)
		return nil, err
	}

	l.Info("user_logged_in", "user_id", user.ID)
	return &AuthResult{User: user, AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

// Refresh redeems a refresh token for a fresh pair. Verification is
// stateless: signature, expiry and the typ claim against the refresh secret;
// the user row is re-read so a deleted account cannot keep minting tokens.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := tokens.ParseRefresh(refreshToken, s.RefreshSecret)
	if err != nil {
		l.Warn("refresh_failed", "reason", "invalid refresh token", "error", err)
		return nil, domain.ErrInvalidToken
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		l.Warn("refresh_failed", "reason", "bad subject claim")
		return nil, domain.ErrInvalidToken
	}

	user, err := s.Users.ByID(ctx, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("refresh_failed", "reason", "user no longer exists", "user_id", id)
			return nil, domain.ErrInvalidToken
		}
		l.Error("refresh_failed", "error", err)
		return nil, err
	}

	pair, err := tokens.IssuePair(user, s.JWTSecret, s.RefreshSecret)
	if err != nil {
		l.Error("refresh_failed", "reason", "cannot sign tokens", "error", err)
		return nil, err
	}

	l.Info("tokens_refreshed", "user_id", user.ID)
	return &AuthResult{User: user, AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}
