package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/inkpress/go-blog-api/config"
	"github.com/inkpress/go-blog-api/internal/types"
)

var _ AuthService = (*AuthServiceImpl)(nil)

// AuthService defines the interface for authentication operations.
type AuthService interface {
	// Register creates a user and returns it with a fresh token pair.
	Register(ctx context.Context, name, email, password string) (*types.User, string, string, error)

	// Login validates credentials and returns the user with a token pair.
	Login(ctx context.Context, email, password string) (*types.User, string, string, error)

	// RefreshSession rotates a refresh token, returning a new access and
	// refresh token.
	RefreshSession(ctx context.Context, refreshToken string) (string, string, error)

	// Logout revokes the presented refresh token.
	Logout(ctx context.Context, refreshToken string) error
}

type AuthServiceImpl struct {
	logger *slog.Logger
	repo   AuthRepo
	jwtCfg config.JWTConfig
}

func NewAuthService(repo AuthRepo, jwtCfg config.JWTConfig, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		logger: logger,
		repo:   repo,
		jwtCfg: jwtCfg,
	}
}

// issueTokenPair signs an access token for the user and stores a fresh
// refresh token.
func (s *AuthServiceImpl) issueTokenPair(ctx context.Context, user *types.User) (string, string, error) {
	accessToken, err := IssueToken(user.ID, user.Email, []byte(s.jwtCfg.SecretKey), s.jwtCfg.Issuer, s.jwtCfg.AccessTokenTTL)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken := uuid.NewString()
	expiresAt := time.Now().Add(s.jwtCfg.RefreshTokenTTL)
	if err := s.repo.StoreRefreshToken(ctx, user.ID, refreshToken, expiresAt); err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

func (s *AuthServiceImpl) Register(ctx context.Context, name, email, password string) (*types.User, string, string, error) {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return nil, "", "", err
	}

	user, err := s.repo.CreateUser(ctx, name, email, hashedPassword)
	if err != nil {
		return nil, "", "", err
	}

	accessToken, refreshToken, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, "", "", err
	}

	s.logger.InfoContext(ctx, "User registered", slog.String("userID", user.ID.String()))
	return user, accessToken, refreshToken, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*types.User, string, string, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			// Same failure as a wrong password so callers cannot probe for
			// registered emails.
			return nil, "", "", types.ErrUnauthenticated
		}
		return nil, "", "", err
	}

	match, err := ComparePassword(password, user.PasswordHash)
	if err != nil {
		return nil, "", "", err
	}
	if !match {
		return nil, "", "", types.ErrUnauthenticated
	}

	accessToken, refreshToken, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, "", "", err
	}

	return user, accessToken, refreshToken, nil
}

func (s *AuthServiceImpl) RefreshSession(ctx context.Context, refreshToken string) (string, string, error) {
	userID, err := s.repo.ValidateRefreshTokenAndGetUserID(ctx, refreshToken)
	if err != nil {
		return "", "", err
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return "", "", types.ErrUnauthenticated
		}
		return "", "", err
	}

	newAccessToken, newRefreshToken, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return "", "", err
	}

	// Rotate: the presented token is single-use.
	if err := s.repo.InvalidateRefreshToken(ctx, refreshToken); err != nil {
		s.logger.WarnContext(ctx, "Failed to invalidate old refresh token", slog.Any("error", err))
	}

	return newAccessToken, newRefreshToken, nil
}

func (s *AuthServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	return s.repo.InvalidateRefreshToken(ctx, refreshToken)
}
