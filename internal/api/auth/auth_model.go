package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"github.com/inkpress/go-blog-api/internal/types"
)

// Token verification failures are tagged so callers branch with errors.Is
// instead of matching error strings.
var ErrTokenExpired = errors.New("token expired")
var ErrTokenInvalid = errors.New("token invalid")

var ErrEmptyPassword = errors.New("password is required")
var ErrInvalidHash = errors.New("invalid password hash")

// Claims is the access-token payload: the user identity plus the registered
// iat/exp/iss claims.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthPayload is the data envelope returned by register/login/refresh.
type AuthPayload struct {
	User         *types.User `json:"user,omitempty"`
	Token        string      `json:"token"`
	RefreshToken string      `json:"refresh_token"`
}
