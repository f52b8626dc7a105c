package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/inkpress/go-blog-api/internal/api"
	"github.com/inkpress/go-blog-api/internal/types"
)

type AuthHandler struct {
	service AuthService
	logger  *slog.Logger
}

func NewAuthHandler(service AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger,
	}
}

// Register godoc
// @Summary      Register a new user
// @Description  Creates an account and returns the user with a token pair.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Router       /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Register"))

	var req RegisterRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if details := api.ValidateStruct(&req); details != nil {
		api.ValidationErrorResponse(w, r, details)
		return
	}

	user, accessToken, refreshToken, err := h.service.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, types.ErrConflict) {
			api.ErrorResponse(w, r, http.StatusBadRequest, "User already exists with this email")
			return
		}
		l.ErrorContext(ctx, "Registration failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Registration failed")
		return
	}

	api.SuccessResponse(w, r, http.StatusCreated, "Registered successfully", AuthPayload{
		User:         user,
		Token:        accessToken,
		RefreshToken: refreshToken,
	})
}

// Login godoc
// @Summary      Log in
// @Description  Validates credentials and returns the user with a token pair.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Router       /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Login"))

	var req LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if details := api.ValidateStruct(&req); details != nil {
		api.ValidationErrorResponse(w, r, details)
		return
	}

	user, accessToken, refreshToken, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, types.ErrUnauthenticated) {
			api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		l.ErrorContext(ctx, "Login failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Login failed")
		return
	}

	api.SuccessResponse(w, r, http.StatusOK, "Logged in successfully", AuthPayload{
		User:         user,
		Token:        accessToken,
		RefreshToken: refreshToken,
	})
}

// RefreshSession godoc
// @Summary      Refresh the session
// @Description  Rotates the refresh token and returns a new token pair.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Router       /auth/refresh [post]
func (h *AuthHandler) RefreshSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "RefreshSession"))

	var req RefreshRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if details := api.ValidateStruct(&req); details != nil {
		api.ValidationErrorResponse(w, r, details)
		return
	}

	accessToken, refreshToken, err := h.service.RefreshSession(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, types.ErrUnauthenticated) {
			api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid or expired refresh token")
			return
		}
		l.ErrorContext(ctx, "Session refresh failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Session refresh failed")
		return
	}

	api.SuccessResponse(w, r, http.StatusOK, "Session refreshed", AuthPayload{
		Token:        accessToken,
		RefreshToken: refreshToken,
	})
}

// Logout godoc
// @Summary      Log out
// @Description  Revokes the presented refresh token.
// @Tags         Auth
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LogoutRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.Logout(ctx, req.RefreshToken); err != nil {
		h.logger.ErrorContext(ctx, "Logout failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Logout failed")
		return
	}

	api.SuccessResponse(w, r, http.StatusOK, "Logged out successfully", nil)
}

// Me godoc
// @Summary      Current user
// @Description  Returns the authenticated user's profile.
// @Tags         Auth
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	api.SuccessResponse(w, r, http.StatusOK, "Success", map[string]interface{}{"user": user})
}
