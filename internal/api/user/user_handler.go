package user

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/inkpress/go-blog-api/internal/api"
	"github.com/inkpress/go-blog-api/internal/api/auth"
	"github.com/inkpress/go-blog-api/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	ListUsers(w http.ResponseWriter, r *http.Request)
	GetUser(w http.ResponseWriter, r *http.Request)
	UpdateUser(w http.ResponseWriter, r *http.Request)
	DeleteUser(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	userService UserService
	logger      *slog.Logger
}

func NewHandlerImpl(userService UserService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		userService: userService,
		logger:      logger,
	}
}

// UpdateUserRequest carries the mutable user fields. Password is deliberately
// not accepted here; it only changes through the auth flow.
type UpdateUserRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=2,max=50"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Role     *string `json:"role" validate:"omitempty,oneof=user admin moderator"`
	IsActive *bool   `json:"is_active"`
}

// pathUserID parses the {userID} route parameter.
func pathUserID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "userID"))
}

// canAccessUser reports whether the acting user may read or modify the target
// account: admins can touch anyone, everyone else only themselves.
func canAccessUser(actor *types.User, target uuid.UUID) bool {
	return actor.Role == types.RoleAdmin || actor.ID == target
}

// ListUsers godoc
// @Summary      List users
// @Description  Paginated user listing. Admin only.
// @Tags         User
// @Security     BearerAuth
// @Router       /users [get]
func (h *HandlerImpl) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "ListUsers"))

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	list, err := h.userService.GetUsers(ctx, page, limit)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list users", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch users")
		return
	}

	api.SuccessResponse(w, r, http.StatusOK, "Success", list)
}

// GetUser godoc
// @Summary      Get user by ID
// @Description  Users can access their own account; admins can access anyone's.
// @Tags         User
// @Security     BearerAuth
// @Router       /users/{userID} [get]
func (h *HandlerImpl) GetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "GetUser"))

	actor, ok := auth.GetUserFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	userID, err := pathUserID(r)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if !canAccessUser(actor, userID) {
		api.ErrorResponse(w, r, http.StatusForbidden, "Access denied")
		return
	}

	user, err := h.userService.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "User not found")
			return
		}
		l.ErrorContext(ctx, "Failed to fetch user", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch user")
		return
	}

	api.SuccessResponse(w, r, http.StatusOK, "Success", map[string]interface{}{"user": user})
}

// UpdateUser godoc
// @Summary      Update user
// @Description  Partial update. Role and active-flag changes are admin only.
// @Tags         User
// @Security     BearerAuth
// @Router       /users/{userID} [put]
func (h *HandlerImpl) UpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "UpdateUser"))

	actor, ok := auth.GetUserFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	userID, err := pathUserID(r)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if !canAccessUser(actor, userID) {
		api.ErrorResponse(w, r, http.StatusForbidden, "Access denied")
		return
	}

	var req UpdateUserRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if details := api.ValidateStruct(&req); details != nil {
		api.ValidationErrorResponse(w, r, details)
		return
	}

	if (req.Role != nil || req.IsActive != nil) && actor.Role != types.RoleAdmin {
		api.ErrorResponse(w, r, http.StatusForbidden, "Access denied")
		return
	}

	user, err := h.userService.UpdateUser(ctx, userID, types.UpdateUserParams{
		Name:     req.Name,
		Email:    req.Email,
		Role:     req.Role,
		IsActive: req.IsActive,
	})
	if err != nil {
		switch {
		case errors.Is(err, types.ErrNotFound):
			api.ErrorResponse(w, r, http.StatusNotFound, "User not found")
		case errors.Is(err, types.ErrConflict):
			api.ErrorResponse(w, r, http.StatusBadRequest, "Email already exists")
		default:
			l.ErrorContext(ctx, "Failed to update user", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to update user")
		}
		return
	}

	api.SuccessResponse(w, r, http.StatusOK, "Success", map[string]interface{}{"user": user})
}

// DeleteUser godoc
// @Summary      Delete user
// @Description  Users can delete their own account; admins can delete anyone's.
// @Tags         User
// @Security     BearerAuth
// @Router       /users/{userID} [delete]
func (h *HandlerImpl) DeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "DeleteUser"))

	actor, ok := auth.GetUserFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	userID, err := pathUserID(r)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if !canAccessUser(actor, userID) {
		api.ErrorResponse(w, r, http.StatusForbidden, "Access denied")
		return
	}

	if err := h.userService.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "User not found")
			return
		}
		l.ErrorContext(ctx, "Failed to delete user", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to delete user")
		return
	}

	api.SuccessResponse(w, r, http.StatusOK, "User deleted successfully", nil)
}
