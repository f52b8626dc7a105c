package user

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/inkpress/go-blog-api/internal/types"
)

var _ UserService = (*UserServiceImpl)(nil)

// UserService defines the interface for user management operations.
type UserService interface {
	GetUsers(ctx context.Context, page, limit int) (*types.UserList, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*types.User, error)
	UpdateUser(ctx context.Context, userID uuid.UUID, params types.UpdateUserParams) (*types.User, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

type UserServiceImpl struct {
	logger *slog.Logger
	repo   UserRepo
}

func NewUserService(repo UserRepo, logger *slog.Logger) *UserServiceImpl {
	return &UserServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

func (s *UserServiceImpl) GetUsers(ctx context.Context, page, limit int) (*types.UserList, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	users, total, err := s.repo.ListUsers(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	totalPages := (total + limit - 1) / limit
	return &types.UserList{
		Users:       users,
		TotalCount:  total,
		CurrentPage: page,
		TotalPages:  totalPages,
	}, nil
}

func (s *UserServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

func (s *UserServiceImpl) UpdateUser(ctx context.Context, userID uuid.UUID, params types.UpdateUserParams) (*types.User, error) {
	return s.repo.UpdateUser(ctx, userID, params)
}

func (s *UserServiceImpl) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	s.logger.InfoContext(ctx, "Deleting user", slog.String("userID", userID.String()))
	return s.repo.DeleteUser(ctx, userID)
}
