package post

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/inkpress/go-blog-api/internal/api"
	"github.com/inkpress/go-blog-api/internal/api/auth"
	"github.com/inkpress/go-blog-api/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	ListPosts(w http.ResponseWriter, r *http.Request)
	GetPost(w http.ResponseWriter, r *http.Request)
	CreatePost(w http.ResponseWriter, r *http.Request)
	UpdatePost(w http.ResponseWriter, r *http.Request)
	DeletePost(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	postService PostService
	logger      *slog.Logger
}

func NewHandlerImpl(postService PostService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		postService: postService,
		logger:      logger,
	}
}

type CreatePostRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Content     string   `json:"content" validate:"required"`
	Tags        []string `json:"tags"`
	IsPublished *bool    `json:"is_published"`
}

type UpdatePostRequest struct {
	Title       *string   `json:"title" validate:"omitempty,max=200"`
	Content     *string   `json:"content" validate:"omitempty,min=1"`
	Tags        *[]string `json:"tags"`
	IsPublished *bool     `json:"is_published"`
}

func pathPostID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "postID"))
}

// canModifyPost reports whether the acting user may change the post: the
// author or an admin.
func canModifyPost(actor *types.User, post *types.Post) bool {
	return actor.Role == types.RoleAdmin || actor.ID == post.AuthorID
}

// ListPosts godoc
// @Summary      List published posts
// @Description  Public listing with search, tag filtering and pagination.
// @Tags         Post
// @Router       /posts [get]
func (h *HandlerImpl) ListPosts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "ListPosts"))

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	var tags []string
	if raw := q.Get("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}

	list, err := h.postService.GetPosts(ctx, types.PostFilter{
		Search: q.Get("search"),
		Tags:   tags,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		l.ErrorContext(ctx, "Failed to list posts", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch posts")
		return
	}

	api.SuccessResponse(w, r, http.StatusOK, "Success", list)
}

// GetPost godoc
// @Summary      Get post by ID
// @Description  Returns one post and increments its view counter.
// @Tags         Post
// @Router       /posts/{postID} [get]
func (h *HandlerImpl) GetPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "GetPost"))

	postID, err := pathPostID(r)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid post ID")
		return
	}

	post, err := h.postService.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "Post not found")
			return
		}
		l.ErrorContext(ctx, "Failed to fetch post", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch post")
		return
	}

	api.SuccessResponse(w, r, http.StatusOK, "Success", map[string]interface{}{"post": post})
}

// CreatePost godoc
// @Summary      Create post
// @Tags         Post
// @Security     BearerAuth
// @Router       /posts [post]
func (h *HandlerImpl) CreatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "CreatePost"))

	actor, ok := auth.GetUserFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreatePostRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if details := api.ValidateStruct(&req); details != nil {
		api.ValidationErrorResponse(w, r, details)
		return
	}

	post, err := h.postService.CreatePost(ctx, actor.ID, types.CreatePostParams{
		Title:       req.Title,
		Content:     req.Content,
		Tags:        req.Tags,
		IsPublished: req.IsPublished,
	})
	if err != nil {
		l.ErrorContext(ctx, "Failed to create post", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to create post")
		return
	}

	api.SuccessResponse(w, r, http.StatusCreated, "Success", map[string]interface{}{"post": post})
}

// UpdatePost godoc
// @Summary      Update post
// @Description  Partial update by the author or an admin.
// @Tags         Post
// @Security     BearerAuth
// @Router       /posts/{postID} [put]
func (h *HandlerImpl) UpdatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "UpdatePost"))

	actor, ok := auth.GetUserFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	postID, err := pathPostID(r)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid post ID")
		return
	}

	existing, err := h.postService.FindPost(ctx, postID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "Post not found")
			return
		}
		l.ErrorContext(ctx, "Failed to fetch post for update", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to update post")
		return
	}

	if !canModifyPost(actor, existing) {
		api.ErrorResponse(w, r, http.StatusForbidden, "Not authorized to update this post")
		return
	}

	var req UpdatePostRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if details := api.ValidateStruct(&req); details != nil {
		api.ValidationErrorResponse(w, r, details)
		return
	}

	post, err := h.postService.UpdatePost(ctx, postID, types.UpdatePostParams{
		Title:       req.Title,
		Content:     req.Content,
		Tags:        req.Tags,
		IsPublished: req.IsPublished,
	})
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "Post not found")
			return
		}
		l.ErrorContext(ctx, "Failed to update post", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to update post")
		return
	}

	api.SuccessResponse(w, r, http.StatusOK, "Success", map[string]interface{}{"post": post})
}

// DeletePost godoc
// @Summary      Delete post
// @Description  Deletion by the author or an admin.
// @Tags         Post
// @Security     BearerAuth
// @Router       /posts/{postID} [delete]
func (h *HandlerImpl) DeletePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "DeletePost"))

	actor, ok := auth.GetUserFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	postID, err := pathPostID(r)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid post ID")
		return
	}

	existing, err := h.postService.FindPost(ctx, postID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "Post not found")
			return
		}
		l.ErrorContext(ctx, "Failed to fetch post for deletion", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to delete post")
		return
	}

	if !canModifyPost(actor, existing) {
		api.ErrorResponse(w, r, http.StatusForbidden, "Not authorized to delete this post")
		return
	}

	if err := h.postService.DeletePost(ctx, postID); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "Post not found")
			return
		}
		l.ErrorContext(ctx, "Failed to delete post", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to delete post")
		return
	}

	api.SuccessResponse(w, r, http.StatusOK, "Post deleted successfully", nil)
}
