package post

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/inkpress/go-blog-api/internal/types"
)

var _ PostService = (*PostServiceImpl)(nil)

// PostService defines the interface for post operations.
type PostService interface {
	GetPosts(ctx context.Context, filter types.PostFilter) (*types.PostList, error)
	// GetPost fetches one post and counts the view.
	GetPost(ctx context.Context, postID uuid.UUID) (*types.Post, error)
	// FindPost fetches one post without touching the view counter; for
	// ownership checks and other internal reads.
	FindPost(ctx context.Context, postID uuid.UUID) (*types.Post, error)
	CreatePost(ctx context.Context, authorID uuid.UUID, params types.CreatePostParams) (*types.Post, error)
	UpdatePost(ctx context.Context, postID uuid.UUID, params types.UpdatePostParams) (*types.Post, error)
	DeletePost(ctx context.Context, postID uuid.UUID) error
}

type PostServiceImpl struct {
	logger *slog.Logger
	repo   PostRepo
	cache  *cache.Cache
}

func NewPostService(repo PostRepo, logger *slog.Logger) *PostServiceImpl {
	// Short TTL: single-post reads are the hot path and tolerate slightly
	// stale view counts.
	c := cache.New(1*time.Minute, 5*time.Minute)
	return &PostServiceImpl{
		logger: logger,
		repo:   repo,
		cache:  c,
	}
}

func (s *PostServiceImpl) GetPosts(ctx context.Context, filter types.PostFilter) (*types.PostList, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 10
	}

	posts, total, err := s.repo.ListPosts(ctx, filter)
	if err != nil {
		return nil, err
	}

	totalPages := (total + filter.Limit - 1) / filter.Limit
	return &types.PostList{
		Posts:       posts,
		TotalCount:  total,
		CurrentPage: filter.Page,
		TotalPages:  totalPages,
	}, nil
}

func (s *PostServiceImpl) GetPost(ctx context.Context, postID uuid.UUID) (*types.Post, error) {
	// The view still counts on a cache hit.
	if err := s.repo.IncrementViews(ctx, postID); err != nil {
		s.logger.WarnContext(ctx, "Failed to increment post views",
			slog.String("postID", postID.String()), slog.Any("error", err))
	}

	cacheKey := "post:" + postID.String()
	if cached, found := s.cache.Get(cacheKey); found {
		post := cached.(types.Post)
		post.Views++
		s.cache.Set(cacheKey, post, cache.DefaultExpiration)
		return &post, nil
	}

	post, err := s.repo.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	s.cache.Set(cacheKey, *post, cache.DefaultExpiration)
	return post, nil
}

func (s *PostServiceImpl) FindPost(ctx context.Context, postID uuid.UUID) (*types.Post, error) {
	cacheKey := "post:" + postID.String()
	if cached, found := s.cache.Get(cacheKey); found {
		post := cached.(types.Post)
		return &post, nil
	}

	post, err := s.repo.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	s.cache.Set(cacheKey, *post, cache.DefaultExpiration)
	return post, nil
}

func (s *PostServiceImpl) CreatePost(ctx context.Context, authorID uuid.UUID, params types.CreatePostParams) (*types.Post, error) {
	return s.repo.CreatePost(ctx, authorID, params)
}

func (s *PostServiceImpl) UpdatePost(ctx context.Context, postID uuid.UUID, params types.UpdatePostParams) (*types.Post, error) {
	post, err := s.repo.UpdatePost(ctx, postID, params)
	if err != nil {
		return nil, err
	}
	s.cache.Delete("post:" + postID.String())
	return post, nil
}

func (s *PostServiceImpl) DeletePost(ctx context.Context, postID uuid.UUID) error {
	if err := s.repo.DeletePost(ctx, postID); err != nil {
		return err
	}
	s.cache.Delete("post:" + postID.String())
	return nil
}
