package post

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/inkpress/go-blog-api/app/observability/metrics"
	"github.com/inkpress/go-blog-api/internal/types"
)

// PgxPool is the subset of pgxpool.Pool the repository needs; pgxmock
// implements it too.
type PgxPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var _ PostRepo = (*PostgresPostRepo)(nil)

// PostRepo defines the contract for post persistence.
type PostRepo interface {
	// ListPosts returns one page of published posts matching the filter,
	// newest first, with the total match count.
	ListPosts(ctx context.Context, filter types.PostFilter) ([]types.Post, int, error)

	// GetPostByID returns types.ErrNotFound when the post doesn't exist.
	GetPostByID(ctx context.Context, postID uuid.UUID) (*types.Post, error)

	IncrementViews(ctx context.Context, postID uuid.UUID) error

	CreatePost(ctx context.Context, authorID uuid.UUID, params types.CreatePostParams) (*types.Post, error)

	// UpdatePost applies the non-nil fields of params.
	UpdatePost(ctx context.Context, postID uuid.UUID, params types.UpdatePostParams) (*types.Post, error)

	DeletePost(ctx context.Context, postID uuid.UUID) error
}

type PostgresPostRepo struct {
	logger *slog.Logger
	pgpool PgxPool
}

func NewPostgresPostRepo(pgpool PgxPool, logger *slog.Logger) *PostgresPostRepo {
	return &PostgresPostRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const postColumns = `p.id, p.title, p.content, p.author_id, u.name, u.email,
	p.tags, p.is_published, p.views, p.created_at, p.updated_at`

func scanPost(row pgx.Row) (*types.Post, error) {
	var post types.Post
	err := row.Scan(&post.ID, &post.Title, &post.Content, &post.AuthorID,
		&post.AuthorName, &post.AuthorEmail, &post.Tags, &post.IsPublished,
		&post.Views, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan post: %w", err)
	}
	return &post, nil
}

func (r *PostgresPostRepo) ListPosts(ctx context.Context, filter types.PostFilter) ([]types.Post, int, error) {
	start := time.Now()
	defer func() { metrics.Get().ObserveDBQuery(ctx, "posts.list", time.Since(start)) }()

	where := []string{"p.is_published = true"}
	var args []interface{}
	argID := 1

	if filter.Search != "" {
		where = append(where, fmt.Sprintf("(p.title ILIKE $%d OR p.content ILIKE $%d)", argID, argID))
		args = append(args, "%"+filter.Search+"%")
		argID++
	}
	if len(filter.Tags) > 0 {
		where = append(where, fmt.Sprintf("p.tags && $%d", argID))
		args = append(args, filter.Tags)
		argID++
	}
	whereClause := strings.Join(where, " AND ")

	query := fmt.Sprintf(`
		SELECT %s
		FROM posts p JOIN users u ON u.id = p.author_id
		WHERE %s
		ORDER BY p.created_at DESC
		LIMIT $%d OFFSET $%d`, postColumns, whereClause, argID, argID+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]types.Post, 0, filter.Limit)
	for rows.Next() {
		var p types.Post
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID, &p.AuthorName,
			&p.AuthorEmail, &p.Tags, &p.IsPublished, &p.Views, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan post row: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed iterating post rows: %w", err)
	}

	countQuery := fmt.Sprintf(
		"SELECT count(*) FROM posts p WHERE %s", whereClause)
	var total int
	// Drop the limit/offset args; the count shares the filter args only.
	if err := r.pgpool.QueryRow(ctx, countQuery, args[:len(args)-2]...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}

	return posts, total, nil
}

func (r *PostgresPostRepo) GetPostByID(ctx context.Context, postID uuid.UUID) (*types.Post, error) {
	start := time.Now()
	defer func() { metrics.Get().ObserveDBQuery(ctx, "posts.select_by_id", time.Since(start)) }()

	row := r.pgpool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s
		FROM posts p JOIN users u ON u.id = p.author_id
		WHERE p.id = $1`, postColumns), postID)
	return scanPost(row)
}

func (r *PostgresPostRepo) IncrementViews(ctx context.Context, postID uuid.UUID) error {
	_, err := r.pgpool.Exec(ctx, "UPDATE posts SET views = views + 1 WHERE id = $1", postID)
	if err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}
	return nil
}

func (r *PostgresPostRepo) CreatePost(ctx context.Context, authorID uuid.UUID, params types.CreatePostParams) (*types.Post, error) {
	isPublished := true
	if params.IsPublished != nil {
		isPublished = *params.IsPublished
	}
	tags := params.Tags
	if tags == nil {
		tags = []string{}
	}

	post := &types.Post{
		Title:       strings.TrimSpace(params.Title),
		Content:     strings.TrimSpace(params.Content),
		AuthorID:    authorID,
		Tags:        tags,
		IsPublished: isPublished,
	}
	err := r.pgpool.QueryRow(ctx, `
		INSERT INTO posts (title, content, author_id, tags, is_published)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, views, created_at, updated_at`,
		post.Title, post.Content, authorID, tags, isPublished).
		Scan(&post.ID, &post.Views, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert post: %w", err)
	}

	return post, nil
}

func (r *PostgresPostRepo) UpdatePost(ctx context.Context, postID uuid.UUID, params types.UpdatePostParams) (*types.Post, error) {
	var setClauses []string
	var args []interface{}
	argID := 1

	if params.Title != nil {
		setClauses = append(setClauses, fmt.Sprintf("title = $%d", argID))
		args = append(args, strings.TrimSpace(*params.Title))
		argID++
	}
	if params.Content != nil {
		setClauses = append(setClauses, fmt.Sprintf("content = $%d", argID))
		args = append(args, strings.TrimSpace(*params.Content))
		argID++
	}
	if params.Tags != nil {
		setClauses = append(setClauses, fmt.Sprintf("tags = $%d", argID))
		args = append(args, *params.Tags)
		argID++
	}
	if params.IsPublished != nil {
		setClauses = append(setClauses, fmt.Sprintf("is_published = $%d", argID))
		args = append(args, *params.IsPublished)
		argID++
	}

	if len(setClauses) == 0 {
		return r.GetPostByID(ctx, postID)
	}

	setClauses = append(setClauses, "updated_at = now()")
	args = append(args, postID)

	query := fmt.Sprintf("UPDATE posts SET %s WHERE id = $%d RETURNING id",
		strings.Join(setClauses, ", "), argID)

	var updatedID uuid.UUID
	if err := r.pgpool.QueryRow(ctx, query, args...).Scan(&updatedID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	return r.GetPostByID(ctx, updatedID)
}

func (r *PostgresPostRepo) DeletePost(ctx context.Context, postID uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx, "DELETE FROM posts WHERE id = $1", postID)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}
