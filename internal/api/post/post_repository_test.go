package post

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkpress/go-blog-api/internal/types"
)

func newMockRepo(t *testing.T) (*PostgresPostRepo, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return NewPostgresPostRepo(mockPool, slog.New(slog.DiscardHandler)), mockPool
}

func postRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "title", "content", "author_id", "name", "email",
		"tags", "is_published", "views", "created_at", "updated_at",
	})
}

func TestGetPostByID(t *testing.T) {
	ctx := context.Background()
	postID := uuid.New()
	authorID := uuid.New()
	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)

		mockPool.ExpectQuery(`SELECT (.+) FROM posts p JOIN users u`).
			WithArgs(postID).
			WillReturnRows(postRows().AddRow(
				postID, "First Post", "Hello world", authorID, "Author", "author@example.com",
				[]string{"go", "testing"}, true, 3, now, now,
			))

		post, err := repo.GetPostByID(ctx, postID)
		require.NoError(t, err)
		assert.Equal(t, postID, post.ID)
		assert.Equal(t, "First Post", post.Title)
		assert.Equal(t, "Author", post.AuthorName)
		assert.Equal(t, []string{"go", "testing"}, post.Tags)
		require.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)

		mockPool.ExpectQuery(`SELECT (.+) FROM posts p JOIN users u`).
			WithArgs(postID).
			WillReturnRows(postRows())

		_, err := repo.GetPostByID(ctx, postID)
		assert.ErrorIs(t, err, types.ErrNotFound)
		require.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestListPosts(t *testing.T) {
	ctx := context.Background()
	authorID := uuid.New()
	now := time.Now()

	t.Run("NoFilters", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)

		mockPool.ExpectQuery(`SELECT (.+) FROM posts p JOIN users u (.+) ORDER BY p.created_at DESC`).
			WithArgs(10, 0).
			WillReturnRows(postRows().AddRow(
				uuid.New(), "First Post", "Hello", authorID, "Author", "author@example.com",
				[]string{}, true, 0, now, now,
			))
		mockPool.ExpectQuery(`SELECT count\(\*\) FROM posts p`).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))

		posts, total, err := repo.ListPosts(ctx, types.PostFilter{Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Len(t, posts, 1)
		assert.Equal(t, 1, total)
		require.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("SearchAndTags", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)

		mockPool.ExpectQuery(`SELECT (.+) FROM posts p JOIN users u`).
			WithArgs("%go%", []string{"testing"}, 5, 5).
			WillReturnRows(postRows())
		mockPool.ExpectQuery(`SELECT count\(\*\) FROM posts p`).
			WithArgs("%go%", []string{"testing"}).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))

		posts, total, err := repo.ListPosts(ctx, types.PostFilter{
			Search: "go",
			Tags:   []string{"testing"},
			Page:   2,
			Limit:  5,
		})
		require.NoError(t, err)
		assert.Empty(t, posts)
		assert.Zero(t, total)
		require.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestCreatePost(t *testing.T) {
	ctx := context.Background()
	authorID := uuid.New()
	now := time.Now()

	t.Run("DefaultsApplied", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)
		postID := uuid.New()

		// Whitespace is trimmed, tags default to empty, published defaults on.
		mockPool.ExpectQuery(`INSERT INTO posts`).
			WithArgs("Title", "Content", authorID, []string{}, true).
			WillReturnRows(pgxmock.NewRows([]string{"id", "views", "created_at", "updated_at"}).
				AddRow(postID, 0, now, now))

		post, err := repo.CreatePost(ctx, authorID, types.CreatePostParams{
			Title:   "  Title  ",
			Content: " Content ",
		})
		require.NoError(t, err)
		assert.Equal(t, postID, post.ID)
		assert.Equal(t, "Title", post.Title)
		assert.True(t, post.IsPublished)
		assert.Equal(t, []string{}, post.Tags)
		require.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Draft", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)
		unpublished := false

		mockPool.ExpectQuery(`INSERT INTO posts`).
			WithArgs("Title", "Content", authorID, []string{"go"}, false).
			WillReturnRows(pgxmock.NewRows([]string{"id", "views", "created_at", "updated_at"}).
				AddRow(uuid.New(), 0, now, now))

		post, err := repo.CreatePost(ctx, authorID, types.CreatePostParams{
			Title:       "Title",
			Content:     "Content",
			Tags:        []string{"go"},
			IsPublished: &unpublished,
		})
		require.NoError(t, err)
		assert.False(t, post.IsPublished)
		require.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestIncrementViews(t *testing.T) {
	ctx := context.Background()
	repo, mockPool := newMockRepo(t)
	postID := uuid.New()

	mockPool.ExpectExec(`UPDATE posts SET views = views \+ 1`).
		WithArgs(postID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.IncrementViews(ctx, postID))
	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestDeletePost(t *testing.T) {
	ctx := context.Background()
	postID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)

		mockPool.ExpectExec(`DELETE FROM posts WHERE id`).
			WithArgs(postID).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		require.NoError(t, repo.DeletePost(ctx, postID))
		require.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)

		mockPool.ExpectExec(`DELETE FROM posts WHERE id`).
			WithArgs(postID).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		assert.ErrorIs(t, repo.DeletePost(ctx, postID), types.ErrNotFound)
		require.NoError(t, mockPool.ExpectationsWereMet())
	})
}
