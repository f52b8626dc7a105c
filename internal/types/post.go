package types

import (
	"time"

	"github.com/google/uuid"
)

type Post struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	AuthorID    uuid.UUID `json:"author_id"`
	AuthorName  string    `json:"author_name,omitempty"`
	AuthorEmail string    `json:"author_email,omitempty"`
	Tags        []string  `json:"tags"`
	IsPublished bool      `json:"is_published"`
	Views       int       `json:"views"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreatePostParams struct {
	Title       string
	Content     string
	Tags        []string
	IsPublished *bool
}

type UpdatePostParams struct {
	Title       *string `json:"title,omitempty"`
	Content     *string `json:"content,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	IsPublished *bool   `json:"is_published,omitempty"`
}

// PostFilter narrows the public post listing. Search matches title or content
// case-insensitively; Tags matches posts carrying any of the given tags.
type PostFilter struct {
	Search string
	Tags   []string
	Page   int
	Limit  int
}

type PostList struct {
	Posts       []Post `json:"posts"`
	TotalCount  int    `json:"totalCount"`
	CurrentPage int    `json:"currentPage"`
	TotalPages  int    `json:"totalPages"`
}
