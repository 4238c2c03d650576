package models

import (
	"time"

	"github.com/google/uuid"
)

// Post is a unit of authored content with a publication state.
// AuthorID is immutable after creation; UpdatedAt is refreshed on every
// mutation.
// Maps to: posts table
type Post struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Content   string    `db:"content" json:"content"`
	Published bool      `db:"published" json:"published"`
	AuthorID  uuid.UUID `db:"author_id" json:"authorId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// PostDetail is the fully hydrated aggregate returned by reads:
// the post plus its author summary and resolved tags, loaded in one
// logical repository call
type PostDetail struct {
	Post
	Author AuthorSummary `json:"author"`
	Tags   []Tag         `json:"tags"`
}

// PostFilter narrows the public listing
type PostFilter struct {
	AuthorID *uuid.UUID
	TagName  *string
	Limit    int
	Offset   int
}

// Pagination describes a page of listing results
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// PostPage is a page of published posts with its pagination envelope
type PostPage struct {
	Posts      []*PostDetail `json:"posts"`
	Pagination Pagination    `json:"pagination"`
}
