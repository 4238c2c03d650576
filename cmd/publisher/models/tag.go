package models

import (
	"time"

	"github.com/google/uuid"
)

// Tag is a named label reusable across posts. Names are unique and
// case-sensitive; tag rows are created lazily and never deleted.
// Maps to: tags table
type Tag struct {
	ID   uuid.UUID `db:"id" json:"id"`
	Name string    `db:"name" json:"name"`
}

// PostTag is the many-to-many association between a post and a tag.
// AssignedBy records the acting user at link time, which may differ
// from the post's author.
// Maps to: post_tags table
type PostTag struct {
	PostID     uuid.UUID `db:"post_id" json:"postId"`
	TagID      uuid.UUID `db:"tag_id" json:"tagId"`
	AssignedBy uuid.UUID `db:"assigned_by" json:"assignedBy"`
	AssignedAt time.Time `db:"assigned_at" json:"assignedAt"`
}
