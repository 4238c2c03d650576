package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered author
// Maps to: users table
type User struct {
	ID    uuid.UUID `db:"id" json:"id"`
	Name  string    `db:"name" json:"name"`
	Email string    `db:"email" json:"email"`

	// Never serialized
	PasswordHash string `db:"password_hash" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// AuthorSummary is the public projection of a user attached to post reads
type AuthorSummary struct {
	ID   uuid.UUID `db:"id" json:"id"`
	Name string    `db:"name" json:"name"`
}

// TokenPair holds issued credentials
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
