package models

import (
	"time"

	"github.com/google/uuid"
)

// Invitation is a time-bounded offer to join one group. Token holds the
// plaintext only for rebuilding the shareable link; lookups at redemption
// go through TokenHash exclusively. Rows are never mutated — renewal
// inserts a new row and old ones lapse at ExpiresAt.
type Invitation struct {
	ID        uuid.UUID `json:"id"`
	GroupID   uuid.UUID `json:"group_id"`
	Token     *string   `json:"-"`
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (i *Invitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
