package models

import (
	"time"

	"github.com/google/uuid"
)

// Group is a household unit, the tenant boundary for shopping lists.
// The owner is set at creation and never changes.
type Group struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	OwnerUserID uuid.UUID `json:"owner_user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// GroupMember joins a user to a group. A user holds at most one membership
// system-wide; group_members.user_id carries a unique constraint.
type GroupMember struct {
	ID       uuid.UUID `json:"id"`
	GroupID  uuid.UUID `json:"group_id"`
	UserID   uuid.UUID `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// GroupMemberWithUser is a row of the group_members_with_users view, the
// shape the member-listing screen consumes.
type GroupMemberWithUser struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	GroupID     uuid.UUID `json:"group_id"`
	JoinedAt    time.Time `json:"joined_at"`
	DisplayName string    `json:"display_name"`
}

// Space is the single shopping-list workspace created together with its
// group.
type Space struct {
	ID        uuid.UUID `json:"id"`
	GroupID   uuid.UUID `json:"group_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
