package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateGroupRequest struct {
	Name string `json:"name"`
}

type GroupResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	OwnerUserID uuid.UUID `json:"owner_user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type SpaceResponse struct {
	ID      uuid.UUID `json:"id"`
	GroupID uuid.UUID `json:"group_id"`
	Name    string    `json:"name"`
}

type GroupMemberResponse struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	GroupID     uuid.UUID `json:"group_id"`
	JoinedAt    time.Time `json:"joined_at"`
	DisplayName string    `json:"display_name"`
}

// GroupCreatedResponse is returned once, at group creation: it carries the
// only copy of the invitation links the owner can share right away.
type GroupCreatedResponse struct {
	Group      GroupResponse      `json:"group"`
	Space      SpaceResponse      `json:"space"`
	Invitation InvitationResponse `json:"invitation"`
}
