package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/YotaroKono/sato-api/internal/middleware"
	"github.com/YotaroKono/sato-api/internal/services"
	"github.com/YotaroKono/sato-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type InviteHandler struct {
	groupService      GroupServiceInterface
	invitationService InvitationServiceInterface
	pendingService    PendingInviteServiceInterface
	hub               HubInterface
}

func NewInviteHandler(
	groupService GroupServiceInterface,
	invitationService InvitationServiceInterface,
	pendingService PendingInviteServiceInterface,
	hub HubInterface,
) *InviteHandler {
	return &InviteHandler{
		groupService:      groupService,
		invitationService: invitationService,
		pendingService:    pendingService,
		hub:               hub,
	}
}

// GetInvitation returns the group's current shareable link, minting a new
// invitation only when no unexpired one exists.
func (h *InviteHandler) GetInvitation(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid group id")
		return
	}

	isMember, err := h.groupService.IsMember(context.Background(), groupID, userID)
	if err != nil || !isMember {
		c.NotFound("group not found")
		return
	}

	issue, err := h.invitationService.GetOrCreateInvitation(context.Background(), groupID)
	if err != nil {
		c.InternalServerError(services.ErrInvitationCreationFailed.Error())
		return
	}

	_ = c.JSON(200, dto.InvitationResponse{
		Token:      issue.Token,
		Link:       issue.Link,
		SchemeLink: issue.SchemeLink,
		ExpiresAt:  issue.Invitation.ExpiresAt,
	})
}

// Join redeems an invitation link (or bare token) for the calling user.
func (h *InviteHandler) Join(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.JoinGroupRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Link == "" {
		c.BadRequest("link is required")
		return
	}

	ctx := context.Background()

	group, err := h.invitationService.JoinGroup(ctx, userID, req.Link)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAlreadyInGroup):
			_ = c.JSON(409, map[string]string{
				"code":    "ALREADY_IN_GROUP",
				"message": services.ErrAlreadyInGroup.Error(),
			})
		case errors.Is(err, services.ErrInvalidInvitation):
			c.NotFound(services.ErrInvalidInvitation.Error())
		default:
			_ = c.JSON(409, map[string]string{
				"code":    "JOIN_FAILED",
				"message": services.ErrJoinFailed.Error(),
			})
		}
		return
	}

	// A parked token is stale once the user belongs to a group.
	_ = h.pendingService.Clear(ctx, userID)

	h.hub.BroadcastMemberJoined(group.ID, userID, time.Now())

	_ = c.JSON(200, dto.GroupResponse{
		ID:          group.ID,
		Name:        group.Name,
		OwnerUserID: group.OwnerUserID,
		CreatedAt:   group.CreatedAt,
	})
}

// SavePending parks an invitation token for a user who opened the invite
// link before finishing sign-in.
func (h *InviteHandler) SavePending(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.PendingInviteRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Token == "" {
		c.BadRequest("token is required")
		return
	}

	if err := h.pendingService.Save(context.Background(), userID, req.Token); err != nil {
		c.InternalServerError("failed to save pending invite")
		return
	}

	_ = c.JSON(200, dto.PendingInviteResponse{Token: req.Token})
}

func (h *InviteHandler) GetPending(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	token, err := h.pendingService.Get(context.Background(), userID)
	if err != nil {
		c.InternalServerError("failed to get pending invite")
		return
	}

	if token == "" {
		c.NotFound("no pending invite")
		return
	}

	_ = c.JSON(200, dto.PendingInviteResponse{Token: token})
}

func (h *InviteHandler) ClearPending(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	if err := h.pendingService.Clear(context.Background(), userID); err != nil {
		c.InternalServerError("failed to clear pending invite")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "pending invite cleared"})
}
