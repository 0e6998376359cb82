package handlers

import (
	"context"
	"errors"

	"github.com/YotaroKono/sato-api/internal/middleware"
	"github.com/YotaroKono/sato-api/internal/services"
	"github.com/YotaroKono/sato-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type GroupHandler struct {
	groupService      GroupServiceInterface
	invitationService InvitationServiceInterface
	hub               HubInterface
}

func NewGroupHandler(groupService GroupServiceInterface, invitationService InvitationServiceInterface, hub HubInterface) *GroupHandler {
	return &GroupHandler{
		groupService:      groupService,
		invitationService: invitationService,
		hub:               hub,
	}
}

// Create makes the group, the owner's membership, the group's space and
// its first invitation in one request, so the owner leaves the screen with
// a shareable link in hand.
func (h *GroupHandler) Create(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.CreateGroupRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Name == "" {
		c.BadRequest("name is required")
		return
	}

	result, err := h.invitationService.CreateGroupWithInvitation(context.Background(), userID, req.Name)
	if err != nil {
		if errors.Is(err, services.ErrAlreadyInGroup) {
			_ = c.JSON(409, map[string]string{
				"code":    "ALREADY_IN_GROUP",
				"message": services.ErrAlreadyInGroup.Error(),
			})
			return
		}
		c.InternalServerError(creationFailureMessage(err))
		return
	}

	h.hub.BroadcastInvitationCreated(result.Group.ID, result.Invitation.Invitation.ExpiresAt)

	_ = c.JSON(201, dto.GroupCreatedResponse{
		Group: dto.GroupResponse{
			ID:          result.Group.ID,
			Name:        result.Group.Name,
			OwnerUserID: result.Group.OwnerUserID,
			CreatedAt:   result.Group.CreatedAt,
		},
		Space: dto.SpaceResponse{
			ID:      result.Space.ID,
			GroupID: result.Space.GroupID,
			Name:    result.Space.Name,
		},
		Invitation: dto.InvitationResponse{
			Token:      result.Invitation.Token,
			Link:       result.Invitation.Link,
			SchemeLink: result.Invitation.SchemeLink,
			ExpiresAt:  result.Invitation.Invitation.ExpiresAt,
		},
	})
}

func creationFailureMessage(err error) string {
	for _, sentinel := range []error{
		services.ErrGroupCreationFailed,
		services.ErrMembershipCreationFailed,
		services.ErrSpaceCreationFailed,
		services.ErrInvitationCreationFailed,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "failed to create group"
}

func (h *GroupHandler) List(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	groups, err := h.groupService.GetUserGroups(context.Background(), userID)
	if err != nil {
		c.InternalServerError("failed to get groups")
		return
	}

	response := make([]dto.GroupResponse, len(groups))
	for i, g := range groups {
		response[i] = dto.GroupResponse{
			ID:          g.ID,
			Name:        g.Name,
			OwnerUserID: g.OwnerUserID,
			CreatedAt:   g.CreatedAt,
		}
	}

	_ = c.JSON(200, response)
}

func (h *GroupHandler) Get(c *drift.Context) {
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

	group, err := h.groupService.GetByID(context.Background(), groupID)
	if err != nil {
		c.NotFound("group not found")
		return
	}

	_ = c.JSON(200, dto.GroupResponse{
		ID:          group.ID,
		Name:        group.Name,
		OwnerUserID: group.OwnerUserID,
		CreatedAt:   group.CreatedAt,
	})
}

func (h *GroupHandler) GetMembers(c *drift.Context) {
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

	members, err := h.groupService.GetMembers(context.Background(), groupID)
	if err != nil {
		c.InternalServerError("failed to get members")
		return
	}

	response := make([]dto.GroupMemberResponse, len(members))
	for i, m := range members {
		response[i] = dto.GroupMemberResponse{
			ID:          m.ID,
			UserID:      m.UserID,
			GroupID:     m.GroupID,
			JoinedAt:    m.JoinedAt,
			DisplayName: m.DisplayName,
		}
	}

	_ = c.JSON(200, response)
}

func (h *GroupHandler) GetSpace(c *drift.Context) {
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

	space, err := h.groupService.GetSpaceByGroup(context.Background(), groupID)
	if err != nil {
		c.NotFound("space not found")
		return
	}

	_ = c.JSON(200, dto.SpaceResponse{
		ID:      space.ID,
		GroupID: space.GroupID,
		Name:    space.Name,
	})
}
