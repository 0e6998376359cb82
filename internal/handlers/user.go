package handlers

import (
	"context"

	"github.com/YotaroKono/sato-api/internal/middleware"
	"github.com/YotaroKono/sato-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type UserHandler struct {
	userService UserServiceInterface
}

func NewUserHandler(userService UserServiceInterface) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) GetMe(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	user, err := h.userService.GetByID(context.Background(), userID)
	if err != nil {
		c.NotFound("user not found")
		return
	}

	_ = c.JSON(200, dto.UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
		Provider:    user.Provider,
	})
}

func (h *UserHandler) UpdateMe(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.UpdateUserRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.DisplayName == "" {
		c.BadRequest("display_name is required")
		return
	}

	user, err := h.userService.UpdateDisplayName(context.Background(), userID, req.DisplayName)
	if err != nil {
		c.InternalServerError("failed to update user")
		return
	}

	_ = c.JSON(200, dto.UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
		Provider:    user.Provider,
	})
}
