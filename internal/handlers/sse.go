package handlers

import (
	"context"

	"github.com/YotaroKono/sato-api/internal/middleware"
	"github.com/YotaroKono/sato-api/internal/sse"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type SSEHandler struct {
	hub          HubInterface
	groupService GroupServiceInterface
}

func NewSSEHandler(hub HubInterface, groupService GroupServiceInterface) *SSEHandler {
	return &SSEHandler{
		hub:          hub,
		groupService: groupService,
	}
}

// Connect opens the group's event stream. The subscription is fixed to one
// group for the life of the connection.
func (h *SSEHandler) Connect(c *drift.Context) {
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

	sseCtx := c.SSE()

	clientID := uuid.New().String()
	client := &sse.Client{
		ID:      clientID,
		UserID:  userID,
		GroupID: groupID,
		Send:    make(chan []byte, 256),
	}

	h.hub.Register(client)
	defer h.hub.Unregister(client)

	if err := sseCtx.SendJSON(map[string]string{
		"type":      "connected",
		"client_id": clientID,
	}, "system", ""); err != nil {
		return
	}

	done := make(chan struct{})
	go func() {
		<-c.Request.Context().Done()
		close(done)
	}()

	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			if err := sseCtx.Send(string(msg), "message", ""); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
