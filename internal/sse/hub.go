package sse

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// MemberJoinedEvent tells connected group members that someone redeemed an
// invitation; clients react by refreshing the member list.
type MemberJoinedEvent struct {
	GroupID  uuid.UUID `json:"group_id"`
	UserID   uuid.UUID `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

type InvitationCreatedEvent struct {
	GroupID   uuid.UUID `json:"group_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Client is one open event stream. A user belongs to at most one group, so
// each client carries a single group subscription fixed at connect time.
type Client struct {
	ID      string
	UserID  uuid.UUID
	GroupID uuid.UUID
	Send    chan []byte
}

type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *GroupMessage
	mu         sync.RWMutex
}

type GroupMessage struct {
	GroupID uuid.UUID
	Event   Event
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *GroupMessage, 256),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.Event)
			for _, client := range h.clients {
				if client.GroupID == msg.GroupID {
					select {
					case client.Send <- data:
					default:
						// Client buffer full, skip
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) BroadcastMemberJoined(groupID, userID uuid.UUID, joinedAt time.Time) {
	h.broadcast <- &GroupMessage{
		GroupID: groupID,
		Event: Event{
			Type: "member_joined",
			Data: MemberJoinedEvent{
				GroupID:  groupID,
				UserID:   userID,
				JoinedAt: joinedAt,
			},
		},
	}
}

func (h *Hub) BroadcastInvitationCreated(groupID uuid.UUID, expiresAt time.Time) {
	h.broadcast <- &GroupMessage{
		GroupID: groupID,
		Event: Event{
			Type: "invitation_created",
			Data: InvitationCreatedEvent{
				GroupID:   groupID,
				ExpiresAt: expiresAt,
			},
		},
	}
}
