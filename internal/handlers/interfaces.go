package handlers

import (
	"context"
	"time"

	"github.com/YotaroKono/sato-api/internal/models"
	"github.com/YotaroKono/sato-api/internal/oauth"
	"github.com/YotaroKono/sato-api/internal/services"
	"github.com/YotaroKono/sato-api/internal/sse"
	"github.com/google/uuid"
)

// UserServiceInterface defines the methods used by handlers from UserService
type UserServiceInterface interface {
	FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateDisplayName(ctx context.Context, id uuid.UUID, displayName string) (*models.User, error)
}

// GroupServiceInterface defines the methods used by handlers from GroupService
type GroupServiceInterface interface {
	GetByID(ctx context.Context, groupID uuid.UUID) (*models.Group, error)
	GetUserGroups(ctx context.Context, userID uuid.UUID) ([]models.Group, error)
	IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
	GetMembers(ctx context.Context, groupID uuid.UUID) ([]models.GroupMemberWithUser, error)
	GetSpaceByGroup(ctx context.Context, groupID uuid.UUID) (*models.Space, error)
}

// InvitationServiceInterface defines the methods used by handlers from InvitationService
type InvitationServiceInterface interface {
	CreateGroupWithInvitation(ctx context.Context, ownerUserID uuid.UUID, groupName string) (*services.GroupCreation, error)
	GetOrCreateInvitation(ctx context.Context, groupID uuid.UUID) (*services.InvitationIssue, error)
	JoinGroup(ctx context.Context, userID uuid.UUID, linkOrToken string) (*models.Group, error)
}

// PendingInviteServiceInterface defines the methods used by handlers from PendingInviteService
type PendingInviteServiceInterface interface {
	Save(ctx context.Context, userID uuid.UUID, token string) error
	Get(ctx context.Context, userID uuid.UUID) (string, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

// TokenServiceInterface defines the methods used by handlers from TokenService
type TokenServiceInterface interface {
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	ValidateRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
}

// JWTServiceInterface defines the methods used by handlers from JWTService
type JWTServiceInterface interface {
	GenerateTokenPair(userID uuid.UUID, email string) (*services.TokenPair, error)
	ValidateRefreshToken(token string) (uuid.UUID, error)
	RefreshExpiry() time.Duration
}

// HubInterface defines the methods used by handlers from the Hub
type HubInterface interface {
	Register(client *sse.Client)
	Unregister(client *sse.Client)
	BroadcastMemberJoined(groupID, userID uuid.UUID, joinedAt time.Time)
	BroadcastInvitationCreated(groupID uuid.UUID, expiresAt time.Time)
}
