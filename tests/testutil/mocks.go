package testutil

import (
	"context"
	"time"

	"github.com/YotaroKono/sato-api/internal/models"
	"github.com/YotaroKono/sato-api/internal/oauth"
	"github.com/YotaroKono/sato-api/internal/services"
	"github.com/YotaroKono/sato-api/internal/sse"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUserService mocks the UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error) {
	args := m.Called(ctx, info)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) UpdateDisplayName(ctx context.Context, id uuid.UUID, displayName string) (*models.User, error) {
	args := m.Called(ctx, id, displayName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockGroupService mocks the GroupService
type MockGroupService struct {
	mock.Mock
}

func (m *MockGroupService) GetByID(ctx context.Context, groupID uuid.UUID) (*models.Group, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Group), args.Error(1)
}

func (m *MockGroupService) GetUserGroups(ctx context.Context, userID uuid.UUID) ([]models.Group, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Group), args.Error(1)
}

func (m *MockGroupService) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, groupID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockGroupService) GetMembers(ctx context.Context, groupID uuid.UUID) ([]models.GroupMemberWithUser, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.GroupMemberWithUser), args.Error(1)
}

func (m *MockGroupService) GetSpaceByGroup(ctx context.Context, groupID uuid.UUID) (*models.Space, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Space), args.Error(1)
}

// MockInvitationService mocks the InvitationService
type MockInvitationService struct {
	mock.Mock
}

func (m *MockInvitationService) CreateGroupWithInvitation(ctx context.Context, ownerUserID uuid.UUID, groupName string) (*services.GroupCreation, error) {
	args := m.Called(ctx, ownerUserID, groupName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.GroupCreation), args.Error(1)
}

func (m *MockInvitationService) GetOrCreateInvitation(ctx context.Context, groupID uuid.UUID) (*services.InvitationIssue, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.InvitationIssue), args.Error(1)
}

func (m *MockInvitationService) JoinGroup(ctx context.Context, userID uuid.UUID, linkOrToken string) (*models.Group, error) {
	args := m.Called(ctx, userID, linkOrToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Group), args.Error(1)
}

// MockPendingInviteService mocks the PendingInviteService
type MockPendingInviteService struct {
	mock.Mock
}

func (m *MockPendingInviteService) Save(ctx context.Context, userID uuid.UUID, token string) error {
	args := m.Called(ctx, userID, token)
	return args.Error(0)
}

func (m *MockPendingInviteService) Get(ctx context.Context, userID uuid.UUID) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockPendingInviteService) Clear(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockTokenService mocks the TokenService
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, tokenHash, expiresAt)
	return args.Error(0)
}

func (m *MockTokenService) ValidateRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	args := m.Called(ctx, tokenHash)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockTokenService) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *MockTokenService) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockHub mocks the SSE hub
type MockHub struct {
	mock.Mock
}

func (m *MockHub) Register(client *sse.Client) {
	m.Called(client)
}

func (m *MockHub) Unregister(client *sse.Client) {
	m.Called(client)
}

func (m *MockHub) BroadcastMemberJoined(groupID, userID uuid.UUID, joinedAt time.Time) {
	m.Called(groupID, userID, joinedAt)
}

func (m *MockHub) BroadcastInvitationCreated(groupID uuid.UUID, expiresAt time.Time) {
	m.Called(groupID, expiresAt)
}
