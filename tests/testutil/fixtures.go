package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/YotaroKono/sato-api/internal/database"
	"github.com/YotaroKono/sato-api/internal/invite"
	"github.com/YotaroKono/sato-api/internal/models"
	"github.com/YotaroKono/sato-api/internal/oauth"
	"github.com/google/uuid"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// CreateUser creates a test user with default values
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	f.counter++

	name := fmt.Sprintf("Test User %d", f.counter)
	user := &models.User{
		Email:       fmt.Sprintf("user%d@example.com", f.counter),
		DisplayName: &name,
		Provider:    "google",
		ProviderID:  fmt.Sprintf("provider-%d", f.counter),
	}

	for _, opt := range opts {
		opt(user)
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, display_name, avatar_url, provider, provider_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, email, display_name, avatar_url, provider, provider_id, created_at, updated_at
	`, user.Email, user.DisplayName, user.AvatarURL, user.Provider, user.ProviderID).Scan(
		&user.ID, &user.Email, &user.DisplayName, &user.AvatarURL,
		&user.Provider, &user.ProviderID, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user
}

// UserOption configures a test user
type UserOption func(*models.User)

// WithEmail sets the user's email
func WithEmail(email string) UserOption {
	return func(u *models.User) {
		u.Email = email
	}
}

// WithDisplayName sets the user's display name
func WithDisplayName(name string) UserOption {
	return func(u *models.User) {
		u.DisplayName = &name
	}
}

// WithoutDisplayName clears the display name, so the member view falls
// back to the placeholder
func WithoutDisplayName() UserOption {
	return func(u *models.User) {
		u.DisplayName = nil
	}
}

// CreateGroup creates a test group with the given owner, the owner's
// membership and the group's space
func (f *Fixtures) CreateGroup(t *testing.T, owner *models.User, opts ...GroupOption) *models.Group {
	t.Helper()
	f.counter++

	group := &models.Group{
		Name:        fmt.Sprintf("Test Group %d", f.counter),
		OwnerUserID: owner.ID,
	}

	for _, opt := range opts {
		opt(group)
	}

	ctx := context.Background()

	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO groups (name, owner_user_id)
		VALUES ($1, $2)
		RETURNING id, name, owner_user_id, created_at
	`, group.Name, group.OwnerUserID).Scan(&group.ID, &group.Name, &group.OwnerUserID, &group.CreatedAt)
	if err != nil {
		t.Fatalf("failed to create group: %v", err)
	}

	_, err = f.db.Pool.Exec(ctx, `
		INSERT INTO group_members (group_id, user_id)
		VALUES ($1, $2)
	`, group.ID, owner.ID)
	if err != nil {
		t.Fatalf("failed to add owner as member: %v", err)
	}

	_, err = f.db.Pool.Exec(ctx, `
		INSERT INTO spaces (group_id, name)
		VALUES ($1, $2)
	`, group.ID, group.Name+"のスペース")
	if err != nil {
		t.Fatalf("failed to create space: %v", err)
	}

	return group
}

// GroupOption configures a test group
type GroupOption func(*models.Group)

// WithGroupName sets the group's name
func WithGroupName(name string) GroupOption {
	return func(g *models.Group) {
		g.Name = name
	}
}

// AddGroupMember adds a member to a group
func (f *Fixtures) AddGroupMember(t *testing.T, group *models.Group, user *models.User) {
	t.Helper()
	ctx := context.Background()

	_, err := f.db.Pool.Exec(ctx, `
		INSERT INTO group_members (group_id, user_id)
		VALUES ($1, $2)
	`, group.ID, user.ID)
	if err != nil {
		t.Fatalf("failed to add group member: %v", err)
	}
}

// CreateInvitation creates a test invitation and returns it with its
// plaintext token
func (f *Fixtures) CreateInvitation(t *testing.T, group *models.Group, opts ...InvitationOption) (*models.Invitation, string) {
	t.Helper()

	token, err := invite.GenerateToken()
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	inv := &models.Invitation{
		GroupID:   group.ID,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}

	for _, opt := range opts {
		opt(inv)
	}

	ctx := context.Background()
	err = f.db.Pool.QueryRow(ctx, `
		INSERT INTO invitations (group_id, token, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, group_id, token, token_hash, expires_at, created_at
	`, inv.GroupID, token, invite.HashToken(token), inv.ExpiresAt).Scan(
		&inv.ID, &inv.GroupID, &inv.Token, &inv.TokenHash, &inv.ExpiresAt, &inv.CreatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create invitation: %v", err)
	}

	return inv, token
}

// InvitationOption configures a test invitation
type InvitationOption func(*models.Invitation)

// Expired makes the invitation already lapsed
func Expired() InvitationOption {
	return func(i *models.Invitation) {
		i.ExpiresAt = time.Now().Add(-time.Hour)
	}
}

// CreateRefreshToken creates a test refresh token
func (f *Fixtures) CreateRefreshToken(t *testing.T, userID uuid.UUID, tokenHash string, expiresAt time.Time) {
	t.Helper()
	ctx := context.Background()

	_, err := f.db.Pool.Exec(ctx, `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
	`, userID, tokenHash, expiresAt)
	if err != nil {
		t.Fatalf("failed to create refresh token: %v", err)
	}
}

// OAuthUserInfo creates test OAuth user info
func OAuthUserInfo(email, name, id string) *oauth.UserInfo {
	return &oauth.UserInfo{
		Email:     email,
		Name:      name,
		AvatarURL: "https://example.com/avatar.png",
		ID:        id,
		Provider:  "google",
	}
}
