package integration

import (
	"context"
	"strings"
	"testing"

	"github.com/YotaroKono/sato-api/internal/services"
	"github.com/YotaroKono/sato-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvitationService_Integration_CreateGroupWithInvitation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc, groupSvc := newInvitationService(tdb)
	ctx := context.Background()

	owner := fixtures.CreateUser(t, testutil.WithDisplayName("佐藤花子"))

	result, err := svc.CreateGroupWithInvitation(ctx, owner.ID, "佐藤家")

	require.NoError(t, err)
	assert.Equal(t, "佐藤家", result.Group.Name)
	assert.Equal(t, owner.ID, result.Group.OwnerUserID)
	assert.Equal(t, "佐藤家のスペース", result.Space.Name)
	assert.True(t, strings.HasPrefix(result.Invitation.Link, "https://sato-one.vercel.app/invite/"))
	assert.True(t, strings.HasPrefix(result.Invitation.SchemeLink, "sato://invite/"))

	// The owner became a member as part of creation.
	isMember, err := groupSvc.IsMember(ctx, result.Group.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, isMember)

	// The invitation issued at creation is redeemable by another user.
	joiner := fixtures.CreateUser(t)
	joined, err := svc.JoinGroup(ctx, joiner.ID, result.Invitation.Link)
	require.NoError(t, err)
	assert.Equal(t, result.Group.ID, joined.ID)
}

func TestInvitationService_Integration_JoinAcceptsAllLinkForms(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc, _ := newInvitationService(tdb)
	ctx := context.Background()

	owner := fixtures.CreateUser(t)
	group := fixtures.CreateGroup(t, owner, testutil.WithGroupName("佐藤家"))
	_, token := fixtures.CreateInvitation(t, group)

	inputs := []string{
		"https://sato-one.vercel.app/invite/" + token,
		"sato://invite/" + token,
		token,
	}

	for _, input := range inputs {
		joiner := fixtures.CreateUser(t)
		joined, err := svc.JoinGroup(ctx, joiner.ID, input)
		require.NoError(t, err, "input %q", input)
		assert.Equal(t, group.ID, joined.ID)
	}
}

func TestInvitationService_Integration_GetOrCreateReusesActive(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc, _ := newInvitationService(tdb)
	ctx := context.Background()

	owner := fixtures.CreateUser(t)
	group := fixtures.CreateGroup(t, owner)

	first, err := svc.GetOrCreateInvitation(ctx, group.ID)
	require.NoError(t, err)

	second, err := svc.GetOrCreateInvitation(ctx, group.ID)
	require.NoError(t, err)

	assert.Equal(t, first.Token, second.Token)
	assert.Equal(t, first.Link, second.Link)
}

func TestInvitationService_Integration_ExpiredInvitationRejectedAndReplaced(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc, _ := newInvitationService(tdb)
	ctx := context.Background()

	owner := fixtures.CreateUser(t)
	group := fixtures.CreateGroup(t, owner)
	_, expiredToken := fixtures.CreateInvitation(t, group, testutil.Expired())

	joiner := fixtures.CreateUser(t)
	_, err := svc.JoinGroup(ctx, joiner.ID, expiredToken)
	assert.ErrorIs(t, err, services.ErrInvalidInvitation)

	// An expired invitation does not count as active, so a new one is minted.
	issue, err := svc.GetOrCreateInvitation(ctx, group.ID)
	require.NoError(t, err)
	assert.NotEqual(t, expiredToken, issue.Token)

	joined, err := svc.JoinGroup(ctx, joiner.ID, issue.Link)
	require.NoError(t, err)
	assert.Equal(t, group.ID, joined.ID)
}

func TestInvitationService_Integration_OneGroupPerUser(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc, groupSvc := newInvitationService(tdb)
	ctx := context.Background()

	owner := fixtures.CreateUser(t)
	result, err := svc.CreateGroupWithInvitation(ctx, owner.ID, "佐藤家")
	require.NoError(t, err)

	// An owner cannot create a second group.
	_, err = svc.CreateGroupWithInvitation(ctx, owner.ID, "二つ目")
	assert.ErrorIs(t, err, services.ErrAlreadyInGroup)

	// The failed attempt left nothing behind.
	groups, err := groupSvc.GetUserGroups(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, result.Group.ID, groups[0].ID)

	// A user who already belongs somewhere cannot join another group.
	joiner := fixtures.CreateUser(t)
	_, err = svc.JoinGroup(ctx, joiner.ID, result.Invitation.Link)
	require.NoError(t, err)

	other := fixtures.CreateUser(t)
	otherGroup := fixtures.CreateGroup(t, other)
	_, otherToken := fixtures.CreateInvitation(t, otherGroup)

	_, err = svc.JoinGroup(ctx, joiner.ID, otherToken)
	assert.ErrorIs(t, err, services.ErrAlreadyInGroup)

	members, err := groupSvc.GetMembers(ctx, otherGroup.ID)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestInvitationService_Integration_MemberListWithDisplayNameFallback(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc, groupSvc := newInvitationService(tdb)
	ctx := context.Background()

	owner := fixtures.CreateUser(t, testutil.WithDisplayName("佐藤花子"))
	result, err := svc.CreateGroupWithInvitation(ctx, owner.ID, "佐藤家")
	require.NoError(t, err)

	joiner := fixtures.CreateUser(t, testutil.WithoutDisplayName())
	_, err = svc.JoinGroup(ctx, joiner.ID, result.Invitation.Link)
	require.NoError(t, err)

	members, err := groupSvc.GetMembers(ctx, result.Group.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)

	names := map[string]bool{}
	for _, m := range members {
		names[m.DisplayName] = true
	}
	assert.True(t, names["佐藤花子"])
	assert.True(t, names["名前未設定"])
}

func TestInvitationService_Integration_UnknownToken(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc, _ := newInvitationService(tdb)
	ctx := context.Background()

	joiner := fixtures.CreateUser(t)

	_, err := svc.JoinGroup(ctx, joiner.ID, "https://sato-one.vercel.app/invite/never-issued-token")
	assert.ErrorIs(t, err, services.ErrInvalidInvitation)
}

func TestPendingInviteService_Integration_SaveGetClear(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc := services.NewPendingInviteService(tdb.DB)
	ctx := context.Background()

	user := fixtures.CreateUser(t)

	token, err := svc.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, svc.Save(ctx, user.ID, "parked-token"))

	token, err = svc.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "parked-token", token)

	// Saving again replaces the parked token.
	require.NoError(t, svc.Save(ctx, user.ID, "newer-token"))
	token, err = svc.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "newer-token", token)

	require.NoError(t, svc.Clear(ctx, user.ID))
	token, err = svc.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestUserService_Integration_FindOrCreateFromOAuth(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	svc := services.NewUserService(tdb.DB)
	ctx := context.Background()

	info := testutil.OAuthUserInfo("hanako@example.com", "佐藤花子", "google-sub-1")

	created, err := svc.FindOrCreateFromOAuth(ctx, info)
	require.NoError(t, err)
	assert.Equal(t, "hanako@example.com", created.Email)

	// Second sign-in with the same provider identity returns the same row.
	found, err := svc.FindOrCreateFromOAuth(ctx, info)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}
