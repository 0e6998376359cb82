package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/YotaroKono/sato-api/internal/database"
	"github.com/YotaroKono/sato-api/internal/invite"
	"github.com/YotaroKono/sato-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrGroupCreationFailed      = errors.New("could not create the group")
	ErrMembershipCreationFailed = errors.New("could not add the owner to the group")
	ErrSpaceCreationFailed      = errors.New("could not create the group's space")
	ErrInvitationCreationFailed = errors.New("could not create an invitation link")

	ErrAlreadyInGroup = errors.New("participation is limited to one group")
	// ErrInvalidInvitation covers both never-issued and expired tokens.
	// The two are deliberately indistinguishable so a caller cannot probe
	// whether a token ever existed.
	ErrInvalidInvitation = errors.New("this invitation link is invalid, ask for a new invitation")
	ErrJoinFailed        = errors.New("could not join the group, try again later")
)

// InvitationTTL is the validity window of every invitation.
const InvitationTTL = 24 * time.Hour

// InvitationService issues and redeems group invitations. The multi-step
// issuance sequence is not transactional: the store is used as single-row
// atomic operations with compensating deletes on failure, in strict
// reverse creation order.
type InvitationService struct {
	db     *database.DB
	groups *GroupService
	linker *invite.Linker
}

func NewInvitationService(db *database.DB, groups *GroupService, linker *invite.Linker) *InvitationService {
	return &InvitationService{db: db, groups: groups, linker: linker}
}

// GroupCreation is everything CreateGroupWithInvitation produces.
// Invitation carries the plaintext token and rendered links, returned once
// to the caller.
type GroupCreation struct {
	Group      *models.Group
	Member     *models.GroupMember
	Space      *models.Space
	Invitation *InvitationIssue
}

// InvitationIssue is a shareable invitation: the row, the plaintext token
// and both rendered link forms.
type InvitationIssue struct {
	Invitation *models.Invitation
	Token      string
	Link       string
	SchemeLink string
}

// CreateGroupWithInvitation creates a group, its owner membership, its
// space and its first invitation. Each step runs only if the previous one
// succeeded; on failure everything created so far is deleted best-effort
// and a step-specific error is returned.
func (s *InvitationService) CreateGroupWithInvitation(ctx context.Context, ownerUserID uuid.UUID, groupName string) (*GroupCreation, error) {
	group, err := s.groups.CreateGroup(ctx, groupName, ownerUserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGroupCreationFailed, err)
	}

	member, err := s.groups.AddMember(ctx, group.ID, ownerUserID)
	if err != nil {
		s.compensate("group", func() error { return s.groups.DeleteGroup(ctx, group.ID) })
		if errors.Is(err, ErrAlreadyMember) {
			return nil, ErrAlreadyInGroup
		}
		return nil, fmt.Errorf("%w: %v", ErrMembershipCreationFailed, err)
	}

	space, err := s.groups.CreateSpace(ctx, group.ID, groupName+"のスペース")
	if err != nil {
		s.compensate("members", func() error { return s.groups.RemoveMembers(ctx, group.ID) })
		s.compensate("group", func() error { return s.groups.DeleteGroup(ctx, group.ID) })
		return nil, fmt.Errorf("%w: %v", ErrSpaceCreationFailed, err)
	}

	issue, err := s.CreateInvitation(ctx, group.ID)
	if err != nil {
		s.compensate("space", func() error { return s.groups.DeleteSpace(ctx, space.ID) })
		s.compensate("members", func() error { return s.groups.RemoveMembers(ctx, group.ID) })
		s.compensate("group", func() error { return s.groups.DeleteGroup(ctx, group.ID) })
		return nil, fmt.Errorf("%w: %v", ErrInvitationCreationFailed, err)
	}

	return &GroupCreation{
		Group:      group,
		Member:     member,
		Space:      space,
		Invitation: issue,
	}, nil
}

// compensate runs one rollback delete. Failures are logged and swallowed:
// compensation is best-effort and must not mask the primary error.
func (s *InvitationService) compensate(what string, del func() error) {
	if err := del(); err != nil {
		log.Printf("rollback: failed to delete %s: %v", what, err)
	}
}

// CreateInvitation mints a fresh invitation for the group: new token, new
// row, expiry 24h out. Existing rows are never touched.
func (s *InvitationService) CreateInvitation(ctx context.Context, groupID uuid.UUID) (*InvitationIssue, error) {
	token, err := invite.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate invitation token: %w", err)
	}

	expiresAt := time.Now().Add(InvitationTTL)

	var inv models.Invitation
	err = s.db.Pool.QueryRow(ctx, `
		INSERT INTO invitations (group_id, token, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, group_id, token, token_hash, expires_at, created_at
	`, groupID, token, invite.HashToken(token), expiresAt).Scan(
		&inv.ID, &inv.GroupID, &inv.Token, &inv.TokenHash, &inv.ExpiresAt, &inv.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert invitation: %w", err)
	}

	return &InvitationIssue{
		Invitation: &inv,
		Token:      token,
		Link:       s.linker.BuildLink(token),
		SchemeLink: s.linker.BuildSchemeLink(token),
	}, nil
}

// GetOrCreateInvitation returns the group's current shareable link. If an
// unexpired invitation with a retrievable plaintext token exists it is
// reused, so a group keeps a single "current" link until it lapses;
// otherwise a fresh invitation is minted.
func (s *InvitationService) GetOrCreateInvitation(ctx context.Context, groupID uuid.UUID) (*InvitationIssue, error) {
	existing, err := s.findActiveByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvitationCreationFailed, err)
	}

	if existing != nil && existing.Token != nil && *existing.Token != "" {
		token := *existing.Token
		return &InvitationIssue{
			Invitation: existing,
			Token:      token,
			Link:       s.linker.BuildLink(token),
			SchemeLink: s.linker.BuildSchemeLink(token),
		}, nil
	}

	issue, err := s.CreateInvitation(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvitationCreationFailed, err)
	}
	return issue, nil
}

// JoinGroup redeems an invitation link (or bare token) for the calling
// user and returns the joined group. The one-group-per-user rule is
// pre-checked here and additionally enforced by the unique constraint on
// group_members.user_id, which catches the race where two concurrent
// joins both pass the pre-check.
func (s *InvitationService) JoinGroup(ctx context.Context, userID uuid.UUID, linkOrToken string) (*models.Group, error) {
	token := s.linker.ExtractToken(linkOrToken)

	existing, err := s.groups.GetUserGroups(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJoinFailed, err)
	}
	if len(existing) > 0 {
		return nil, ErrAlreadyInGroup
	}

	inv, err := s.findByTokenHash(ctx, invite.HashToken(token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidInvitation
		}
		return nil, fmt.Errorf("%w: %v", ErrJoinFailed, err)
	}
	if inv.Expired(time.Now()) {
		return nil, ErrInvalidInvitation
	}

	if _, err := s.groups.AddMember(ctx, inv.GroupID, userID); err != nil {
		// Lost race against a concurrent join lands here as a constraint
		// violation; either way the join did not happen.
		return nil, fmt.Errorf("%w: %v", ErrJoinFailed, err)
	}

	group, err := s.groups.GetByID(ctx, inv.GroupID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJoinFailed, err)
	}

	return group, nil
}

// findActiveByGroup returns the invitation with the latest expiry still in
// the future, or nil when none qualifies.
func (s *InvitationService) findActiveByGroup(ctx context.Context, groupID uuid.UUID) (*models.Invitation, error) {
	var inv models.Invitation
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, group_id, token, token_hash, expires_at, created_at
		FROM invitations
		WHERE group_id = $1 AND expires_at > NOW()
		ORDER BY expires_at DESC
		LIMIT 1
	`, groupID).Scan(&inv.ID, &inv.GroupID, &inv.Token, &inv.TokenHash, &inv.ExpiresAt, &inv.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &inv, nil
}

// findByTokenHash looks an invitation up by digest only; expiry is checked
// by the caller so expired and unknown tokens fail identically.
func (s *InvitationService) findByTokenHash(ctx context.Context, tokenHash string) (*models.Invitation, error) {
	var inv models.Invitation
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, group_id, token, token_hash, expires_at, created_at
		FROM invitations
		WHERE token_hash = $1
	`, tokenHash).Scan(&inv.ID, &inv.GroupID, &inv.Token, &inv.TokenHash, &inv.ExpiresAt, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}
