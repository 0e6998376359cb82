package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/YotaroKono/sato-api/internal/database"
	"github.com/YotaroKono/sato-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrGroupNotFound = errors.New("group not found")
	ErrSpaceNotFound = errors.New("space not found")
	// ErrAlreadyMember surfaces the unique constraint on
	// group_members.user_id: the user already belongs to a group somewhere.
	ErrAlreadyMember = errors.New("user already belongs to a group")
)

// GroupService owns the groups, group_members and spaces tables. It does
// pure row operations; membership rules and rollback orchestration live in
// InvitationService.
type GroupService struct {
	db *database.DB
}

func NewGroupService(db *database.DB) *GroupService {
	return &GroupService{db: db}
}

func (s *GroupService) CreateGroup(ctx context.Context, name string, ownerUserID uuid.UUID) (*models.Group, error) {
	var group models.Group
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO groups (name, owner_user_id)
		VALUES ($1, $2)
		RETURNING id, name, owner_user_id, created_at
	`, name, ownerUserID).Scan(&group.ID, &group.Name, &group.OwnerUserID, &group.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}
	return &group, nil
}

func (s *GroupService) AddMember(ctx context.Context, groupID, userID uuid.UUID) (*models.GroupMember, error) {
	var member models.GroupMember
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO group_members (group_id, user_id)
		VALUES ($1, $2)
		RETURNING id, group_id, user_id, joined_at
	`, groupID, userID).Scan(&member.ID, &member.GroupID, &member.UserID, &member.JoinedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyMember
		}
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	return &member, nil
}

func (s *GroupService) CreateSpace(ctx context.Context, groupID uuid.UUID, name string) (*models.Space, error) {
	var space models.Space
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO spaces (group_id, name)
		VALUES ($1, $2)
		RETURNING id, group_id, name, created_at
	`, groupID, name).Scan(&space.ID, &space.GroupID, &space.Name, &space.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create space: %w", err)
	}
	return &space, nil
}

func (s *GroupService) DeleteGroup(ctx context.Context, groupID uuid.UUID) error {
	_, err := s.db.Pool.Exec(ctx, `DELETE FROM groups WHERE id = $1`, groupID)
	return err
}

func (s *GroupService) RemoveMembers(ctx context.Context, groupID uuid.UUID) error {
	_, err := s.db.Pool.Exec(ctx, `DELETE FROM group_members WHERE group_id = $1`, groupID)
	return err
}

func (s *GroupService) DeleteSpace(ctx context.Context, spaceID uuid.UUID) error {
	_, err := s.db.Pool.Exec(ctx, `DELETE FROM spaces WHERE id = $1`, spaceID)
	return err
}

func (s *GroupService) GetByID(ctx context.Context, groupID uuid.UUID) (*models.Group, error) {
	var group models.Group
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, name, owner_user_id, created_at
		FROM groups WHERE id = $1
	`, groupID).Scan(&group.ID, &group.Name, &group.OwnerUserID, &group.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return &group, nil
}

func (s *GroupService) GetUserGroups(ctx context.Context, userID uuid.UUID) ([]models.Group, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT g.id, g.name, g.owner_user_id, g.created_at
		FROM groups g
		JOIN group_members gm ON g.id = gm.group_id
		WHERE gm.user_id = $1
		ORDER BY g.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []models.Group
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.OwnerUserID, &g.CreatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (s *GroupService) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)
	`, groupID, userID).Scan(&exists)
	return exists, err
}

func (s *GroupService) GetSpaceByGroup(ctx context.Context, groupID uuid.UUID) (*models.Space, error) {
	var space models.Space
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, group_id, name, created_at
		FROM spaces WHERE group_id = $1
	`, groupID).Scan(&space.ID, &space.GroupID, &space.Name, &space.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSpaceNotFound
		}
		return nil, err
	}
	return &space, nil
}

// GetMembers reads the group_members_with_users view, the contract the
// member-listing screen consumes.
func (s *GroupService) GetMembers(ctx context.Context, groupID uuid.UUID) ([]models.GroupMemberWithUser, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, user_id, group_id, joined_at, display_name
		FROM group_members_with_users
		WHERE group_id = $1
		ORDER BY joined_at
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.GroupMemberWithUser
	for rows.Next() {
		var m models.GroupMemberWithUser
		if err := rows.Scan(&m.ID, &m.UserID, &m.GroupID, &m.JoinedAt, &m.DisplayName); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
