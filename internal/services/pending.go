package services

import (
	"context"
	"errors"

	"github.com/YotaroKono/sato-api/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PendingInviteService parks an invitation token for a user who opened an
// invite link before signing in, so redemption can resume after
// authentication. One token per user; saving again overwrites.
type PendingInviteService struct {
	db *database.DB
}

func NewPendingInviteService(db *database.DB) *PendingInviteService {
	return &PendingInviteService{db: db}
}

func (s *PendingInviteService) Save(ctx context.Context, userID uuid.UUID, token string) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO pending_invites (user_id, token)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET token = EXCLUDED.token, created_at = NOW()
	`, userID, token)
	return err
}

// Get returns the parked token, or the empty string when there is none.
func (s *PendingInviteService) Get(ctx context.Context, userID uuid.UUID) (string, error) {
	var token string
	err := s.db.Pool.QueryRow(ctx, `
		SELECT token FROM pending_invites WHERE user_id = $1
	`, userID).Scan(&token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return token, nil
}

func (s *PendingInviteService) Clear(ctx context.Context, userID uuid.UUID) error {
	_, err := s.db.Pool.Exec(ctx, `DELETE FROM pending_invites WHERE user_id = $1`, userID)
	return err
}
