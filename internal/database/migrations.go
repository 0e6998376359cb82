package database

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		email VARCHAR(255) UNIQUE NOT NULL,
		display_name VARCHAR(255),
		avatar_url VARCHAR(500),
		provider VARCHAR(50) NOT NULL,
		provider_id VARCHAR(255) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(provider, provider_id)
	)`,

	`CREATE TABLE IF NOT EXISTS groups (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(255) NOT NULL,
		owner_user_id UUID NOT NULL REFERENCES users(id),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	// UNIQUE(user_id) is system-wide on purpose: a user belongs to at most
	// one group, and the constraint is the backstop for the join race where
	// two concurrent joins both pass the not-yet-in-a-group pre-check.
	`CREATE TABLE IF NOT EXISTS group_members (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		group_id UUID NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		joined_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS spaces (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		group_id UUID NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	// The plaintext token is kept only so an unexpired invitation can be
	// re-shared as the same link; redemption looks up by token_hash alone.
	`CREATE TABLE IF NOT EXISTS invitations (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		group_id UUID NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
		token VARCHAR(255),
		token_hash VARCHAR(255) NOT NULL UNIQUE,
		expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token_hash VARCHAR(255) NOT NULL UNIQUE,
		expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	// Invite token parked by a user who opened an invite link before
	// signing in; redeemed and cleared after authentication.
	`CREATE TABLE IF NOT EXISTS pending_invites (
		user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		token VARCHAR(255) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_group_members_group_id ON group_members(group_id)`,
	`CREATE INDEX IF NOT EXISTS idx_spaces_group_id ON spaces(group_id)`,
	`CREATE INDEX IF NOT EXISTS idx_invitations_group_id ON invitations(group_id)`,
	`CREATE INDEX IF NOT EXISTS idx_invitations_token_hash ON invitations(token_hash)`,
	`CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user_id ON refresh_tokens(user_id)`,

	// Read-optimized member listing; display_name falls back the way the
	// mobile client renders unnamed members.
	`CREATE OR REPLACE VIEW group_members_with_users AS
		SELECT gm.id, gm.user_id, gm.group_id, gm.joined_at,
		       COALESCE(u.display_name, '名前未設定') AS display_name
		FROM group_members gm
		LEFT JOIN users u ON gm.user_id = u.id`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
