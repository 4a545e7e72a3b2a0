package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const profileColumns = `id, full_name, avatar_url, company, role, created_at, updated_at`

func scanProfile(row pgx.Row) (*UserProfile, error) {
	var p UserProfile
	err := row.Scan(&p.ID, &p.FullName, &p.AvatarURL, &p.Company, &p.Role, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetUserProfile retrieves the profile for a user. Returns nil, nil when none exists.
func (db *DB) GetUserProfile(ctx context.Context, userID uuid.UUID) (*UserProfile, error) {
	p, err := scanProfile(db.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM user_profiles WHERE id = $1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}
	return p, nil
}

// CreateUserProfile inserts a profile for a user
func (db *DB) CreateUserProfile(ctx context.Context, userID uuid.UUID, fields ProfileFields) (*UserProfile, error) {
	p, err := scanProfile(db.pool.QueryRow(ctx,
		`INSERT INTO user_profiles (id, full_name, avatar_url, company, role)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+profileColumns,
		userID, deref(fields.FullName), deref(fields.AvatarURL), deref(fields.Company), deref(fields.Role),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create user profile: %w", err)
	}
	return p, nil
}

// UpdateUserProfile applies the non-nil fields to a profile.
// Returns nil, nil when the user has no profile.
func (db *DB) UpdateUserProfile(ctx context.Context, userID uuid.UUID, fields ProfileFields) (*UserProfile, error) {
	sets := []string{}
	args := []any{userID}
	add := func(column string, v *string) {
		if v == nil {
			return
		}
		args = append(args, *v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("full_name", fields.FullName)
	add("avatar_url", fields.AvatarURL)
	add("company", fields.Company)
	add("role", fields.Role)

	if len(sets) == 0 {
		return db.GetUserProfile(ctx, userID)
	}
	sets = append(sets, "updated_at = NOW()")

	p, err := scanProfile(db.pool.QueryRow(ctx,
		`UPDATE user_profiles SET `+strings.Join(sets, ", ")+` WHERE id = $1 RETURNING `+profileColumns,
		args...,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user profile: %w", err)
	}
	return p, nil
}

// EnsureUserProfile returns the user's profile, creating an empty one if missing
func (db *DB) EnsureUserProfile(ctx context.Context, userID uuid.UUID) (*UserProfile, error) {
	p, err := scanProfile(db.pool.QueryRow(ctx,
		`INSERT INTO user_profiles (id) VALUES ($1)
		 ON CONFLICT (id) DO UPDATE SET id = EXCLUDED.id
		 RETURNING `+profileColumns,
		userID,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to ensure user profile: %w", err)
	}
	return p, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
