package db

import (
	"context"
	"fmt"
)

// Migration is a named, idempotent schema change
type Migration struct {
	Name string
	Up   string
}

// Migrations lists the schema in the order it is applied
var Migrations = []Migration{
	{
		Name: "001_users",
		Up: `CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	},
	{
		Name: "002_user_profiles",
		Up: `CREATE TABLE IF NOT EXISTS user_profiles (
			id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			full_name TEXT NOT NULL DEFAULT '',
			avatar_url TEXT NOT NULL DEFAULT '',
			company TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	},
	{
		Name: "003_analysis_results",
		Up: `CREATE TABLE IF NOT EXISTS analysis_results (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			job_description TEXT NOT NULL,
			resume_text TEXT NOT NULL,
			candidate_name TEXT NOT NULL,
			overall_score DOUBLE PRECISION NOT NULL,
			summary TEXT NOT NULL DEFAULT '',
			strengths JSONB NOT NULL DEFAULT '[]',
			weaknesses JSONB NOT NULL DEFAULT '[]',
			skills_analysis JSONB NOT NULL,
			experience_analysis JSONB NOT NULL,
			education_analysis JSONB NOT NULL,
			weights JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	},
	{
		Name: "004_analysis_results_user_created_idx",
		Up:   `CREATE INDEX IF NOT EXISTS idx_analysis_results_user_created ON analysis_results (user_id, created_at DESC)`,
	},
}

// Migrate applies any migration not yet recorded in schema_migrations.
// It returns the names of the migrations it applied.
func (db *DB) Migrate(ctx context.Context) ([]string, error) {
	_, err := db.pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS schema_migrations (
			name TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var applied []string
	for _, m := range Migrations {
		var exists bool
		err := db.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE name = $1)`, m.Name,
		).Scan(&exists)
		if err != nil {
			return applied, fmt.Errorf("failed to check migration %s: %w", m.Name, err)
		}
		if exists {
			continue
		}

		tx, err := db.pool.Begin(ctx)
		if err != nil {
			return applied, fmt.Errorf("failed to begin migration %s: %w", m.Name, err)
		}
		if _, err := tx.Exec(ctx, m.Up); err != nil {
			_ = tx.Rollback(ctx)
			return applied, fmt.Errorf("failed to apply migration %s: %w", m.Name, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, m.Name); err != nil {
			_ = tx.Rollback(ctx)
			return applied, fmt.Errorf("failed to record migration %s: %w", m.Name, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return applied, fmt.Errorf("failed to commit migration %s: %w", m.Name, err)
		}
		applied = append(applied, m.Name)
	}
	return applied, nil
}
