package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DefaultAnalysisListLimit caps how many saved analyses a listing returns
const DefaultAnalysisListLimit = 50

const analysisColumns = `id, user_id, job_description, resume_text, candidate_name, overall_score,
	summary, strengths, weaknesses, skills_analysis, experience_analysis, education_analysis,
	weights, created_at, updated_at`

func scanAnalysis(row pgx.Row) (*AnalysisResult, error) {
	var a AnalysisResult
	err := row.Scan(
		&a.ID, &a.UserID, &a.JobDescription, &a.ResumeText, &a.CandidateName, &a.OverallScore,
		&a.Summary, &a.Strengths, &a.Weaknesses, &a.SkillsAnalysis, &a.ExperienceAnalysis, &a.EducationAnalysis,
		&a.Weights, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if a.Strengths == nil {
		a.Strengths = []string{}
	}
	if a.Weaknesses == nil {
		a.Weaknesses = []string{}
	}
	return &a, nil
}

// SaveAnalysisResult inserts an analysis owned by a.UserID.
// ID and timestamps are assigned by the database and returned in the result.
func (db *DB) SaveAnalysisResult(ctx context.Context, a *AnalysisResult) (*AnalysisResult, error) {
	if a.UserID == uuid.Nil {
		return nil, fmt.Errorf("analysis result requires a user id")
	}
	strengths := a.Strengths
	if strengths == nil {
		strengths = []string{}
	}
	weaknesses := a.Weaknesses
	if weaknesses == nil {
		weaknesses = []string{}
	}

	saved, err := scanAnalysis(db.pool.QueryRow(ctx,
		`INSERT INTO analysis_results (user_id, job_description, resume_text, candidate_name, overall_score,
			summary, strengths, weaknesses, skills_analysis, experience_analysis, education_analysis, weights)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING `+analysisColumns,
		a.UserID, a.JobDescription, a.ResumeText, a.CandidateName, a.OverallScore,
		a.Summary, strengths, weaknesses, a.SkillsAnalysis, a.ExperienceAnalysis, a.EducationAnalysis, a.Weights,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to save analysis result: %w", err)
	}
	return saved, nil
}

// ListAnalysisResults returns a user's analyses newest first.
// A non-positive limit falls back to DefaultAnalysisListLimit.
func (db *DB) ListAnalysisResults(ctx context.Context, userID uuid.UUID, limit int) ([]AnalysisResult, error) {
	if limit <= 0 {
		limit = DefaultAnalysisListLimit
	}
	rows, err := db.pool.Query(ctx,
		`SELECT `+analysisColumns+` FROM analysis_results
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis results: %w", err)
	}
	defer rows.Close()

	results := []AnalysisResult{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis result: %w", err)
		}
		results = append(results, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate analysis results: %w", err)
	}
	return results, nil
}

// GetAnalysisResult retrieves one analysis owned by the user. Returns nil, nil when not found.
func (db *DB) GetAnalysisResult(ctx context.Context, userID, id uuid.UUID) (*AnalysisResult, error) {
	a, err := scanAnalysis(db.pool.QueryRow(ctx,
		`SELECT `+analysisColumns+` FROM analysis_results WHERE id = $1 AND user_id = $2`,
		id, userID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis result: %w", err)
	}
	return a, nil
}

// DeleteAnalysisResult removes one analysis owned by the user and reports whether it existed
func (db *DB) DeleteAnalysisResult(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`DELETE FROM analysis_results WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete analysis result: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetAnalysisStats aggregates the user's analyses: count, rounded average,
// the five most recent analyses and the ten most recent scores
func (db *DB) GetAnalysisStats(ctx context.Context, userID uuid.UUID) (*AnalysisStats, error) {
	stats := &AnalysisStats{Trend: []float64{}}
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(ROUND(AVG(overall_score)::numeric), 0)::int
		 FROM analysis_results WHERE user_id = $1`,
		userID,
	).Scan(&stats.Total, &stats.Average)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate analysis results: %w", err)
	}

	stats.Recent, err = db.ListAnalysisResults(ctx, userID, 5)
	if err != nil {
		return nil, err
	}

	rows, err := db.pool.Query(ctx,
		`SELECT overall_score FROM analysis_results
		 WHERE user_id = $1 ORDER BY created_at DESC LIMIT 10`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load score trend: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var score float64
		if err := rows.Scan(&score); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		stats.Trend = append(stats.Trend, score)
	}
	return stats, rows.Err()
}
