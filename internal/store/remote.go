package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-screener/internal/db"
	"github.com/jonathan/resume-screener/internal/logger"
	"github.com/jonathan/resume-screener/internal/types"
	"go.uber.org/zap"
)

// SavedAnalysisFileName stands in for the file name, which the remote table does not keep.
const SavedAnalysisFileName = "Saved Analysis"

// AnalysisRepository is the subset of the database used by RemoteStore.
type AnalysisRepository interface {
	SaveAnalysisResult(ctx context.Context, a *db.AnalysisResult) (*db.AnalysisResult, error)
	ListAnalysisResults(ctx context.Context, userID uuid.UUID, limit int) ([]db.AnalysisResult, error)
	DeleteAnalysisResult(ctx context.Context, userID, id uuid.UUID) (bool, error)
	GetAnalysisStats(ctx context.Context, userID uuid.UUID) (*db.AnalysisStats, error)
}

// RemoteStore keeps a signed-in user's analyses in Postgres. Every operation is
// restricted to the user named by scope.
type RemoteStore struct {
	repo   AnalysisRepository
	limit  int
	logger *zap.Logger
}

// NewRemoteStore creates a RemoteStore listing at most limit records (0 uses the database default).
func NewRemoteStore(repo AnalysisRepository, limit int, log *zap.Logger) *RemoteStore {
	return &RemoteStore{
		repo:   repo,
		limit:  limit,
		logger: logger.OrNop(log).With(zap.String("store", BackendRemote)),
	}
}

var errNoScope = errors.New("a user scope is required")

func parseScope(scope string) (uuid.UUID, error) {
	if scope == "" {
		return uuid.Nil, errNoScope
	}
	id, err := uuid.Parse(scope)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user scope %q: %w", scope, err)
	}
	return id, nil
}

// Save implements RecordStore. The returned analysis carries the database ID and creation time.
func (s *RemoteStore) Save(ctx context.Context, rec Record, scope string) (types.StoredAnalysis, error) {
	userID, err := parseScope(scope)
	if err != nil {
		return types.StoredAnalysis{}, &StoreError{Backend: BackendRemote, Op: "save", Cause: err}
	}

	a := rec.Analysis
	saved, err := s.repo.SaveAnalysisResult(ctx, &db.AnalysisResult{
		UserID:             userID,
		JobDescription:     rec.JobDescription,
		ResumeText:         rec.ResumeText,
		CandidateName:      a.CandidateName,
		OverallScore:       a.OverallScore,
		Summary:            a.Summary,
		Strengths:          a.Strengths,
		Weaknesses:         a.Weaknesses,
		SkillsAnalysis:     db.Section(a.SkillsAnalysis),
		ExperienceAnalysis: db.Section(a.ExperienceAnalysis),
		EducationAnalysis:  db.Section(a.EducationAnalysis),
		Weights:            db.Weights(rec.Weights),
	})
	if err != nil {
		return types.StoredAnalysis{}, &StoreError{Backend: BackendRemote, Op: "save", Cause: err}
	}

	stored := fromRow(saved)
	if a.FileName != "" {
		stored.FileName = a.FileName
	}
	return stored, nil
}

// List implements RecordStore.
func (s *RemoteStore) List(ctx context.Context, scope string) ([]types.StoredAnalysis, error) {
	userID, err := parseScope(scope)
	if err != nil {
		return nil, &StoreError{Backend: BackendRemote, Op: "list", Cause: err}
	}

	rows, err := s.repo.ListAnalysisResults(ctx, userID, s.limit)
	if err != nil {
		return nil, &StoreError{Backend: BackendRemote, Op: "list", Cause: err}
	}

	out := make([]types.StoredAnalysis, 0, len(rows))
	for i := range rows {
		out = append(out, fromRow(&rows[i]))
	}
	return out, nil
}

// Delete implements RecordStore. IDs that are not database IDs cannot match and report false.
func (s *RemoteStore) Delete(ctx context.Context, id, scope string) (bool, error) {
	userID, err := parseScope(scope)
	if err != nil {
		return false, &StoreError{Backend: BackendRemote, Op: "delete", Cause: err}
	}
	recordID, err := uuid.Parse(id)
	if err != nil {
		s.logger.Debug("skipping remote delete of non-remote id", zap.String("id", id))
		return false, nil
	}

	deleted, err := s.repo.DeleteAnalysisResult(ctx, userID, recordID)
	if err != nil {
		return false, &StoreError{Backend: BackendRemote, Op: "delete", Cause: err}
	}
	return deleted, nil
}

// Stats returns the aggregate statistics for the user's saved analyses.
func (s *RemoteStore) Stats(ctx context.Context, scope string) (types.Stats, error) {
	userID, err := parseScope(scope)
	if err != nil {
		return types.Stats{}, &StoreError{Backend: BackendRemote, Op: "stats", Cause: err}
	}

	agg, err := s.repo.GetAnalysisStats(ctx, userID)
	if err != nil {
		return types.Stats{}, &StoreError{Backend: BackendRemote, Op: "stats", Cause: err}
	}

	recent := make([]types.StoredAnalysis, 0, len(agg.Recent))
	for i := range agg.Recent {
		recent = append(recent, fromRow(&agg.Recent[i]))
	}
	trend := agg.Trend
	if trend == nil {
		trend = []float64{}
	}
	return types.Stats{
		TotalAnalyses:  agg.Total,
		AverageScore:   agg.Average,
		RecentAnalyses: recent,
		ScoreTrend:     trend,
	}, nil
}

func fromRow(row *db.AnalysisResult) types.StoredAnalysis {
	weights := types.Weights(row.Weights)
	return types.StoredAnalysis{
		AnalysisResult: types.AnalysisResult{
			CandidateName:      row.CandidateName,
			OverallScore:       row.OverallScore,
			Summary:            row.Summary,
			Strengths:          row.Strengths,
			Weaknesses:         row.Weaknesses,
			SkillsAnalysis:     types.AnalysisSection(row.SkillsAnalysis),
			ExperienceAnalysis: types.AnalysisSection(row.ExperienceAnalysis),
			EducationAnalysis:  types.AnalysisSection(row.EducationAnalysis),
		},
		ID:        row.ID.String(),
		Timestamp: row.CreatedAt.UTC().Format(time.RFC3339),
		FileName:  SavedAnalysisFileName,
		Weights:   &weights,
	}
}
