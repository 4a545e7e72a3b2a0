package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/jonathan/resume-screener/internal/logger"
	"github.com/jonathan/resume-screener/internal/types"
	"go.uber.org/zap"
)

// HistoryKey is the single KV key holding the local history as a JSON array.
const HistoryKey = "resumeAnalysisHistory"

// LocalStore keeps the analysis history on this machine. It needs no account and
// never stores the job description or resume text.
type LocalStore struct {
	kv         KV
	maxRecords int
	logger     *zap.Logger
	now        func() time.Time

	mu sync.Mutex
}

// LocalOption configures a LocalStore
type LocalOption func(*LocalStore)

// WithMaxRecords bounds the history; the oldest records are dropped first. Zero means unbounded.
func WithMaxRecords(n int) LocalOption {
	return func(s *LocalStore) {
		if n > 0 {
			s.maxRecords = n
		}
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) LocalOption {
	return func(s *LocalStore) {
		s.now = now
	}
}

// NewLocalStore creates a LocalStore on top of kv.
func NewLocalStore(kv KV, log *zap.Logger, opts ...LocalOption) *LocalStore {
	s := &LocalStore{
		kv:     kv,
		logger: logger.OrNop(log).With(zap.String("store", BackendLocal)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save implements RecordStore. Records without an ID or timestamp get one.
// A record whose ID is already stored replaces the old entry.
func (s *LocalStore) Save(ctx context.Context, rec Record, _ string) (types.StoredAnalysis, error) {
	analysis := rec.Analysis
	if analysis.ID == "" {
		analysis.ID = NewLocalID()
	}
	if analysis.Timestamp == "" {
		analysis.Timestamp = s.now().UTC().Format(time.RFC3339)
	}
	if analysis.Weights == nil {
		w := rec.Weights
		analysis.Weights = &w
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.load(ctx)
	if err != nil {
		return types.StoredAnalysis{}, &StoreError{Backend: BackendLocal, Op: "save", Cause: err}
	}

	updated := make([]types.StoredAnalysis, 0, len(history)+1)
	updated = append(updated, analysis)
	for _, h := range history {
		if h.ID != analysis.ID {
			updated = append(updated, h)
		}
	}
	if s.maxRecords > 0 && len(updated) > s.maxRecords {
		updated = updated[:s.maxRecords]
	}

	if err := s.write(ctx, updated); err != nil {
		return types.StoredAnalysis{}, &StoreError{Backend: BackendLocal, Op: "save", Cause: err}
	}
	return analysis, nil
}

// List implements RecordStore.
func (s *LocalStore) List(ctx context.Context, _ string) ([]types.StoredAnalysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.load(ctx)
	if err != nil {
		return nil, &StoreError{Backend: BackendLocal, Op: "list", Cause: err}
	}
	return history, nil
}

// Delete implements RecordStore. Deleting an unknown ID changes nothing.
func (s *LocalStore) Delete(ctx context.Context, id, _ string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.load(ctx)
	if err != nil {
		return false, &StoreError{Backend: BackendLocal, Op: "delete", Cause: err}
	}

	remaining := make([]types.StoredAnalysis, 0, len(history))
	for _, h := range history {
		if h.ID != id {
			remaining = append(remaining, h)
		}
	}
	if len(remaining) == len(history) {
		return false, nil
	}

	if err := s.write(ctx, remaining); err != nil {
		return false, &StoreError{Backend: BackendLocal, Op: "delete", Cause: err}
	}
	return true, nil
}

// Clear removes the whole local history.
func (s *LocalStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(ctx, HistoryKey); err != nil {
		return &StoreError{Backend: BackendLocal, Op: "clear", Cause: err}
	}
	return nil
}

// load reads the history. A value that does not decode is purged and reported as empty.
func (s *LocalStore) load(ctx context.Context) ([]types.StoredAnalysis, error) {
	raw, ok, err := s.kv.Get(ctx, HistoryKey)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return []types.StoredAnalysis{}, nil
	}

	var history []types.StoredAnalysis
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		s.logger.Warn("discarding unreadable local history", zap.Int("bytes", len(raw)), zap.Error(err))
		if derr := s.kv.Delete(ctx, HistoryKey); derr != nil {
			return nil, derr
		}
		return []types.StoredAnalysis{}, nil
	}
	if history == nil {
		history = []types.StoredAnalysis{}
	}
	return history, nil
}

func (s *LocalStore) write(ctx context.Context, history []types.StoredAnalysis) error {
	data, err := json.Marshal(history)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, HistoryKey, string(data))
}
