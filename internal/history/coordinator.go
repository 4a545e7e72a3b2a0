// Package history coordinates analysis runs with the stores that keep them.
// It decides which store is authoritative for the current identity, writes
// every new analysis through to local storage and mirrors it remotely when
// a user is signed in.
package history

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jonathan/resume-screener/internal/llm"
	"github.com/jonathan/resume-screener/internal/logger"
	"github.com/jonathan/resume-screener/internal/scoring"
	"github.com/jonathan/resume-screener/internal/store"
	"github.com/jonathan/resume-screener/internal/types"
	"github.com/jonathan/resume-screener/internal/validation"
	"go.uber.org/zap"
)

// SessionWatcher is the source of identity transitions.
type SessionWatcher interface {
	CurrentIdentity(ctx context.Context) (types.Identity, error)
	Subscribe(fn func(ctx context.Context, id types.Identity)) (unsubscribe func())
}

// LocalHistory is the always-available store.
type LocalHistory interface {
	store.RecordStore
	Clear(ctx context.Context) error
}

// RemoteHistory is the per-user store used while signed in.
type RemoteHistory interface {
	store.RecordStore
	Stats(ctx context.Context, scope string) (types.Stats, error)
}

// SubmitRequest is one analysis to run.
type SubmitRequest struct {
	JobDescription string
	ResumeText     string
	Weights        types.Weights
	FileName       string
}

// Coordinator owns the visible history and the current result.
// Its mutex is never held across provider or store calls.
type Coordinator struct {
	provider   llm.Provider
	local      LocalHistory
	remote     RemoteHistory
	session    SessionWatcher
	reconciler *scoring.Reconciler
	logger     *zap.Logger
	now        func() time.Time

	mu    sync.Mutex
	state State
	// epoch increments on every identity transition so that work started
	// under an earlier identity does not touch the visible state.
	epoch uint64

	unsubscribe func()
	closeOnce   sync.Once
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithRemote enables the remote store for signed-in users.
func WithRemote(r RemoteHistory) Option {
	return func(c *Coordinator) {
		c.remote = r
	}
}

// WithSession sets the identity source. Without one the coordinator stays anonymous.
func WithSession(w SessionWatcher) Option {
	return func(c *Coordinator) {
		c.session = w
	}
}

// WithReconciler sets the overall score policy.
func WithReconciler(r *scoring.Reconciler) Option {
	return func(c *Coordinator) {
		c.reconciler = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger.OrNop(l)
	}
}

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

// New creates a Coordinator. Call Start before use and Close when done.
func New(provider llm.Provider, local LocalHistory, opts ...Option) *Coordinator {
	c := &Coordinator{
		provider:   provider,
		local:      local,
		reconciler: scoring.NewReconciler(scoring.PolicyTrust, scoring.DefaultTolerance),
		logger:     zap.NewNop(),
		now:        time.Now,
		state: State{
			Identity: types.Anonymous(),
			History:  []types.StoredAnalysis{},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start performs the existing-session check, loads the matching history and
// subscribes to later identity transitions.
func (c *Coordinator) Start(ctx context.Context) State {
	identity := types.Anonymous()
	if c.session != nil {
		id, err := c.session.CurrentIdentity(ctx)
		if err != nil {
			c.logger.Warn("session check failed, continuing anonymously", zap.Error(err))
		} else {
			identity = id
		}
	}

	state := c.Transition(ctx, identity)

	if c.session != nil {
		unsubscribe := c.session.Subscribe(func(ctx context.Context, id types.Identity) {
			c.Transition(ctx, id)
		})
		c.mu.Lock()
		c.unsubscribe = unsubscribe
		c.mu.Unlock()
	}
	return state
}

// Close releases the session subscription. It is safe to call more than once.
func (c *Coordinator) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		unsubscribe := c.unsubscribe
		c.unsubscribe = nil
		c.mu.Unlock()
		if unsubscribe != nil {
			unsubscribe()
		}
	})
}

// Transition enters the state for identity: the current result is cleared and
// the visible history is reloaded from the authoritative store.
func (c *Coordinator) Transition(ctx context.Context, identity types.Identity) State {
	c.mu.Lock()
	c.epoch++
	epoch := c.epoch
	c.state.Identity = identity
	c.state.Current = nil
	c.state.History = []types.StoredAnalysis{}
	c.mu.Unlock()

	history := c.load(ctx, identity)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch == epoch {
		c.state.History = history
	}
	c.logger.Debug("identity transition",
		zap.Stringer(logger.FieldIdentity, identity),
		zap.Int("history_size", len(history)))
	return c.state.clone()
}

// load lists the history for identity. It never fails: remote errors fall
// back to the local list and local errors yield an empty history.
func (c *Coordinator) load(ctx context.Context, identity types.Identity) []types.StoredAnalysis {
	if identity.IsAuthenticated() && c.remote != nil {
		records, err := c.remote.List(ctx, identity.UserID)
		if err == nil {
			sortNewestFirst(records)
			return records
		}
		c.logger.Warn("remote history unavailable, showing local history",
			zap.Stringer(logger.FieldIdentity, identity), zap.Error(err))
	}

	records, err := c.local.List(ctx, "")
	if err != nil {
		c.logger.Warn("local history unavailable", zap.Error(err))
		return []types.StoredAnalysis{}
	}
	sortNewestFirst(records)
	return records
}

// Submit runs one analysis and records it.
//
// Provider and validation errors are returned unchanged and leave the state
// untouched. A failed remote save is logged only. A failed local save is
// returned as a *store.StoreError; the result stays current in that case.
func (c *Coordinator) Submit(ctx context.Context, req SubmitRequest) (types.StoredAnalysis, error) {
	if strings.TrimSpace(req.JobDescription) == "" {
		return types.StoredAnalysis{}, &InputError{Field: "jobDescription", Message: "is required"}
	}
	if strings.TrimSpace(req.ResumeText) == "" {
		return types.StoredAnalysis{}, &InputError{Field: "resumeText", Message: "is required"}
	}
	if err := req.Weights.Validate(); err != nil {
		return types.StoredAnalysis{}, &InputError{Field: "weights", Message: "must be finite and not negative"}
	}

	c.mu.Lock()
	identity := c.state.Identity
	epoch := c.epoch
	c.mu.Unlock()

	log := c.logger.With(
		zap.String(logger.FieldProvider, string(c.provider.Name())),
		zap.Stringer(logger.FieldIdentity, identity))
	log.Debug("submitting analysis",
		logger.TextSize("job", req.JobDescription),
		logger.TextSize("resume", req.ResumeText))

	for field, text := range map[string]string{"jobDescription": req.JobDescription, "resumeText": req.ResumeText} {
		if check := validation.CheckInjection(text); check.Suspicious {
			log.Warn("possible prompt injection in input",
				zap.String("field", field), zap.Strings("matches", check.Matches))
		}
	}

	started := c.now()
	raw, err := c.provider.Analyze(ctx, req.JobDescription, req.ResumeText, req.Weights)
	if err != nil {
		log.Warn("analysis failed", zap.Error(err))
		return types.StoredAnalysis{}, err
	}

	result, err := validation.ValidateResponse(raw)
	if err != nil {
		log.Warn("analysis response rejected", zap.Error(err))
		return types.StoredAnalysis{}, err
	}
	if err := c.reconciler.Apply(result, req.Weights); err != nil {
		var mismatch *scoring.ScoreMismatchError
		if errors.As(err, &mismatch) {
			return types.StoredAnalysis{}, &validation.ValidationError{
				Field:   "overallScore",
				Message: "does not match the weighted section scores",
				Cause:   err,
			}
		}
		return types.StoredAnalysis{}, err
	}

	weights := req.Weights
	rec := types.StoredAnalysis{
		AnalysisResult: *result,
		ID:             store.NewLocalID(),
		Timestamp:      c.now().UTC().Format(time.RFC3339Nano),
		FileName:       req.FileName,
		Weights:        &weights,
	}
	c.setCurrent(epoch, rec, "")

	if identity.IsAuthenticated() && c.remote != nil {
		saved, err := c.remote.Save(ctx, store.Record{
			Analysis:       rec,
			JobDescription: req.JobDescription,
			ResumeText:     req.ResumeText,
			Weights:        req.Weights,
		}, identity.UserID)
		if err != nil {
			log.Warn("remote save failed, keeping local copy", zap.Error(err))
		} else if saved.ID != "" && saved.ID != rec.ID {
			localID := rec.ID
			rec.ID = saved.ID
			c.setCurrent(epoch, rec, localID)
		}
	}

	if _, err := c.local.Save(ctx, store.Record{Analysis: rec, Weights: req.Weights}, ""); err != nil {
		log.Error("local save failed", zap.Error(err))
		return types.StoredAnalysis{}, err
	}

	c.mu.Lock()
	if c.epoch == epoch {
		c.state.History = withRecord(c.state.History, rec)
	}
	c.mu.Unlock()

	log.Info("analysis recorded",
		zap.String("analysis_id", rec.ID),
		zap.Float64("overall_score", rec.OverallScore),
		zap.Duration("elapsed", c.now().Sub(started)))
	return rec, nil
}

// setCurrent makes rec the current result if the identity has not changed.
// When replaceID is set, the current result is only replaced if it still is
// the record with that id.
func (c *Coordinator) setCurrent(epoch uint64, rec types.StoredAnalysis, replaceID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return
	}
	if replaceID != "" && (c.state.Current == nil || c.state.Current.ID != replaceID) {
		return
	}
	c.state.Current = &rec
}

// Select makes the visible record with id the current result.
// Unknown ids are ignored.
func (c *Coordinator) Select(id string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rec, ok := c.state.Find(id); ok {
		c.state.Current = &rec
	}
	return c.state.clone()
}

// Delete removes a record from the remote store (when signed in), the local
// store and the visible history. Remote failures are logged only.
func (c *Coordinator) Delete(ctx context.Context, id string) (State, error) {
	c.mu.Lock()
	identity := c.state.Identity
	c.mu.Unlock()

	if identity.IsAuthenticated() && c.remote != nil {
		if _, err := c.remote.Delete(ctx, id, identity.UserID); err != nil {
			c.logger.Warn("remote delete failed",
				zap.String("analysis_id", id), zap.Stringer(logger.FieldIdentity, identity), zap.Error(err))
		}
	}

	_, localErr := c.local.Delete(ctx, id, "")
	if localErr != nil {
		c.logger.Error("local delete failed", zap.String("analysis_id", id), zap.Error(localErr))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.History = without(c.state.History, id)
	if c.state.Current != nil && c.state.Current.ID == id {
		c.state.Current = nil
	}
	return c.state.clone(), localErr
}

// Clear empties the local store and the visible history. Remote records are kept.
func (c *Coordinator) Clear(ctx context.Context) (State, error) {
	err := c.local.Clear(ctx)
	if err != nil {
		c.logger.Error("local clear failed", zap.Error(err))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.History = []types.StoredAnalysis{}
	c.state.Current = nil
	return c.state.clone(), err
}

// State returns a snapshot of the visible state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Stats summarizes the history of the current identity. Signed-in users get
// the remote aggregate; if that fails, or when anonymous, the visible history
// is summarized instead.
func (c *Coordinator) Stats(ctx context.Context) types.Stats {
	state := c.State()
	if state.Identity.IsAuthenticated() && c.remote != nil {
		stats, err := c.remote.Stats(ctx, state.Identity.UserID)
		if err == nil {
			return stats
		}
		c.logger.Warn("remote stats unavailable", zap.Error(err))
	}
	return scoring.Summarize(state.History)
}
