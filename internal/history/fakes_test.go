package history

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/jonathan/resume-screener/internal/llm"
	"github.com/jonathan/resume-screener/internal/scoring"
	"github.com/jonathan/resume-screener/internal/store"
	"github.com/jonathan/resume-screener/internal/types"
)

const janeDoeJSON = `{
  "candidateName": "Jane Doe",
  "overallScore": 91,
  "summary": "Strong backend engineer with Kubernetes experience.",
  "strengths": ["Go", "Kubernetes"],
  "weaknesses": ["Frontend"],
  "skillsAnalysis": {"score": 90, "details": "Go and K8s match the role."},
  "experienceAnalysis": {"score": 85, "details": "Six years of backend work."},
  "educationAnalysis": {"score": 60, "details": "No degree listed."}
}`

const (
	janeJD     = "Senior Go Engineer, 5+ years, K8s"
	janeResume = "Jane Doe, 6 years backend Go, led K8s migration"
)

type fakeProvider struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
	// before runs inside Analyze, simulating work that happens while the call is in flight.
	before func()
}

func (p *fakeProvider) Analyze(_ context.Context, _, _ string, _ types.Weights) (string, error) {
	p.mu.Lock()
	p.calls++
	before := p.before
	p.mu.Unlock()
	if before != nil {
		before()
	}
	return p.response, p.err
}

func (p *fakeProvider) Name() llm.ProviderName { return llm.ProviderGemini }
func (p *fakeProvider) Model() string          { return "fake-model" }
func (p *fakeProvider) Close() error           { return nil }

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// fakeRemote is an in-memory RemoteHistory keyed by user id.
type fakeRemote struct {
	mu        sync.Mutex
	records   map[string][]types.StoredAnalysis
	saveErr   error
	listErr   error
	deleteErr error
	saves     int
	deletes   []string
	// listHook runs before List takes the lock.
	listHook func()
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{records: make(map[string][]types.StoredAnalysis)}
}

func (r *fakeRemote) Save(_ context.Context, rec store.Record, scope string) (types.StoredAnalysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	if r.saveErr != nil {
		return types.StoredAnalysis{}, r.saveErr
	}
	saved := rec.Analysis
	saved.ID = uuid.NewString()
	saved.FileName = store.SavedAnalysisFileName
	r.records[scope] = append([]types.StoredAnalysis{saved}, r.records[scope]...)
	return saved, nil
}

func (r *fakeRemote) List(_ context.Context, scope string) ([]types.StoredAnalysis, error) {
	if r.listHook != nil {
		r.listHook()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]types.StoredAnalysis, len(r.records[scope]))
	copy(out, r.records[scope])
	return out, nil
}

func (r *fakeRemote) Delete(_ context.Context, id, scope string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes = append(r.deletes, id)
	if r.deleteErr != nil {
		return false, r.deleteErr
	}
	for i, rec := range r.records[scope] {
		if rec.ID == id {
			r.records[scope] = append(r.records[scope][:i], r.records[scope][i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRemote) Stats(_ context.Context, scope string) (types.Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return types.Stats{}, r.listErr
	}
	return scoring.Summarize(r.records[scope]), nil
}

// fakeSession is a SessionWatcher whose transitions are driven by the test.
type fakeSession struct {
	mu        sync.Mutex
	identity  types.Identity
	err       error
	listeners map[int]func(context.Context, types.Identity)
	next      int
}

func newFakeSession(id types.Identity) *fakeSession {
	return &fakeSession{identity: id, listeners: make(map[int]func(context.Context, types.Identity))}
}

func (s *fakeSession) CurrentIdentity(context.Context) (types.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity, s.err
}

func (s *fakeSession) Subscribe(fn func(context.Context, types.Identity)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *fakeSession) subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

func (s *fakeSession) set(ctx context.Context, id types.Identity) {
	s.mu.Lock()
	s.identity = id
	fns := make([]func(context.Context, types.Identity), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(ctx, id)
	}
}

// failingKV makes every LocalStore operation fail.
type failingKV struct{}

var errDiskFull = errors.New("disk full")

func (failingKV) Get(context.Context, string) (string, bool, error) { return "", false, errDiskFull }
func (failingKV) Set(context.Context, string, string) error         { return errDiskFull }
func (failingKV) Delete(context.Context, string) error              { return errDiskFull }
