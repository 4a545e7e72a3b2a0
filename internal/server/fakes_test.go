package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jonathan/resume-screener/internal/auth"
	"github.com/jonathan/resume-screener/internal/history"
	"github.com/jonathan/resume-screener/internal/ingestion"
	"github.com/jonathan/resume-screener/internal/llm"
	"github.com/jonathan/resume-screener/internal/server/middleware"
	"github.com/jonathan/resume-screener/internal/store"
	"github.com/jonathan/resume-screener/internal/types"
	"github.com/stretchr/testify/require"
)

const analysisJSON = `{
  "candidateName": "Jane Doe",
  "overallScore": 88,
  "summary": "Strong backend engineer.",
  "strengths": ["Go"],
  "weaknesses": ["Frontend"],
  "skillsAnalysis": {"score": 90, "details": "Go matches."},
  "experienceAnalysis": {"score": 85, "details": "Six years."},
  "educationAnalysis": {"score": 60, "details": "No degree."}
}`

type stubProvider struct {
	mu       sync.Mutex
	response string
	err      error
	lastJob  string
}

func (p *stubProvider) Analyze(_ context.Context, jobDescription, _ string, _ types.Weights) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastJob = jobDescription
	return p.response, p.err
}

func (p *stubProvider) Name() llm.ProviderName { return llm.ProviderGemini }
func (p *stubProvider) Model() string          { return "test-model" }
func (p *stubProvider) Close() error           { return nil }

type fakeSessions struct {
	mu       sync.Mutex
	identity types.Identity
	userID   uuid.UUID
	password string
}

func (f *fakeSessions) Enabled() bool { return true }

func (f *fakeSessions) CurrentIdentity(context.Context) (types.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.identity, nil
}

func (f *fakeSessions) SignIn(_ context.Context, req *types.LoginRequest) (*types.LoginResponse, error) {
	if req.Password != f.password {
		return nil, &auth.ErrInvalidCredentials{}
	}
	f.mu.Lock()
	f.identity = types.Authenticated(f.userID.String(), req.Email)
	f.mu.Unlock()
	return &types.LoginResponse{User: &types.User{ID: f.userID, Email: req.Email}, Token: "token-" + f.userID.String()}, nil
}

func (f *fakeSessions) Register(_ context.Context, req *types.CreateUserRequest) (*types.LoginResponse, error) {
	if req.Email == "taken@example.com" {
		return nil, &auth.ErrEmailAlreadyExists{Email: req.Email}
	}
	return f.SignIn(context.Background(), &types.LoginRequest{Email: req.Email, Password: f.password})
}

func (f *fakeSessions) SignOut(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.identity = types.Anonymous()
	return nil
}

type fakeProfiles struct {
	profiles map[uuid.UUID]*types.UserProfile
}

func (f *fakeProfiles) Get(_ context.Context, id uuid.UUID) (*types.UserProfile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, &auth.ErrUserNotFound{UserID: id}
	}
	return p, nil
}

func (f *fakeProfiles) Update(ctx context.Context, id uuid.UUID, u *types.ProfileUpdate) (*types.UserProfile, error) {
	p, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Company != nil {
		p.Company = *u.Company
	}
	return p, nil
}

type tokenMap map[string]uuid.UUID

func (m tokenMap) ValidateToken(token string) (middleware.UserIDGetter, error) {
	id, ok := m[token]
	if !ok {
		return nil, &auth.ErrInvalidCredentials{}
	}
	return &auth.Claims{UserID: id}, nil
}

type stubJobs struct {
	text string
	err  error
}

func (j *stubJobs) FetchJobDescription(_ context.Context, url string) (string, *ingestion.Metadata, error) {
	if j.err != nil {
		return "", nil, j.err
	}
	return j.text, ingestion.NewMetadata(j.text, url), nil
}

type testEnv struct {
	srv      *Server
	provider *stubProvider
	coord    *history.Coordinator
}

func newTestEnv(t *testing.T, cfg Config, deps Deps) *testEnv {
	t.Helper()
	provider := &stubProvider{response: analysisJSON}
	local := store.NewLocalStore(store.NewMemoryKV(), nil)

	coord := history.New(provider, local)
	coord.Start(context.Background())
	t.Cleanup(coord.Close)

	deps.Analyzer = coord
	srv, err := New(cfg, deps)
	require.NoError(t, err)
	t.Cleanup(srv.rateLimiter.Stop)
	return &testEnv{srv: srv, provider: provider, coord: coord}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(w, req)
	return w
}
