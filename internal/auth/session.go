package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jonathan/resume-screener/internal/logger"
	"github.com/jonathan/resume-screener/internal/types"
	"go.uber.org/zap"
)

// SessionManager owns the signed-in identity. It restores a saved token on
// startup, performs sign-in, registration and sign-out, and tells subscribers
// about each transition.
type SessionManager struct {
	jwt    *JWTService
	users  *UserService
	tokens TokenStore
	log    *zap.Logger

	mu        sync.Mutex
	identity  types.Identity
	token     string
	listeners map[int]func(context.Context, types.Identity)
	nextID    int
}

// NewSessionManager builds a manager. With a nil users service or JWT service
// the manager stays anonymous and account operations return ErrRemoteDisabled.
func NewSessionManager(jwtService *JWTService, users *UserService, tokens TokenStore, log *zap.Logger) *SessionManager {
	if tokens == nil {
		tokens = &MemoryTokenStore{}
	}
	return &SessionManager{
		jwt:       jwtService,
		users:     users,
		tokens:    tokens,
		log:       logger.OrNop(log),
		listeners: make(map[int]func(context.Context, types.Identity)),
	}
}

// Enabled reports whether accounts are available.
func (m *SessionManager) Enabled() bool {
	return m.jwt != nil && m.users != nil
}

// Restore loads a previously saved token. An unreadable, invalid or expired
// token is discarded and the session stays anonymous. No listener is notified.
func (m *SessionManager) Restore(ctx context.Context) types.Identity {
	if !m.Enabled() {
		return types.Anonymous()
	}
	token, err := m.tokens.Load()
	if err != nil {
		m.log.Warn("failed to load saved session", zap.Error(err))
		return types.Anonymous()
	}
	if token == "" {
		return types.Anonymous()
	}
	claims, err := m.jwt.ValidateToken(token)
	if err != nil {
		m.log.Info("discarding saved session", zap.Error(err))
		if err := m.tokens.Clear(); err != nil {
			m.log.Warn("failed to clear saved session", zap.Error(err))
		}
		return types.Anonymous()
	}

	id := types.Authenticated(claims.UserID.String(), claims.Email)
	m.mu.Lock()
	m.identity = id
	m.token = token
	m.mu.Unlock()
	m.log.Debug("session restored", zap.Stringer("identity", id))
	return id
}

// CurrentIdentity returns the identity as of now. The error is always nil.
func (m *SessionManager) CurrentIdentity(_ context.Context) (types.Identity, error) {
	return m.current(), nil
}

func (m *SessionManager) current() types.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identity
}

// Token returns the bearer token of the current session, or "".
func (m *SessionManager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// Subscribe registers a listener called after every identity transition and
// returns a function that removes it.
func (m *SessionManager) Subscribe(fn func(ctx context.Context, id types.Identity)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, id)
			m.mu.Unlock()
		})
	}
}

// SignIn authenticates with email and password and makes the user current.
func (m *SessionManager) SignIn(ctx context.Context, req *types.LoginRequest) (*types.LoginResponse, error) {
	if !m.Enabled() {
		return nil, ErrRemoteDisabled
	}
	user, err := m.users.Login(ctx, req)
	if err != nil {
		return nil, err
	}
	return m.establish(ctx, user)
}

// Register creates an account (with its profile) and signs it in.
func (m *SessionManager) Register(ctx context.Context, req *types.CreateUserRequest) (*types.LoginResponse, error) {
	if !m.Enabled() {
		return nil, ErrRemoteDisabled
	}
	user, err := m.users.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	return m.establish(ctx, user)
}

// UpdatePassword changes the password of the signed-in user.
func (m *SessionManager) UpdatePassword(ctx context.Context, req *types.UpdatePasswordRequest) error {
	if !m.Enabled() {
		return ErrRemoteDisabled
	}
	id := m.current()
	if !id.IsAuthenticated() {
		return &ErrInvalidCredentials{}
	}
	userID, err := uuid.Parse(id.UserID)
	if err != nil {
		return fmt.Errorf("invalid session user id: %w", err)
	}
	return m.users.UpdatePassword(ctx, userID, req)
}

// SignOut forgets the saved token and returns to the anonymous identity.
func (m *SessionManager) SignOut(ctx context.Context) error {
	if err := m.tokens.Clear(); err != nil {
		return err
	}
	m.transition(ctx, types.Anonymous(), "")
	return nil
}

func (m *SessionManager) establish(ctx context.Context, user *types.User) (*types.LoginResponse, error) {
	token, err := m.jwt.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	if err := m.tokens.Save(token); err != nil {
		return nil, err
	}
	m.transition(ctx, types.Authenticated(user.ID.String(), user.Email), token)
	return &types.LoginResponse{User: user, Token: token}, nil
}

// transition swaps the identity and notifies listeners outside the lock.
func (m *SessionManager) transition(ctx context.Context, id types.Identity, token string) {
	m.mu.Lock()
	changed := m.identity != id
	m.identity = id
	m.token = token
	listeners := make([]func(context.Context, types.Identity), 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	if !changed {
		return
	}
	m.log.Info("identity changed", zap.Stringer("identity", id))
	for _, fn := range listeners {
		fn(ctx, id)
	}
}
