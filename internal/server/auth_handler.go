package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/resume-screener/internal/auth"
	"github.com/jonathan/resume-screener/internal/server/middleware"
	"github.com/jonathan/resume-screener/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var requestValidator = validator.New()

// SessionResponse describes who the server is currently working for.
type SessionResponse struct {
	Identity      types.Identity `json:"identity"`
	Authenticated bool           `json:"authenticated"`
	RemoteEnabled bool           `json:"remoteEnabled"`
}

// ProfileResponse is the body of GET /profile.
type ProfileResponse struct {
	Profile *types.UserProfile `json:"profile"`
	Stats   *types.Stats       `json:"stats,omitempty"`
}

func (s *Server) sessionsEnabled() bool {
	return s.deps.Sessions != nil && s.deps.Sessions.Enabled()
}

// decodeValid decodes a JSON body into dst and validates it.
func decodeValid(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &auth.ErrValidation{Field: "body", Message: "invalid request body"}
	}
	if err := requestValidator.Struct(dst); err != nil {
		return extractValidationErrors(err)
	}
	return nil
}

// extractValidationErrors turns the first validator failure into an auth.ErrValidation.
func extractValidationErrors(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		ve := verrs[0]
		return &auth.ErrValidation{Field: ve.Field(), Message: fmt.Sprintf("failed %s check", ve.Tag())}
	}
	return &auth.ErrValidation{Field: "request", Message: "invalid request"}
}

// handleRegister creates an account and signs it in.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !s.sessionsEnabled() {
		s.failure(w, r, auth.ErrRemoteDisabled)
		return
	}

	var req types.CreateUserRequest
	if err := decodeValid(r, &req); err != nil {
		s.failure(w, r, err)
		return
	}

	resp, err := s.deps.Sessions.Register(r.Context(), &req)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, resp)
}

// handleLogin signs a user in; the visible history switches to their remote history.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.sessionsEnabled() {
		s.failure(w, r, auth.ErrRemoteDisabled)
		return
	}

	var req types.LoginRequest
	if err := decodeValid(r, &req); err != nil {
		s.failure(w, r, err)
		return
	}

	resp, err := s.deps.Sessions.SignIn(r.Context(), &req)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleLogout signs out; the visible history switches back to local.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if s.deps.Sessions != nil {
		if err := s.deps.Sessions.SignOut(r.Context()); err != nil {
			s.failure(w, r, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSession reports the current identity.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	resp := SessionResponse{RemoteEnabled: s.sessionsEnabled()}
	if s.deps.Sessions != nil {
		id, err := s.deps.Sessions.CurrentIdentity(r.Context())
		if err != nil {
			s.logger.Warn("session lookup failed", zap.Error(err))
		}
		resp.Identity = id
		resp.Authenticated = id.IsAuthenticated()
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// requireSessionOwner guards the routes that act for the signed-in user.
// While nobody is signed in they stay open and work on the local history.
// Once a user is signed in, the request must carry that user's bearer token.
func (s *Server) requireSessionOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.deps.Sessions == nil {
			next.ServeHTTP(w, r)
			return
		}
		identity, err := s.deps.Sessions.CurrentIdentity(r.Context())
		if err != nil {
			s.failure(w, r, fmt.Errorf("session lookup failed: %w", err))
			return
		}
		if !identity.IsAuthenticated() {
			next.ServeHTTP(w, r)
			return
		}
		if s.deps.Tokens == nil {
			s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		owner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := middleware.GetUserID(r)
			if err != nil || userID.String() != identity.UserID {
				s.logger.Warn("request for another user's session",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path))
				s.errorResponse(w, http.StatusForbidden, msgOtherUser)
				return
			}
			next.ServeHTTP(w, r)
		})
		middleware.AuthMiddleware(s.deps.Tokens)(owner).ServeHTTP(w, r)
	})
}

// requireAuth rejects requests without a valid bearer token.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	if s.deps.Tokens == nil || s.deps.Profiles == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.failure(w, r, auth.ErrRemoteDisabled)
		})
	}
	return middleware.AuthMiddleware(s.deps.Tokens)(next)
}

// handleGetProfile returns the caller's profile. When the caller is also the
// signed-in session user, their statistics are loaded alongside.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var resp ProfileResponse
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		p, err := s.deps.Profiles.Get(ctx, userID)
		resp.Profile = p
		return err
	})
	if s.deps.Sessions != nil {
		g.Go(func() error {
			id, err := s.deps.Sessions.CurrentIdentity(ctx)
			if err != nil || id.UserID != userID.String() {
				return nil
			}
			stats := s.deps.Analyzer.Stats(ctx)
			resp.Stats = &stats
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleUpdateProfile applies a partial profile update.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var update types.ProfileUpdate
	if err := decodeValid(r, &update); err != nil {
		s.failure(w, r, err)
		return
	}

	p, err := s.deps.Profiles.Update(r.Context(), userID, &update)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, p)
}
