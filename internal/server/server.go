// Package server provides the HTTP REST API for the resume screener.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-screener/internal/history"
	"github.com/jonathan/resume-screener/internal/ingestion"
	"github.com/jonathan/resume-screener/internal/logger"
	"github.com/jonathan/resume-screener/internal/server/middleware"
	"github.com/jonathan/resume-screener/internal/server/ratelimit"
	"github.com/jonathan/resume-screener/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Analyzer runs analyses and exposes the visible history.
// *history.Coordinator implements it.
type Analyzer interface {
	Submit(ctx context.Context, req history.SubmitRequest) (types.StoredAnalysis, error)
	State() history.State
	Select(id string) history.State
	Delete(ctx context.Context, id string) (history.State, error)
	Clear(ctx context.Context) (history.State, error)
	Stats(ctx context.Context) types.Stats
}

// Sessions signs the server's user in and out. *auth.SessionManager implements it.
type Sessions interface {
	Enabled() bool
	CurrentIdentity(ctx context.Context) (types.Identity, error)
	SignIn(ctx context.Context, req *types.LoginRequest) (*types.LoginResponse, error)
	Register(ctx context.Context, req *types.CreateUserRequest) (*types.LoginResponse, error)
	SignOut(ctx context.Context) error
}

// Profiles reads and edits account profiles. *auth.ProfileService implements it.
type Profiles interface {
	Get(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error)
	Update(ctx context.Context, userID uuid.UUID, update *types.ProfileUpdate) (*types.UserProfile, error)
}

// JobFetcher downloads job postings. *ingestion.JobFetcher implements it.
type JobFetcher interface {
	FetchJobDescription(ctx context.Context, url string) (string, *ingestion.Metadata, error)
}

// Deps are the services the API is built on. Sessions, Profiles, Tokens and
// Jobs may be nil; the routes that need them then answer 503.
type Deps struct {
	Analyzer Analyzer
	Sessions Sessions
	Profiles Profiles
	Tokens   middleware.TokenValidator
	Jobs     JobFetcher
	Database Pinger // optional; reported by /health
	Logger   *zap.Logger
}

// Pinger checks that a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds server configuration
type Config struct {
	Addr           string
	RateLimit      float64 // requests per second per client, 0 disables limiting
	Burst          int
	CORSOrigins    []string
	MaxUploadBytes int64
	Weights        *types.Weights // used when a request carries none, nil means the 50/40/10 default
}

// Server represents the HTTP server
type Server struct {
	deps        Deps
	cfg         Config
	logger      *zap.Logger
	rateLimiter *ratelimit.Limiter
	handler     http.Handler
}

// New creates a new server instance
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Analyzer == nil {
		return nil, errors.New("server requires an analyzer")
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = ingestion.MaxDocumentBytes
	}
	if cfg.Weights == nil {
		w := types.DefaultWeights()
		cfg.Weights = &w
	}

	s := &Server{
		deps:        deps,
		cfg:         cfg,
		logger:      logger.OrNop(deps.Logger).With(zap.String("component", "http")),
		rateLimiter: ratelimit.NewLimiter(ratelimit.NewConfig(cfg.RateLimit, cfg.Burst, nil)),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	owner := func(h http.HandlerFunc) http.Handler { return s.requireSessionOwner(h) }

	mux.Handle("POST /analyses", owner(s.handleAnalyze))
	mux.Handle("POST /analyses/upload", owner(s.handleAnalyzeUpload))

	mux.Handle("GET /history", owner(s.handleListHistory))
	mux.Handle("GET /history/current", owner(s.handleCurrent))
	mux.Handle("POST /history/{id}/select", owner(s.handleSelect))
	mux.Handle("DELETE /history/{id}", owner(s.handleDelete))
	mux.Handle("DELETE /history", owner(s.handleClear))

	mux.Handle("POST /auth/register", owner(s.handleRegister))
	mux.Handle("POST /auth/login", owner(s.handleLogin))
	mux.Handle("POST /auth/logout", owner(s.handleLogout))
	mux.Handle("GET /auth/session", owner(s.handleSession))

	mux.Handle("GET /profile", s.requireAuth(http.HandlerFunc(s.handleGetProfile)))
	mux.Handle("PUT /profile", s.requireAuth(http.HandlerFunc(s.handleUpdateProfile)))
	mux.Handle("GET /stats", owner(s.handleStats))

	s.handler = s.withRateLimit(s.withLogging(s.withCORS(mux)))
	return s, nil
}

// Handler returns the root handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      180 * time.Second, // analyses wait on the provider
		IdleTimeout:       60 * time.Second,
	}
	defer s.rateLimiter.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("server starting", zap.String("addr", s.cfg.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	err := g.Wait()
	s.logger.Info("server stopped")
	return err
}

// withCORS adds CORS headers for the configured origins. With an empty list
// no cross-origin request is allowed.
func (s *Server) withCORS(next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(s.cfg.CORSOrigins))
	for _, o := range s.cfg.CORSOrigins {
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote", r.RemoteAddr),
		)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(s.extractClientID(r), r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractClientID extracts the client identifier from the request.
// X-Forwarded-For is ignored because the server does not know its proxies.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":   "rate_limit_exceeded",
		"message": "Rate limit exceeded. Please try again later.",
		"limit":   info.Limit,
	}

	if info.RetryAfter > 0 {
		retry := int(info.RetryAfter.Seconds() + 0.999)
		response["retry_after"] = retry
		w.Header().Set("Retry-After", strconv.Itoa(retry))
	}

	s.logger.Warn("rate limit exceeded",
		zap.String("client", s.extractClientID(r)),
		zap.String("path", r.URL.Path),
		zap.Int("limit", info.Limit))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}

// handleHealth returns server health status. An unreachable database degrades
// the account features only, so the status stays 200.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok"}
	if s.deps.Database != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Database.Ping(ctx); err != nil {
			s.logger.Warn("database ping failed", zap.Error(err))
			resp["database"] = "unavailable"
		} else {
			resp["database"] = "ok"
		}
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// failure logs err in full and answers with the public message for its kind.
func (s *Server) failure(w http.ResponseWriter, r *http.Request, err error) {
	status, message := Describe(err)
	level := s.logger.Warn
	if status >= http.StatusInternalServerError {
		level = s.logger.Error
	}
	level("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Error(err))
	s.errorResponse(w, status, message)
}
