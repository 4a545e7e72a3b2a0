package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/resume-screener/internal/auth"
	"github.com/jonathan/resume-screener/internal/config"
	"github.com/jonathan/resume-screener/internal/db"
	"github.com/jonathan/resume-screener/internal/fetch"
	"github.com/jonathan/resume-screener/internal/history"
	"github.com/jonathan/resume-screener/internal/ingestion"
	"github.com/jonathan/resume-screener/internal/llm"
	"github.com/jonathan/resume-screener/internal/logger"
	"github.com/jonathan/resume-screener/internal/scoring"
	"github.com/jonathan/resume-screener/internal/server"
	"github.com/jonathan/resume-screener/internal/store"
	"github.com/jonathan/resume-screener/internal/types"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// app holds everything a command needs, wired from configuration.
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	kv       *store.SQLiteKV
	database *db.DB

	jwt      *auth.JWTService
	sessions *auth.SessionManager
	profiles *auth.ProfileService
	provider llm.Provider
	coord    *history.Coordinator
	jobs     *ingestion.JobFetcher
}

// loadConfig reads the configuration selected by the persistent flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.New(), configPath)
	if err != nil {
		return nil, err
	}
	if debugLogs {
		cfg.Log.Debug = true
	}
	if jsonLogs {
		cfg.Log.JSON = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp wires the stores, the session and the coordinator. The caller must
// call close. The coordinator is started, so its state already reflects a
// restored session.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	a := &app{cfg: cfg, logger: log}
	if err := a.open(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) open(ctx context.Context) error {
	cfg := a.cfg

	kv, err := store.OpenSQLiteKV(cfg.Local.Path)
	if err != nil {
		return err
	}
	a.kv = kv
	local := store.NewLocalStore(kv, a.logger, store.WithMaxRecords(cfg.Local.MaxRecords))

	policy, err := scoring.ParsePolicy(cfg.Score.Policy)
	if err != nil {
		return err
	}
	opts := []history.Option{
		history.WithLogger(a.logger),
		history.WithReconciler(scoring.NewReconciler(policy, cfg.Score.Tolerance)),
	}

	var users *auth.UserService
	if cfg.RemoteEnabled() {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		a.database = database
		users = auth.NewUserService(database, &cfg.Password)
		a.jwt = auth.NewJWTService(&cfg.JWT)
		a.profiles = auth.NewProfileService(database)
		opts = append(opts, history.WithRemote(store.NewRemoteStore(database, 0, a.logger)))
	}

	a.sessions = auth.NewSessionManager(a.jwt, users, auth.NewFileTokenStore(cfg.SessionFile), a.logger)
	a.sessions.Restore(ctx)
	opts = append(opts, history.WithSession(a.sessions))

	a.provider = a.newProvider(ctx)

	var renderer fetch.Renderer
	if cfg.UseBrowser {
		renderer = &fetch.ChromeRenderer{Logger: a.logger}
	}
	a.jobs = ingestion.NewJobFetcher(fetch.NewCachedFetcher(kv, 0, nil, a.logger), renderer, a.logger)

	a.coord = history.New(a.provider, local, opts...)
	a.coord.Start(ctx)
	return nil
}

// newProvider builds the configured provider. A configuration error is kept
// so that commands which never analyze still run; analyze and serve check it
// with requireProvider.
func (a *app) newProvider(ctx context.Context) llm.Provider {
	pc := a.cfg.ActiveProvider()
	p, err := llm.NewProvider(ctx, &llm.Config{
		Provider:    llm.ProviderName(a.cfg.Provider),
		APIKey:      pc.APIKey,
		Model:       pc.Model,
		BaseURL:     pc.BaseURL,
		Temperature: pc.Temperature,
		MaxTokens:   pc.MaxTokens,
	}, a.logger)
	if err != nil {
		a.logger.Debug("provider unavailable", zap.Error(err))
		return &unconfiguredProvider{name: llm.ProviderName(a.cfg.Provider), err: err}
	}
	return p
}

// requireProvider fails when the configured provider could not be built.
// Commands that analyze call it before reading any input.
func (a *app) requireProvider() error {
	if p, ok := a.provider.(*unconfiguredProvider); ok {
		return p.configError()
	}
	return nil
}

func (a *app) close() {
	if a.coord != nil {
		a.coord.Close()
	}
	if a.provider != nil {
		if err := a.provider.Close(); err != nil {
			a.logger.Warn("failed to close provider", zap.Error(err))
		}
	}
	if a.database != nil {
		a.database.Close()
	}
	if a.kv != nil {
		if err := a.kv.Close(); err != nil {
			a.logger.Warn("failed to close local store", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

// serverDeps exposes the app to the HTTP API.
func (a *app) serverDeps() server.Deps {
	deps := server.Deps{
		Analyzer: a.coord,
		Sessions: a.sessions,
		Jobs:     a.jobs,
		Logger:   a.logger,
	}
	if a.profiles != nil {
		deps.Profiles = a.profiles
	}
	if a.jwt != nil {
		deps.Tokens = a.jwt.AsTokenValidator()
	}
	if a.database != nil {
		deps.Database = a.database
	}
	return deps
}

// unconfiguredProvider stands in for a provider whose configuration is incomplete.
type unconfiguredProvider struct {
	name llm.ProviderName
	err  error
}

func (p *unconfiguredProvider) Analyze(context.Context, string, string, types.Weights) (string, error) {
	return "", p.configError()
}

func (p *unconfiguredProvider) configError() error {
	return &llm.ProviderError{Provider: p.name, Message: "provider is not configured", Cause: p.err}
}

func (p *unconfiguredProvider) Name() llm.ProviderName { return p.name }
func (p *unconfiguredProvider) Model() string          { return "" }
func (p *unconfiguredProvider) Close() error           { return nil }

// userMessage is the text shown for a failed command. Unconfigured providers
// and local errors keep their detail; everything else uses the public message.
func userMessage(err error) string {
	var providerErr *llm.ProviderError
	if errors.As(err, &providerErr) && providerErr.Message == "provider is not configured" {
		return fmt.Sprintf("%s is not configured: %v", providerErr.Provider, providerErr.Cause)
	}
	status, msg := server.Describe(err)
	if status == http.StatusInternalServerError && msg != "" && !isCoreError(err) {
		return err.Error()
	}
	return msg
}

// isCoreError reports whether err is one of the analysis error kinds whose
// backend detail must stay in the logs.
func isCoreError(err error) bool {
	var (
		providerErr *llm.ProviderError
		storeErr    *store.StoreError
	)
	return errors.As(err, &providerErr) || errors.As(err, &storeErr)
}
