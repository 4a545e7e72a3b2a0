package llm

import (
	"context"
	"fmt"

	"github.com/jonathan/resume-screener/internal/types"
	"go.uber.org/zap"
)

// Provider is an abstraction over analysis backends.
type Provider interface {
	// Analyze sends the job description, resume and weights to the backend and returns
	// its raw JSON payload. It makes exactly one attempt.
	Analyze(ctx context.Context, jobDescription, resumeText string, w types.Weights) (string, error)
	// Name returns the provider identifier
	Name() ProviderName
	// Model returns the model the provider talks to
	Model() string
	// Close releases any resources held by the provider
	Close() error
}

// NewProvider creates the provider selected by configuration.
func NewProvider(ctx context.Context, config *Config, logger *zap.Logger) (Provider, error) {
	if config == nil {
		return nil, fmt.Errorf("provider configuration is required")
	}
	config = config.WithDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Provider {
	case ProviderGroq:
		return NewGroqProvider(config, logger), nil
	default:
		return NewGeminiProvider(ctx, config, logger)
	}
}
