// Package llm provides the analysis providers that turn a job description and a resume
// into a raw JSON analysis payload.
package llm

import "fmt"

// ProviderName identifies an analysis backend.
type ProviderName string

// Supported providers
const (
	// ProviderGemini is the Google Gemini provider
	ProviderGemini ProviderName = "gemini"
	// ProviderGroq is Groq's OpenAI-compatible chat completions API
	ProviderGroq ProviderName = "groq"
)

// Defaults used when the configuration leaves a field empty.
const (
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultGroqModel   = "llama-3.3-70b-versatile"
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1/"
	DefaultTemperature = 0.2
	DefaultMaxTokens   = 2048
)

// Config holds the provider selection and its tuning.
type Config struct {
	Provider    ProviderName
	APIKey      string
	Model       string
	BaseURL     string // only used by OpenAI-compatible providers
	Temperature float64
	MaxTokens   int
}

// DefaultConfig returns the default configuration for a provider.
func DefaultConfig(provider ProviderName) *Config {
	cfg := &Config{Provider: provider}
	return cfg.WithDefaults()
}

// WithDefaults returns a copy of c with empty fields filled in.
func (c *Config) WithDefaults() *Config {
	out := *c
	if out.Provider == "" {
		out.Provider = ProviderGemini
	}
	if out.Model == "" {
		switch out.Provider {
		case ProviderGroq:
			out.Model = DefaultGroqModel
		default:
			out.Model = DefaultGeminiModel
		}
	}
	if out.Provider == ProviderGroq && out.BaseURL == "" {
		out.BaseURL = DefaultGroqBaseURL
	}
	if out.Temperature <= 0 {
		out.Temperature = DefaultTemperature
	}
	if out.MaxTokens <= 0 {
		out.MaxTokens = DefaultMaxTokens
	}
	return &out
}

// Validate checks that the configuration can build a provider.
// A missing API key is reported here so the program fails at startup, not on first use.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderGemini, ProviderGroq:
	default:
		return fmt.Errorf("unknown provider %q (expected %s or %s)", c.Provider, ProviderGemini, ProviderGroq)
	}
	if c.APIKey == "" {
		return fmt.Errorf("API key is required for provider %s", c.Provider)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %v", c.Temperature)
	}
	return nil
}
