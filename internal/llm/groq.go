package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonathan/resume-screener/internal/logger"
	"github.com/jonathan/resume-screener/internal/prompts"
	"github.com/jonathan/resume-screener/internal/types"
	"github.com/openai/openai-go"
	oaioption "github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

// GroqProvider implements Provider against Groq's OpenAI-compatible chat completions API.
type GroqProvider struct {
	client *openai.Client
	config *Config
	logger *zap.Logger
}

// NewGroqProvider creates a new Groq provider. Retries are disabled: a failed call is
// reported to the caller, who decides whether to resubmit.
func NewGroqProvider(config *Config, log *zap.Logger) *GroqProvider {
	client := openai.NewClient(
		oaioption.WithBaseURL(config.BaseURL),
		oaioption.WithAPIKey(config.APIKey),
		oaioption.WithMaxRetries(0),
	)
	return &GroqProvider{
		client: client,
		config: config,
		logger: logger.WithCommonFields(log, string(ProviderGroq), config.Model),
	}
}

// Analyze implements Provider
func (p *GroqProvider) Analyze(ctx context.Context, jobDescription, resumeText string, w types.Weights) (string, error) {
	prompt, err := BuildAnalysisPrompt(jobDescription, resumeText, w, true)
	if err != nil {
		return "", fmt.Errorf("failed to build prompt: %w", err)
	}
	system, err := prompts.Get(promptFile, promptSystem)
	if err != nil {
		return "", fmt.Errorf("failed to load system prompt: %w", err)
	}

	params := openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		}),
		Model:       openai.F(p.config.Model),
		Temperature: openai.Float(p.config.Temperature),
		MaxTokens:   openai.Int(int64(p.config.MaxTokens)),
		ResponseFormat: openai.F[openai.ChatCompletionNewParamsResponseFormatUnion](
			openai.ResponseFormatJSONObjectParam{
				Type: openai.F(openai.ResponseFormatJSONObjectTypeJSONObject),
			},
		),
	}

	start := time.Now()
	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		perr := &ProviderError{Provider: ProviderGroq, Message: "request failed", Cause: err}
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			perr.StatusCode = apiErr.StatusCode
			perr.Message = "backend returned an error"
		}
		p.logger.Warn("groq request failed",
			zap.Int("status", perr.StatusCode),
			zap.Duration("latency", time.Since(start)),
			zap.Error(err),
		)
		return "", perr
	}

	if len(completion.Choices) == 0 {
		return "", &ProviderError{Provider: ProviderGroq, Message: "empty response"}
	}

	payload, err := normalizePayload(ProviderGroq, completion.Choices[0].Message.Content)
	if err != nil {
		return "", err
	}

	p.logger.Debug("groq analysis completed",
		zap.Int("prompt_chars", len(prompt)),
		zap.Int("payload_bytes", len(payload)),
		zap.Int64("total_tokens", completion.Usage.TotalTokens),
		zap.Duration("latency", time.Since(start)),
	)
	return payload, nil
}

// Name implements Provider
func (p *GroqProvider) Name() ProviderName {
	return ProviderGroq
}

// Model implements Provider
func (p *GroqProvider) Model() string {
	return p.config.Model
}

// Close implements Provider. The HTTP client holds no resources that need releasing.
func (p *GroqProvider) Close() error {
	return nil
}
