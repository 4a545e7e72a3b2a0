package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/jonathan/resume-screener/internal/logger"
	"github.com/jonathan/resume-screener/internal/types"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// generateFunc sends a single prompt to a Gemini model.
type generateFunc func(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error)

// GeminiProvider implements Provider for Google Gemini using schema-constrained JSON output.
type GeminiProvider struct {
	client   *genai.Client
	config   *Config
	logger   *zap.Logger
	generate generateFunc
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(ctx context.Context, config *Config, log *zap.Logger) (*GeminiProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(config.Model)
	model.SetTemperature(float32(config.Temperature))
	model.SetMaxOutputTokens(int32(config.MaxTokens))
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = analysisResponseSchema()

	return &GeminiProvider{
		client: client,
		config: config,
		logger: logger.WithCommonFields(log, string(ProviderGemini), config.Model),
		generate: func(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error) {
			return model.GenerateContent(ctx, genai.Text(prompt))
		},
	}, nil
}

// Analyze implements Provider
func (p *GeminiProvider) Analyze(ctx context.Context, jobDescription, resumeText string, w types.Weights) (string, error) {
	prompt, err := BuildAnalysisPrompt(jobDescription, resumeText, w, false)
	if err != nil {
		return "", fmt.Errorf("failed to build prompt: %w", err)
	}

	start := time.Now()
	resp, err := p.generate(ctx, prompt)
	if err != nil {
		p.logger.Warn("gemini request failed", zap.Duration("latency", time.Since(start)), zap.Error(err))
		return "", &ProviderError{Provider: ProviderGemini, Message: describeGeminiError(err), Cause: err}
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return "", &ProviderError{Provider: ProviderGemini, Message: "unusable response", Cause: err}
	}

	payload, err := normalizePayload(ProviderGemini, text)
	if err != nil {
		return "", err
	}

	p.logger.Debug("gemini analysis completed",
		zap.Int("prompt_chars", len(prompt)),
		zap.Int("payload_bytes", len(payload)),
		zap.Duration("latency", time.Since(start)),
	)
	return payload, nil
}

// Name implements Provider
func (p *GeminiProvider) Name() ProviderName {
	return ProviderGemini
}

// Model implements Provider
func (p *GeminiProvider) Model() string {
	return p.config.Model
}

// Close releases resources held by the client
func (p *GeminiProvider) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

func describeGeminiError(err error) string {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return "response was blocked by safety filters"
	}
	return "request failed"
}

// extractTextFromResponse extracts text from Gemini API response
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}

	return strings.Join(parts, ""), nil
}

// analysisResponseSchema mirrors the analysis payload so Gemini emits it directly.
func analysisResponseSchema() *genai.Schema {
	section := func(desc string) *genai.Schema {
		return &genai.Schema{
			Type:        genai.TypeObject,
			Description: desc,
			Properties: map[string]*genai.Schema{
				"score":   {Type: genai.TypeNumber},
				"details": {Type: genai.TypeString},
			},
			Required: []string{"score", "details"},
		}
	}
	stringList := func(desc string) *genai.Schema {
		return &genai.Schema{
			Type:        genai.TypeArray,
			Description: desc,
			Items:       &genai.Schema{Type: genai.TypeString},
		}
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"candidateName": {
				Type:        genai.TypeString,
				Description: "The full name of the candidate found in the resume.",
			},
			"overallScore": {
				Type:        genai.TypeNumber,
				Description: "A number from 0 to 100 representing the overall compatibility, considering the provided scoring weights.",
			},
			"summary": {
				Type:        genai.TypeString,
				Description: "A one-paragraph summary explaining the score and the candidate's fit for the role.",
			},
			"strengths":          stringList("A list of key strengths and matched skills."),
			"weaknesses":         stringList("A list of potential weaknesses or areas where the resume doesn't align with the job description."),
			"experienceAnalysis": section("Brief analysis of the candidate's work experience and its score."),
			"skillsAnalysis":     section("Brief analysis of the candidate's skills and its score."),
			"educationAnalysis":  section("Brief analysis of the candidate's education and its score."),
		},
		Required: []string{
			"candidateName", "overallScore", "summary", "strengths", "weaknesses",
			"experienceAnalysis", "skillsAnalysis", "educationAnalysis",
		},
	}
}
