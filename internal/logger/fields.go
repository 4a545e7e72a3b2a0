package logger

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	// FieldProvider is the structured log field key for the AI provider name.
	FieldProvider = "ai_provider"
	// FieldModel is the structured log field key for the AI model identifier.
	FieldModel = "ai_model"
	// FieldIdentity is the structured log field key for the session identity.
	FieldIdentity = "identity"
)

// CommonFields returns standard zap fields that describe the AI provider and model.
// Empty values are ignored to keep log entries compact when information is missing.
func CommonFields(provider, model string) []zap.Field {
	fields := make([]zap.Field, 0, 2)
	if p := strings.TrimSpace(provider); p != "" {
		fields = append(fields, zap.String(FieldProvider, p))
	}
	if m := strings.TrimSpace(model); m != "" {
		fields = append(fields, zap.String(FieldModel, m))
	}
	return fields
}

// WithCommonFields attaches the common AI fields to the provided logger.
// If the logger is nil, a no-op logger is created to avoid panics.
func WithCommonFields(l *zap.Logger, provider, model string) *zap.Logger {
	l = OrNop(l)
	fields := CommonFields(provider, model)
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}

// TextSize describes free text by its size only. Resume and job description
// contents must never reach the logs.
func TextSize(key, text string) zap.Field {
	return zap.Int(key+"_chars", utf8.RuneCountInString(text))
}
