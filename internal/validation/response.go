package validation

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/jonathan/resume-screener/internal/schemas"
	"github.com/jonathan/resume-screener/internal/types"
)

// ValidateResponse checks a raw provider payload and decodes it into an AnalysisResult.
//
// Types are strict: a score sent as a string is rejected rather than converted.
// Fields outside the contract are ignored. Missing strength and weakness lists
// become empty lists. Validating the serialized output again yields the same result.
func ValidateResponse(raw string) (*types.AnalysisResult, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, &ValidationError{Message: "response is empty"}
	}
	if !json.Valid([]byte(raw)) {
		return nil, &ValidationError{Message: "response is not valid JSON"}
	}

	if err := schemas.ValidateAnalysisResult(raw); err != nil {
		var schemaErr *schemas.ValidationError
		if errors.As(err, &schemaErr) {
			field := ""
			if fields := schemaErr.Fields(); len(fields) > 0 {
				field = fields[0]
			}
			return nil, &ValidationError{
				Field:      field,
				Message:    describe(schemaErr),
				Violations: schemaErr.Errors,
			}
		}
		return nil, &ValidationError{Message: "response could not be checked", Cause: err}
	}

	var result types.AnalysisResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, &ValidationError{Message: "response could not be decoded", Cause: err}
	}

	if result.Strengths == nil {
		result.Strengths = []string{}
	}
	if result.Weaknesses == nil {
		result.Weaknesses = []string{}
	}
	return &result, nil
}

func describe(err *schemas.ValidationError) string {
	if len(err.Errors) == 0 {
		return "does not match the expected shape"
	}
	msgs := make([]string, 0, len(err.Errors))
	for _, e := range err.Errors {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}
