// Package validation turns raw provider payloads into canonical analysis results.
package validation

import (
	"fmt"

	"github.com/jonathan/resume-screener/internal/schemas"
)

// ValidationError is returned when a provider payload does not satisfy the result contract.
//
//nolint:revive // ValidationError reads better than Error at call sites in other packages
type ValidationError struct {
	Field      string // first offending field, empty when the payload as a whole is unusable
	Message    string
	Violations []schemas.FieldError
	Cause      error
}

func (e *ValidationError) Error() string {
	msg := "invalid analysis response"
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s: %s", msg, e.Field, e.Message)
	} else {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}
