package llm

import "fmt"

// ProviderError is returned when a provider cannot produce a usable payload:
// the backend was unreachable, answered with an error, or returned something that is not JSON.
type ProviderError struct {
	Provider   ProviderName
	Message    string
	StatusCode int // HTTP status from the backend, 0 when unknown
	Cause      error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s provider: %s", e.Provider, e.Message)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}
