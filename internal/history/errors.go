package history

import "fmt"

// InputError is returned when a submission is missing required input.
// Nothing is sent to the provider and nothing is stored.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input: %s %s", e.Field, e.Message)
}
