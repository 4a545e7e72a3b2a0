// Package schemas provides JSON Schema validation for provider payloads.
package schemas

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	embedded "github.com/jonathan/resume-screener/schemas"
	"github.com/xeipuuv/gojsonschema"
)

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// Fields returns the distinct failing field paths, sorted.
func (ve *ValidationError) Fields() []string {
	seen := make(map[string]bool, len(ve.Errors))
	fields := make([]string, 0, len(ve.Errors))
	for _, e := range ve.Errors {
		if !seen[e.Field] {
			seen[e.Field] = true
			fields = append(fields, e.Field)
		}
	}
	sort.Strings(fields)
	return fields
}

// compiled caches schemas compiled from the embedded files
var (
	compiled   = make(map[string]*gojsonschema.Schema)
	compiledMu sync.Mutex
)

func compiledSchema(name string) (*gojsonschema.Schema, error) {
	compiledMu.Lock()
	defer compiledMu.Unlock()

	if s, ok := compiled[name]; ok {
		return s, nil
	}

	content, err := embedded.Load(name)
	if err != nil {
		return nil, &SchemaLoadError{Path: name, Message: "schema not embedded", Cause: err}
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(content))
	if err != nil {
		return nil, &SchemaLoadError{Path: name, Message: "schema does not compile", Cause: err}
	}
	compiled[name] = s
	return s, nil
}

// Validate validates JSON content against one of the embedded schemas.
func Validate(schemaName, jsonContent string) error {
	schema, err := compiledSchema(schemaName)
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(jsonContent))
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}
	return toValidationError(result)
}

// ValidateAnalysisResult validates a provider payload against the analysis result schema.
func ValidateAnalysisResult(jsonContent string) error {
	return Validate(embedded.AnalysisResultSchema, jsonContent)
}

// ValidateJSONString validates JSON string content against schema string content
func ValidateJSONString(schemaContent, jsonContent string) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaContent)
	documentLoader := gojsonschema.NewStringLoader(jsonContent)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &SchemaLoadError{
			Path:    "(string schema)",
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}
	return toValidationError(result)
}

func toValidationError(result *gojsonschema.Result) error {
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}
