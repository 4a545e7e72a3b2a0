package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/resume-screener/internal/auth"
	"github.com/jonathan/resume-screener/internal/fetch"
	"github.com/jonathan/resume-screener/internal/history"
	"github.com/jonathan/resume-screener/internal/ingestion"
	"github.com/jonathan/resume-screener/internal/llm"
	"github.com/jonathan/resume-screener/internal/store"
	"github.com/jonathan/resume-screener/internal/validation"
)

// Public messages, one per error kind. Backend details only reach the logs.
const (
	msgProvider   = "The analysis service could not be reached or failed. Please try again."
	msgValidation = "The analysis service returned an incomplete result. Please try again."
	msgStore      = "The analysis could not be saved."
	msgFetch      = "The job posting could not be downloaded."
	msgInternal   = "Something went wrong."
	msgOtherUser  = "Another user is signed in."
)

// ErrNotFound is returned for unknown history records.
var ErrNotFound = errors.New("not found")

// Describe maps an error to an HTTP status and a message that is safe to show
// to the user. The CLI uses the same messages.
func Describe(err error) (int, string) {
	var (
		inputErr       *history.InputError
		providerErr    *llm.ProviderError
		validationErr  *validation.ValidationError
		storeErr       *store.StoreError
		unsupportedErr *ingestion.UnsupportedTypeError
		parseErr       *ingestion.ParseError
		fetchErr       *fetch.Error
	)

	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.As(err, &inputErr):
		return http.StatusBadRequest, inputErr.Error()
	case errors.As(err, &validationErr):
		return http.StatusUnprocessableEntity, msgValidation
	case errors.As(err, &providerErr):
		return http.StatusBadGateway, msgProvider
	case errors.As(err, &storeErr):
		return http.StatusInternalServerError, msgStore
	case errors.As(err, &unsupportedErr):
		return http.StatusUnsupportedMediaType, unsupportedErr.Error()
	case errors.As(err, &parseErr):
		return http.StatusUnprocessableEntity, "The document could not be read. " + parseErr.Cause.Error()
	case errors.As(err, &fetchErr), errors.Is(err, ingestion.ErrHTTPRequestFailed):
		return http.StatusBadGateway, msgFetch
	case errors.Is(err, ingestion.ErrContentExtractionFailed):
		return http.StatusUnprocessableEntity, "No job description was found at that address."
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "Analysis not found."
	}

	if status := auth.HTTPStatus(err); status != 0 {
		return status, err.Error()
	}
	return http.StatusInternalServerError, msgInternal
}
