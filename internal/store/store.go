// Package store persists analysis history: a local key-value backed store that always
// works, and a remote Postgres store scoped to a signed-in user.
package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/resume-screener/internal/types"
)

// Backend names used in errors and logs
const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

// Record is everything known about one analysis at save time.
// The job description and resume text are only kept by stores that need them.
type Record struct {
	Analysis       types.StoredAnalysis
	JobDescription string
	ResumeText     string
	Weights        types.Weights
}

// RecordStore is the contract shared by the local and remote history stores.
// scope is the owning user ID for the remote store and ignored by the local one.
type RecordStore interface {
	// Save persists the record and returns it as stored, with any store-assigned ID.
	Save(ctx context.Context, rec Record, scope string) (types.StoredAnalysis, error)
	// List returns the stored analyses newest first.
	List(ctx context.Context, scope string) ([]types.StoredAnalysis, error)
	// Delete removes a record and reports whether it existed.
	Delete(ctx context.Context, id, scope string) (bool, error)
}

// StoreError wraps a failure of a persistence backend.
//
//nolint:revive // StoreError reads better than Error at call sites in other packages
type StoreError struct {
	Backend string
	Op      string
	Cause   error
}

func (e *StoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s store: %s failed: %v", e.Backend, e.Op, e.Cause)
	}
	return fmt.Sprintf("%s store: %s failed", e.Backend, e.Op)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

// NewLocalID returns a time-ordered identifier for a locally created analysis.
func NewLocalID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return "analysis-" + id.String()
}
