package client

import "fmt"

// ErrorKind classifies sync failures so callers can decide between surfacing
// a transient message, navigating away, or leaving the queue untouched.
type ErrorKind string

const (
	ErrValidation ErrorKind = "validation"
	ErrNotFound   ErrorKind = "not_found"
	ErrDenied     ErrorKind = "denied"
	ErrTransport  ErrorKind = "transport"
	ErrTimeout    ErrorKind = "timeout"
	ErrDependency ErrorKind = "dependency"
	ErrMalformed  ErrorKind = "malformed"
)

// SyncError is a structured error from a sync operation, carrying the
// operation name and affected entity for context.
type SyncError struct {
	Op      string    // e.g. "Submit", "Drain", "Reconcile"
	Kind    ErrorKind
	Message string
	ListID  string // optional: affected list
	ItemID  string // optional: affected item
	Err     error  // optional: underlying error
}

// Error implements the error interface.
func (e *SyncError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s failed (%s): %s", e.Op, e.Kind, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s failed (%s): %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s failed (%s)", e.Op, e.Kind)
}

// Unwrap returns the underlying error for error wrapping.
func (e *SyncError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether a later drain attempt could succeed.
func (e *SyncError) IsRetryable() bool {
	return e.Kind == ErrTransport || e.Kind == ErrTimeout || e.Kind == ErrDependency
}

// NewSyncError creates a new SyncError.
func NewSyncError(op string, kind ErrorKind, message string) *SyncError {
	return &SyncError{Op: op, Kind: kind, Message: message}
}

// WithList attaches the affected list id.
func (e *SyncError) WithList(id Identity) *SyncError {
	e.ListID = id.Value
	return e
}

// WithItem attaches the affected item id.
func (e *SyncError) WithItem(id Identity) *SyncError {
	e.ItemID = id.Value
	return e
}

// WithError wraps an underlying error.
func (e *SyncError) WithError(err error) *SyncError {
	e.Err = err
	return e
}

func newValidationError(op string, err error) *SyncError {
	return &SyncError{Op: op, Kind: ErrValidation, Err: err}
}
