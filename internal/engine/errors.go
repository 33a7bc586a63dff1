package engine

import (
	"errors"
	"fmt"
)

// Common extraction errors.
var (
	// ErrMissingCredentials is returned when a backend's credentials are
	// not configured in the environment.
	ErrMissingCredentials = errors.New("missing backend credentials")

	// ErrExtractionFailed is returned when the backend call itself fails
	// (network, auth, server error).
	ErrExtractionFailed = errors.New("text extraction failed")

	// ErrQuotaExceeded is returned when the backend reports quota or rate
	// limits.
	ErrQuotaExceeded = errors.New("backend quota exceeded")

	// ErrEmptyText is returned when the backend succeeds but recognizes no
	// text in the image.
	ErrEmptyText = errors.New("no readable text found in image")

	// ErrImageTooLarge is returned when the image exceeds a backend's
	// synchronous processing limit.
	ErrImageTooLarge = errors.New("image exceeds maximum size limit")
)

// EngineError wraps errors with context about which backend operation failed.
type EngineError struct {
	// Op is the operation that failed (e.g., "Extract", "NewVisionEngine").
	Op string

	// Engine is the backend's name.
	Engine string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("engine %s: %s failed: %s: %v", e.Engine, e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("engine %s: %s failed: %v", e.Engine, e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// Is implements error matching for errors.Is.
func (e *EngineError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapEngineError wraps an error as an EngineError if it isn't already one.
func WrapEngineError(op, engine string, err error, details string) error {
	if err == nil {
		return nil
	}
	var engErr *EngineError
	if errors.As(err, &engErr) {
		return err
	}
	return &EngineError{Op: op, Engine: engine, Err: err, Details: details}
}
