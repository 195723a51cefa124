package interview

import (
	"errors"
	"fmt"
)

var (
	// ErrNotStarted is returned for candidate input that arrives before Start.
	ErrNotStarted = errors.New("interview has not been started")
	// ErrUploadClosed is returned for documents uploaded after the first question was asked.
	ErrUploadClosed = errors.New("document upload is closed once questions have started")
)

// ValidationError reports an identity field value that was rejected. The
// session stays in the same phase and the request is repeated.
type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}
