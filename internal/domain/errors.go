package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("resource not found")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrUploadFailed        = errors.New("file upload to storage failed")
	ErrTextUnavailable     = errors.New("document text could not be acquired")
	ErrInvalidInput        = errors.New("invalid input")
)

// Record errors
var (
	ErrRecordNotFound      = fmt.Errorf("record %w", ErrNotFound)
	ErrRecordAlreadyExists = errors.New("a record already exists for this filename")
	ErrInvalidTransition   = errors.New("status transition not allowed")
)

// ExtractionError is returned by the alternate extraction strategy when the
// provider fails or its output cannot be turned into a FieldSet.
type ExtractionError struct {
	Provider string
	Reason   string
	Err      error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s extraction failed: %s: %v", e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s extraction failed: %s", e.Provider, e.Reason)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// NewExtractionError creates an ExtractionError.
func NewExtractionError(provider, reason string, err error) *ExtractionError {
	return &ExtractionError{Provider: provider, Reason: reason, Err: err}
}
