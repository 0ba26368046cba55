package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrTranscription    = errors.New("transcription failed")
	ErrGeneration       = errors.New("idea generation failed")
	ErrDuplicateStaging = errors.New("file already staged")
	ErrCancelled        = errors.New("cancelled")
)

// ValidationError names the rejected field. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
