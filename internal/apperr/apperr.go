// Package apperr defines the error categories shared by the processing
// pipeline: validation, not-found, processing and configuration failures.
// Callers branch with errors.Is against the sentinel values.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks bad input media. Never surfaced as a 5xx.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a missing workspace, video or file. The owning
	// task is abandoned with a warning.
	ErrNotFound = errors.New("not found")

	// ErrProcessing marks an external tool failure. The video is marked
	// ProcessingFailed and the task is not retried.
	ErrProcessing = errors.New("processing failed")

	// ErrConfiguration marks a missing required artifact, fatal to the
	// task that needed it.
	ErrConfiguration = errors.New("configuration error")
)

// Validation wraps a message as a validation error.
func Validation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrValidation}, args...)...)
}

// NotFound wraps a message as a not-found error.
func NotFound(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrNotFound}, args...)...)
}

// Processing wraps a message as a processing error.
func Processing(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrProcessing}, args...)...)
}

// Configuration wraps a message as a configuration error.
func Configuration(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrConfiguration}, args...)...)
}
