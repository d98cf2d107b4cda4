package domain

import (
	"errors"
	"fmt"
)

// Error kinds produced by the ingestion, retrieval and embedding pipelines.
// Handlers map them to status codes; nothing below the HTTP layer knows
// about status codes.
var (
	// ErrInvalidInput covers bad or missing files, wrong extensions and
	// payloads that do not decode as images.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDependencyFailure covers every failed call to the encoder, the
	// object store or the vector index.
	ErrDependencyFailure = errors.New("dependency failure")
)

// Fixed user-facing messages.
const (
	MsgNotAnImage          = "Uploaded file is not a valid image."
	MsgUnsupportedFileType = "Only .jpg/.jpeg/.png allowed"
	MsgEmptyVector         = "Feature vector is empty"
)

// PipelineError carries an error kind, a message safe to return to callers,
// and the underlying cause.
type PipelineError struct {
	Kind    error
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *PipelineError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// InvalidInput builds an ErrInvalidInput pipeline error.
func InvalidInput(message string, err error) *PipelineError {
	return &PipelineError{Kind: ErrInvalidInput, Message: message, Err: err}
}

// DependencyFailure builds an ErrDependencyFailure pipeline error.
func DependencyFailure(message string, err error) *PipelineError {
	return &PipelineError{Kind: ErrDependencyFailure, Message: message, Err: err}
}

// PublicMessage returns the caller-facing message of err, or fallback when
// err is not a PipelineError.
func PublicMessage(err error, fallback string) string {
	var pe *PipelineError
	if errors.As(err, &pe) && pe.Message != "" {
		return pe.Message
	}
	return fallback
}
