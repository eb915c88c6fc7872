package common

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a PipelineError by origin
type ErrorKind string

const (
	KindGeneration ErrorKind = "generation"
	KindSearch     ErrorKind = "search"
	KindExport     ErrorKind = "export"
	KindNotFound   ErrorKind = "not_found"
	KindValidation ErrorKind = "validation"
	KindConflict   ErrorKind = "conflict"
)

// Sentinels for errors.Is checks. A PipelineError matches the sentinel of its kind.
var (
	ErrNotFound      = &PipelineError{Kind: KindNotFound, Message: "not found"}
	ErrValidation    = &PipelineError{Kind: KindValidation, Message: "validation failed"}
	ErrRunInProgress = &PipelineError{Kind: KindConflict, Message: "run is already in progress"}
)

// PipelineError is the single error type surfaced by the research pipeline.
// Stage names the step that failed (ask_question, search_web, write_section, docx, ...).
type PipelineError struct {
	Kind    ErrorKind
	Stage   string
	Message string
	Cause   error
}

func (e *PipelineError) Error() string {
	msg := e.Message
	if e.Stage != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.Stage)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Is reports kind equality so callers can match against the sentinels
func (e *PipelineError) Is(target error) bool {
	var t *PipelineError
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// NewGenerationError wraps a language-model failure for the given stage
func NewGenerationError(stage string, cause error) *PipelineError {
	return &PipelineError{
		Kind:    KindGeneration,
		Stage:   stage,
		Message: "generation failed",
		Cause:   cause,
	}
}

// NewSearchError wraps a transport or provider failure of the web search.
// Zero results are not an error.
func NewSearchError(stage string, cause error) *PipelineError {
	return &PipelineError{
		Kind:    KindSearch,
		Stage:   stage,
		Message: "web search failed",
		Cause:   cause,
	}
}

// NewExportError wraps a failure of one export format
func NewExportError(format string, cause error) *PipelineError {
	return &PipelineError{
		Kind:    KindExport,
		Stage:   format,
		Message: "export failed",
		Cause:   cause,
	}
}

// NewNotFoundError reports an unknown run id or missing artifact
func NewNotFoundError(format string, args ...interface{}) *PipelineError {
	return &PipelineError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewValidationError reports input rejected before any work begins
func NewValidationError(format string, args ...interface{}) *PipelineError {
	return &PipelineError{
		Kind:    KindValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithStage tags an error with a stage. A PipelineError that already carries a
// stage keeps it; anything else becomes a generation failure of that stage.
func WithStage(stage string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PipelineError
	if errors.As(err, &pe) {
		if pe.Stage == "" {
			tagged := *pe
			tagged.Stage = stage
			return &tagged
		}
		return err
	}
	return NewGenerationError(stage, err)
}

// StageOf returns the stage recorded on err, or "" when err carries none
func StageOf(err error) string {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Stage
	}
	return ""
}
