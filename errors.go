package sentin

import (
	"errors"
	"fmt"
)

// Error codes for specific failure types
const (
	ErrCodeSourceFetch    = "SOURCE_FETCH_ERROR"
	ErrCodePlanGeneration = "PLAN_GENERATION_ERROR"
	ErrCodeToolExecution  = "TOOL_EXECUTION_ERROR"
	ErrCodeUnroutable     = "UNROUTABLE_ACTION"
	ErrCodeConfiguration  = "CONFIGURATION_ERROR"
	ErrCodeCancelled      = "EXECUTION_CANCELLED"
	ErrCodeInternal       = "INTERNAL_ERROR"
)

// SentinError is the custom error type for core failures.
type SentinError struct {
	Code    string // A machine-readable error code (e.g., ErrCodeSourceFetch)
	Message string // A human-readable message
	Stage   string // The stage where the error occurred (e.g., "scan", "dispatch")
	Cause   error  // The underlying error, if any
}

// Error implements the error interface.
func (e *SentinError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Stage, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Stage, e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error, allowing for error chaining.
func (e *SentinError) Unwrap() error {
	return e.Cause
}

// NewError creates a new SentinError.
func NewError(code, stage, message string, cause error) *SentinError {
	return &SentinError{
		Code:    code,
		Stage:   stage,
		Message: message,
		Cause:   cause,
	}
}

// IsSentinError extracts a SentinError from err's chain, if one is present.
func IsSentinError(err error) (*SentinError, bool) {
	var se *SentinError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// Specific error constructors

func NewSourceFetchError(source string, cause error) *SentinError {
	return NewError(ErrCodeSourceFetch, "scan", fmt.Sprintf("fetch failed for source '%s'", source), cause)
}

func NewPlanGenerationError(cause error) *SentinError {
	return NewError(ErrCodePlanGeneration, "planning", "failed to generate action plan", cause)
}

func NewToolExecutionError(tool ToolName, cause error) *SentinError {
	return NewError(ErrCodeToolExecution, "dispatch", fmt.Sprintf("execution failed for tool '%s'", tool), cause)
}

func NewUnroutableActionError(title string) *SentinError {
	return NewError(ErrCodeUnroutable, "dispatch", fmt.Sprintf("no route for action '%s'", title), nil)
}

func NewConfigurationError(message string, cause error) *SentinError {
	return NewError(ErrCodeConfiguration, "initialization", message, cause)
}

func NewCancelledError(stage string, cause error) *SentinError {
	msg := "execution cancelled"
	if cause != nil && cause.Error() != "" && cause.Error() != "context canceled" {
		msg = fmt.Sprintf("execution cancelled: %v", cause)
	}
	return NewError(ErrCodeCancelled, stage, msg, cause)
}

func NewInternalError(stage, message string, cause error) *SentinError {
	return NewError(ErrCodeInternal, stage, message, cause)
}
