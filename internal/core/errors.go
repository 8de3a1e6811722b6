// Package core holds the pure build-pipeline logic: entry synthesis, HTML
// emission, manifest parsing and the error taxonomy shared by every stage.
package core

import (
	"errors"
	"fmt"
)

// ErrorCode is the closed set of failure kinds a pipeline run can surface.
type ErrorCode string

const (
	ErrCodeInvalidRequest   ErrorCode = "INVALID_REQUEST"
	ErrCodeInvalidTemplate  ErrorCode = "INVALID_TEMPLATE"
	ErrCodeInvalidConfig    ErrorCode = "INVALID_CONFIG"
	ErrCodeInvalidProjectID ErrorCode = "INVALID_PROJECT_ID"
	ErrCodeBuildFailed      ErrorCode = "BUILD_FAILED"
	ErrCodeManifestMissing  ErrorCode = "MANIFEST_MISSING"
	ErrCodePublishFailed    ErrorCode = "PUBLISH_FAILED"
	ErrCodeProjectNotFound  ErrorCode = "PROJECT_NOT_FOUND"
)

// PipelineError carries the failure kind alongside the underlying cause.
type PipelineError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

func NewError(code ErrorCode, format string, args ...any) *PipelineError {
	return &PipelineError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func WrapError(code ErrorCode, cause error, format string, args ...any) *PipelineError {
	return &PipelineError{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// CodeOf extracts the failure kind from an error chain. Errors that did not
// originate in the pipeline report BUILD_FAILED.
func CodeOf(err error) ErrorCode {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ErrCodeBuildFailed
}
