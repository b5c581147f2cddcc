package errors

import (
	stdErrors "errors"
	"fmt"
	"strings"
)

// Code identifies one failure class of the scaffolding flow.
type Code string

const (
	CodeConnRefused         Code = "CONN_REFUSED"
	CodeAuthFailed          Code = "AUTH_FAILED"
	CodeAuthRequired        Code = "AUTH_REQUIRED"
	CodeDBNotFound          Code = "DB_NOT_FOUND"
	CodeInsufficientSpace   Code = "INSUFFICIENT_SPACE"
	CodeDirExists           Code = "DIR_EXISTS"
	CodeTemplateFetchFailed Code = "TEMPLATE_FETCH_FAILED"
	CodeManifestMissing     Code = "MANIFEST_MISSING"
	CodeInstallFailed       Code = "INSTALL_FAILED"
	CodeUnknown             Code = "UNKNOWN"
)

// ParseError represents an answers-file parsing failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures configuration validation issues.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// StageError represents a failure of one provisioning stage. Remediation and
// Output are meant for the operator; RollbackErr is set when cleaning up the
// project directory failed as well.
type StageError struct {
	Stage       string
	Code        Code
	Err         error
	Remediation []string
	Output      string
	RollbackErr error
}

// NewStageError constructs a StageError.
func NewStageError(stage string, code Code, err error) *StageError {
	return &StageError{Stage: stage, Code: code, Err: err}
}

func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	if e.Stage != "" {
		fmt.Fprintf(&b, "stage %s failed [%s]", e.Stage, e.Code)
	} else {
		fmt.Fprintf(&b, "stage failed [%s]", e.Code)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.RollbackErr != nil {
		fmt.Fprintf(&b, " (rollback failed: %v)", e.RollbackErr)
	}
	return b.String()
}

// Unwrap exposes the stage's root error.
func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// CodeOf extracts the failure code from err, returning CodeUnknown when err
// carries none.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var coded interface{ ErrorCode() Code }
	if stdErrors.As(err, &coded) {
		return coded.ErrorCode()
	}
	return CodeUnknown
}

// ErrorCode reports the stage failure code.
func (e *StageError) ErrorCode() Code {
	if e == nil {
		return ""
	}
	return e.Code
}
