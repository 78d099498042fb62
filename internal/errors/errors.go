// Package errors defines the stable error code system for cloudrole.
package errors

import (
	"errors"
	"fmt"
	"io"
)

// Code is a stable error code string.
type Code string

// Error codes. Stable public contract; scripts match on these.
const (
	EUsage         Code = "E_USAGE"
	EInternal      Code = "E_INTERNAL"
	EInvalidConfig Code = "E_INVALID_CONFIG"

	// Role lookup and enablement
	ERoleNotFound        Code = "E_ROLE_NOT_FOUND"
	EWrongRoleKind       Code = "E_WRONG_ROLE_KIND"
	EUnsupportedRoleKind Code = "E_UNSUPPORTED_ROLE_KIND"
	ENotAFeatureProvider Code = "E_NOT_FEATURE_PROVIDER"
	EAlreadyEnabled      Code = "E_ALREADY_ENABLED"
	EUnknownFeature      Code = "E_UNKNOWN_FEATURE"

	// Project documents
	EDocumentNotFound  Code = "E_DOCUMENT_NOT_FOUND"
	EDocumentMalformed Code = "E_DOCUMENT_MALFORMED"
	EIOFailure         Code = "E_IO_FAILURE"

	// Project scaffolding
	EProjectExists Code = "E_PROJECT_EXISTS"
	ERoleExists    Code = "E_ROLE_EXISTS"
	EInvalidRole   Code = "E_INVALID_ROLE"
	EProjectLocked Code = "E_PROJECT_LOCKED"
)

// CodedError is the standard error type for cloudrole errors.
// Msg is the caller-visible text.
type CodedError struct {
	Code    Code
	Msg     string
	Cause   error
	Details map[string]string // optional structured context
}

// Error returns the stable error format: "CODE: message".
func (e *CodedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *CodedError) Unwrap() error {
	return e.Cause
}

// New creates a new CodedError with the given code and message.
func New(code Code, msg string) error {
	return &CodedError{Code: code, Msg: msg}
}

// Newf creates a new CodedError with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &CodedError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// NewWithDetails creates a new CodedError with code, message, and details.
// Details map is copied (nil if empty).
func NewWithDetails(code Code, msg string, details map[string]string) error {
	return &CodedError{Code: code, Msg: msg, Details: copyDetails(details)}
}

// Wrap creates a new CodedError wrapping an underlying error.
func Wrap(code Code, msg string, err error) error {
	return &CodedError{Code: code, Msg: msg, Cause: err}
}

// WrapWithDetails creates a new CodedError wrapping an underlying error with details.
// Details map is copied (nil if empty).
func WrapWithDetails(code Code, msg string, err error, details map[string]string) error {
	return &CodedError{Code: code, Msg: msg, Cause: err, Details: copyDetails(details)}
}

// GetCode extracts the error code from an error, or empty string if not a CodedError.
func GetCode(err error) Code {
	var ce *CodedError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// Message returns the caller-visible message of err.
// For a CodedError this is Msg without the code prefix.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var ce *CodedError
	if errors.As(err, &ce) {
		return ce.Msg
	}
	return err.Error()
}

// AsCodedError returns (*CodedError, true) if err is or wraps a CodedError.
func AsCodedError(err error) (*CodedError, bool) {
	var ce *CodedError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

func copyDetails(details map[string]string) map[string]string {
	if len(details) == 0 {
		return nil
	}
	cp := make(map[string]string, len(details))
	for k, v := range details {
		cp[k] = v
	}
	return cp
}

// ExitCode returns the appropriate exit code for an error.
// Returns 0 if err is nil, 2 for E_USAGE, 1 for all other errors.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if GetCode(err) == EUsage {
		return 2
	}
	return 1
}

// Print writes the error to w in the stable stderr format:
//
//	error_code: <CODE>
//	<message>
func Print(w io.Writer, err error) {
	if err == nil {
		return
	}
	var ce *CodedError
	if errors.As(err, &ce) {
		fmt.Fprintf(w, "error_code: %s\n", ce.Code)
		fmt.Fprintln(w, ce.Msg)
	} else {
		fmt.Fprintln(w, err.Error())
	}
}
