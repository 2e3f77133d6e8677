package check

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel causes. Every check failure is a *ValidationError whose Unwrap
// returns one of these, so callers can match with errors.Is.
var (
	ErrShapeMismatch      = errors.New("shape mismatch")
	ErrInvalidWires       = errors.New("invalid wires")
	ErrInconsistentLayers = errors.New("inconsistent layers")
	ErrSymbolicValue      = errors.New("symbolic value not allowed")
	ErrNotInOptions       = errors.New("value not in options")
	ErrTypeMismatch       = errors.New("type mismatch")
)

// Validation error codes (V101-V106), one per sentinel.
const (
	CodeShapeMismatch      = "V101"
	CodeInvalidWires       = "V102"
	CodeInconsistentLayers = "V103"
	CodeSymbolicValue      = "V104"
	CodeNotInOptions       = "V105"
	CodeTypeMismatch       = "V106"
)

var codes = map[error]string{
	ErrShapeMismatch:      CodeShapeMismatch,
	ErrInvalidWires:       CodeInvalidWires,
	ErrInconsistentLayers: CodeInconsistentLayers,
	ErrSymbolicValue:      CodeSymbolicValue,
	ErrNotInOptions:       CodeNotInOptions,
	ErrTypeMismatch:       CodeTypeMismatch,
}

// ValidationError is the single error type returned by every check.
type ValidationError struct {
	// Code identifies the failure category (V101-V106).
	Code string

	// Detail describes what was found, e.g. "got shape (4,), want at most (1,)".
	Detail string

	// Message is caller-supplied context. Render always includes it verbatim.
	Message string

	// Args names the logical argument(s) being checked, if known.
	Args []string

	cause error
}

func newError(cause error, msg, format string, args ...any) *ValidationError {
	return &ValidationError{
		Code:    codes[cause],
		Detail:  fmt.Sprintf(format, args...),
		Message: msg,
		cause:   cause,
	}
}

// Render formats the error. The caller's Message is always present verbatim.
func (e *ValidationError) Render() string {
	var b strings.Builder
	b.WriteString(e.Code)
	b.WriteString(": ")
	if e.cause != nil {
		b.WriteString(e.cause.Error())
	} else {
		b.WriteString("validation failed")
	}
	if len(e.Args) > 0 {
		fmt.Fprintf(&b, " in %s", strings.Join(e.Args, ", "))
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Message != "" {
		b.WriteString(" (")
		b.WriteString(e.Message)
		b.WriteString(")")
	}
	return b.String()
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Render()
}

// Unwrap returns the sentinel cause.
func (e *ValidationError) Unwrap() error {
	return e.cause
}

// IsValidationError reports whether err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// WithMessage sets msg on a *ValidationError that has no caller message yet.
func WithMessage(err error, msg string) error {
	if msg == "" {
		return err
	}
	var ve *ValidationError
	if errors.As(err, &ve) && ve.Message == "" {
		ve.Message = msg
	}
	return err
}
