package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Application error codes. Handlers map these onto HTTP statuses; everything
// outside this list is treated as an internal error.
const (
	CodeInvalidSlotIndex = 40001
	CodeEmptyContent     = 40002
	CodeContentTooLong   = 40003
	CodeNotFound         = 40401
	CodeVoiceNotReady    = 40901
	CodeProviderFailure  = 50201
	CodeSynthesisFailed  = 50202
)

// Error is a coded error with an optional wrapped cause and a captured stack.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
	Stack   string `json:"stack,omitempty"`
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

func (e *Error) Unwrap() error { return e.Err }

// WithCode creates a new coded error.
func WithCode(code int, message string) *Error {
	return &Error{Code: code, Message: message, Stack: captureStack()}
}

// WithCodef creates a new coded error with a formatted message.
func WithCodef(code int, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Stack: captureStack()}
}

// WrapCode attaches a code and message to an underlying error. Returns nil
// when err is nil so call sites can wrap unconditionally.
func WrapCode(code int, err error, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err, Stack: captureStack()}
}

// New creates a new error without a code.
func New(message string) *Error {
	return &Error{Message: message, Stack: captureStack()}
}

// Errorf creates a new formatted error without a code.
func Errorf(format string, args ...interface{}) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Stack: captureStack()}
}

// GetCode extracts the application code from anywhere in the error chain;
// zero when none is present.
func GetCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}

// IsCode reports whether the error chain carries the given code.
func IsCode(err error, code int) bool {
	return GetCode(err) == code
}

// Cause walks to the innermost wrapped error.
func Cause(err error) error {
	for err != nil {
		var e *Error
		if errors.As(err, &e) && e.Err != nil {
			err = e.Err
			continue
		}
		return err
	}
	return err
}

func captureStack() string {
	buf := make([]byte, 1024)
	n := runtime.Stack(buf, false)
	stack := string(buf[:n])

	// Drop the captureStack and constructor frames.
	lines := strings.Split(stack, "\n")
	if len(lines) > 6 {
		stack = strings.Join(lines[6:], "\n")
	}
	return strings.TrimSpace(stack)
}
