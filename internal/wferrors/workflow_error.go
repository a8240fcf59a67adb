package wferrors

import (
	"fmt"
	"time"
)

// WorkflowError is the canonical error type for the engine. Every error
// crossing the engine/API boundary is one of these so the API layer never has
// to guess a status code from a message string.
type WorkflowError struct {
	Code      Code
	Message   string
	Cause     error
	Context   map[string]string
	Timestamp time.Time
}

func (e *WorkflowError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *WorkflowError) Unwrap() error { return e.Cause }

// Detail is the string the HTTP layer puts in {"detail": ...}.
func (e *WorkflowError) Detail() string { return e.Message }

func (e *WorkflowError) WithCause(cause error) *WorkflowError {
	e.Cause = cause
	return e
}

func (e *WorkflowError) WithContext(key, value string) *WorkflowError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// New creates a WorkflowError with the given code and message.
func New(code Code, message string) *WorkflowError {
	return &WorkflowError{Code: code, Message: message, Timestamp: time.Now().UTC()}
}

// Newf creates a WorkflowError with a formatted message.
func Newf(code Code, format string, args ...any) *WorkflowError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps err in a WorkflowError, passing it through unchanged if it
// already is one.
func Wrap(err error, code Code, message string) *WorkflowError {
	if err == nil {
		return nil
	}
	if we, ok := err.(*WorkflowError); ok {
		return we
	}
	return New(code, message).WithCause(err)
}

// As extracts a *WorkflowError from err, or nil if it is not one.
func As(err error) (*WorkflowError, bool) {
	we, ok := err.(*WorkflowError)
	return we, ok
}

// CodeOf returns the code of err, the empty code for a nil err, or
// CodeInternal if err is not a WorkflowError.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	if we, ok := err.(*WorkflowError); ok {
		return we.Code
	}
	return CodeInternal
}

// NotFound builds the NotFound(entity) error kind from spec §7.
func NotFound(entity string) *WorkflowError {
	return New(CodeNotFound, entity+" not found")
}

// InvalidInput builds the InvalidInput(field, reason) error kind.
func InvalidInput(field, reason string) *WorkflowError {
	return New(CodeInvalidInput, reason).WithContext("field", field)
}

// ProtocolViolation builds a ProtocolViolation(reason) error with one of the
// subkinds in codes.go.
func ProtocolViolation(subkind, detail string) *WorkflowError {
	return New(CodeProtocolViolation, detail).WithContext("subkind", subkind)
}
