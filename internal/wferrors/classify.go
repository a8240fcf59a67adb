package wferrors

import (
	"context"
	"database/sql"
	"errors"
	"os"
)

// Classify turns an unclassified error into a WorkflowError whose code
// follows the error's kind, falling back to CodeInternal. The API layer does
// not call it: writeEngineError answers any non-WorkflowError with a 500.
func Classify(err error) *WorkflowError {
	if err == nil {
		return nil
	}
	if we, ok := err.(*WorkflowError); ok {
		return we
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return New(CodeToolFailure, "operation timed out").WithCause(err)
	}
	if errors.Is(err, context.Canceled) {
		return New(CodeInternal, "operation cancelled").WithCause(err)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return New(CodeNotFound, "not found").WithCause(err)
	}
	if errors.Is(err, os.ErrNotExist) {
		return New(CodeInvalidInput, "path does not exist").WithCause(err)
	}

	return New(CodeInternal, "an unexpected error occurred").WithCause(err)
}
