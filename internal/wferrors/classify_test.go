package wferrors

import (
	"context"
	"database/sql"
	"os"
	"testing"
)

func TestClassifyPassesThroughWorkflowError(t *testing.T) {
	original := New(CodeInvalidInput, "bad")
	if got := Classify(original); got != original {
		t.Fatal("expected Classify to return the existing WorkflowError unchanged")
	}
}

func TestClassifyMapsKnownSentinelErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code Code
	}{
		{"deadline exceeded", context.DeadlineExceeded, CodeToolFailure},
		{"cancelled", context.Canceled, CodeInternal},
		{"no rows", sql.ErrNoRows, CodeNotFound},
		{"not exist", os.ErrNotExist, CodeInvalidInput},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Classify(c.err)
			if got.Code != c.code {
				t.Fatalf("Classify(%v) code = %q, want %q", c.err, got.Code, c.code)
			}
			if got.Cause != c.err {
				t.Fatalf("expected the original error preserved as cause")
			}
		})
	}
}

func TestClassifyDefaultsToInternal(t *testing.T) {
	got := Classify(os.ErrClosed)
	if got.Code != CodeInternal {
		t.Fatalf("expected an unrecognized error to classify as internal, got %q", got.Code)
	}
}

func TestClassifyNil(t *testing.T) {
	if Classify(nil) != nil {
		t.Fatal("expected Classify(nil) to return nil")
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[Code]int{
		CodeAuthMissing:       401,
		CodeNotFound:          404,
		CodeInvalidInput:      422,
		CodeProtocolViolation: 409,
		CodeInternal:          500,
		CodeToolFailure:       500,
	}
	for code, want := range cases {
		if got := code.HTTPStatus(); got != want {
			t.Errorf("%s.HTTPStatus() = %d, want %d", code, got, want)
		}
	}
}
