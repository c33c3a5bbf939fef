package emberrors

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassString(t *testing.T) {
	tests := []struct {
		class    Class
		expected string
	}{
		{Transient, "transient"},
		{Invalid, "invalid"},
		{Fatal, "fatal"},
		{Class(999), "unknown"},
	}

	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			if got := test.class.String(); got != test.expected {
				t.Errorf("expected %s, got %s", test.expected, got)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"transport error", ErrTransport, true},
		{"frame error", ErrFrame, true},
		{"timeout", ErrTimeout, true},
		{"context deadline exceeded", context.DeadlineExceeded, true},
		{"context canceled", context.Canceled, true},
		{"invalid request", ErrInvalidRequest, false},
		{"timeout in message", fmt.Errorf("dial tcp: i/o timeout"), true},
		{"classified transient", &ClassifiedError{Class: Transient, Err: fmt.Errorf("test")}, true},
		{"classified fatal", &ClassifiedError{Class: Fatal, Err: fmt.Errorf("test")}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := IsTransient(test.err); got != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, got, test.err)
			}
		})
	}
}

func TestIsFatal(t *testing.T) {
	if !IsFatal(ErrConnectionClosed) {
		t.Error("expected ErrConnectionClosed to be fatal")
	}
	if IsFatal(ErrTimeout) {
		t.Error("expected ErrTimeout to not be fatal")
	}
	if IsFatal(nil) {
		t.Error("expected nil to not be fatal")
	}
}

func TestWrapHelpers(t *testing.T) {
	base := fmt.Errorf("boom")

	if err := WrapTransient(nil, "c", "op", "action"); err != nil {
		t.Errorf("expected nil passthrough, got %v", err)
	}

	err := WrapInvalid(base, "pipeline", "SetValue", "match response")
	var ce *ClassifiedError
	if !errors.As(err, &ce) {
		t.Fatalf("expected classified error, got %T", err)
	}
	if ce.Class != Invalid {
		t.Errorf("expected Invalid, got %v", ce.Class)
	}
	if ce.Component != "pipeline" || ce.Operation != "SetValue" {
		t.Errorf("unexpected component/operation: %+v", ce)
	}
	if got := ce.Error(); got == "" {
		t.Error("expected non-empty error message")
	}
}

func TestClassify(t *testing.T) {
	if Classify(nil) != Transient {
		t.Error("expected nil to classify as transient")
	}
	if Classify(ErrConnectionClosed) != Fatal {
		t.Error("expected ErrConnectionClosed to classify as fatal")
	}
	if Classify(ErrInvalidRequest) != Invalid {
		t.Error("expected ErrInvalidRequest to classify as invalid")
	}
}
