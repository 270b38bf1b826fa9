package logger

import (
	"context"
	"regexp"
	"testing"
)

func TestNewContext(t *testing.T) {
	ctx := NewContext()

	if ctx.Value(KeyLogger) == nil {
		t.Errorf("Want not nil, got nil")
	}

	if ctx.Value(KeyRequestID) == "" {
		t.Errorf("Expected request ID value to be non-empty")
	}

	requestID := ctx.Value(KeyRequestID).(string)

	if len(requestID) != 36 {
		t.Errorf("Got %v, want %v", len(requestID), 36)
	}
}

func TestContextWithRequestID(t *testing.T) {
	ctx := context.Background()

	gotNotSet := RequestIDFromContext(ctx)

	pattern := "unknown/[[:ascii:]]{36}"
	match, _ := regexp.MatchString(pattern, gotNotSet)

	if !match {
		t.Errorf("%v did not match %v", gotNotSet, pattern)
	}

	want := "foo"
	ctx = ContextWithRequestID(ctx, want)

	if ctx.Value(KeyLogger) == nil {
		t.Errorf("Want not nil, got nil")
	}

	got := ctx.Value(KeyRequestID)
	if got != want {
		t.Errorf("Got %v, want %v", got, want)
	}

	got = RequestIDFromContext(ctx)
	if got != want {
		t.Errorf("Got %v, want %v", got, want)
	}
}

func TestContextWithOperation(t *testing.T) {
	ctx := NewContext()

	if got := OperationFromContext(ctx); got != "" {
		t.Errorf("Got %v, want empty", got)
	}

	want := "mint.request"
	ctx = ContextWithOperation(ctx, want)

	if got := OperationFromContext(ctx); got != want {
		t.Errorf("Got %v, want %v", got, want)
	}
}

func TestNewLoggerFromContext_nilLogger(t *testing.T) {
	ctx := context.Background()

	logger := NewLoggerFromContext(ctx)

	if logger == nil {
		t.Errorf("Want not nil, got nil")
	}
}
