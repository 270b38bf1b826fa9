package logger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type key int

const (
	// KeyRequestID is the Request ID in the Context.
	KeyRequestID key = 0

	// KeyLogger is the Logger in the Context.
	KeyLogger key = 1

	// KeyOperation is the key for the ledger operation in the Context.
	KeyOperation key = 2
)

// NewContext returns a fully configured Context with from a background
// Context, with a new RequestID set, and a Logger.
//
// The Logger will include the RequestID field.
func NewContext() context.Context {
	return ContextWithRequestID(context.Background(), "")
}

// NewContextWithRequestID returns a fully configured Context, the same
// as from NewContext, but with the given RequestID.
func NewContextWithRequestID(id string) context.Context {
	return ContextWithRequestID(context.Background(), id)
}

// ContextWithRequestID returns a fully configured Context from the given
// Context and RequestID.
//
// If the RequestID is an empty string, a RequestID will be generated.
//
// The Context will have a Logger, which will have the RequestID field set.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	if len(id) == 0 {
		uid, _ := uuid.NewRandom()
		id = uid.String()
	}

	// add the request ID
	ctx = context.WithValue(ctx, KeyRequestID, id)

	// add the logger which will have the request ID (and other optional
	// fields) set.
	logger := newLogger(ctx)

	return ContextWithLogger(ctx, logger)
}

// ContextWithOperation returns a Context with the named ledger operation
// set, such as "mint.request" or "burn.complete".
//
// A Logger with the operation field set is associated with the Context.
func ContextWithOperation(ctx context.Context, operation string) context.Context {
	ctx = context.WithValue(ctx, KeyOperation, operation)

	// modify the existing logger to include the operation in the fields
	logger := NewLoggerFromContext(ctx)
	logger = logger.With(zap.String(fieldOperation, operation))

	return ContextWithLogger(ctx, logger)
}

// ContextWithLogger adds the Logger to the Context.
func ContextWithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, KeyLogger, logger)
}

// NewContextWithNamedLogger returns a new Context with a named Logger.
func NewContextWithNamedLogger(name string) context.Context {
	ctx := NewContext()
	return ContextWithNamedLogger(ctx, name)
}

// ContextWithNamedLogger returns a Context with a new named Logger.
func ContextWithNamedLogger(ctx context.Context, name string) context.Context {
	logger := NewLoggerFromContext(ctx)
	logger = logger.Named(name)

	return context.WithValue(ctx, KeyLogger, logger)
}

// RequestIDFromContext returns the request ID from the Context.
//
// If the value was not set in the Context, "unknown" is returned. This can
// help find services that are not adding the RequestID.
func RequestIDFromContext(ctx context.Context) string {
	v := ctx.Value(KeyRequestID)

	if v == nil {
		// find these in the logs as it "breaks" the request id chain
		// we use for tracing actions.
		id, _ := uuid.NewRandom()
		return fmt.Sprintf("unknown/%s", id.String())
	}

	return v.(string)
}

// OperationFromContext returns the ledger operation being processed if set,
// otherwise an empty string.
func OperationFromContext(ctx context.Context) string {
	v := ctx.Value(KeyOperation)

	if v == nil {
		return ""
	}

	return v.(string)
}
