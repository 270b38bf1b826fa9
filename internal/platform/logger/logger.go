package logger

import (
	"context"
	"os"
	"strings"

	"go.uber.org/zap"
)

const (
	fieldRequestID = "request_id"
	fieldOperation = "operation"
)

// newLogger builds a Logger carrying the RequestID field from the Context.
//
// Production (JSON) output is the default. Setting DEVELOPMENT=true selects
// the human readable console encoder.
func newLogger(ctx context.Context) *zap.Logger {
	var logger *zap.Logger
	var err error

	if strings.ToUpper(os.Getenv("DEVELOPMENT")) == "TRUE" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		logger = zap.NewNop()
	}

	if id, ok := ctx.Value(KeyRequestID).(string); ok {
		logger = logger.With(zap.String(fieldRequestID, id))
	}

	return logger
}

// NewLoggerFromContext returns the Logger associated with the Context.
//
// A usable Logger is always returned, even when the Context was built
// without one.
func NewLoggerFromContext(ctx context.Context) *zap.Logger {
	v := ctx.Value(KeyLogger)

	if v == nil {
		return newLogger(ctx)
	}

	return v.(*zap.Logger)
}

// Info logs at info level with the Logger from the Context.
func Info(ctx context.Context, msg string, fields ...zap.Field) {
	NewLoggerFromContext(ctx).Info(msg, fields...)
}

// Warn logs at warn level with the Logger from the Context.
func Warn(ctx context.Context, msg string, fields ...zap.Field) {
	NewLoggerFromContext(ctx).Warn(msg, fields...)
}

// Error logs at error level with the Logger from the Context.
func Error(ctx context.Context, msg string, fields ...zap.Field) {
	NewLoggerFromContext(ctx).Error(msg, fields...)
}

// Fatal logs at fatal level with the Logger from the Context, then exits.
func Fatal(ctx context.Context, msg string, fields ...zap.Field) {
	NewLoggerFromContext(ctx).Fatal(msg, fields...)
}
