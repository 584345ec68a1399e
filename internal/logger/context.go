package logger

import (
	"context"

	"go.uber.org/zap"
)

// Request-scoped loggers travel through the context so every layer logs with
// the same correlation fields (request id, route) without threading a logger
// argument through the call graph.

type ctxKey struct{}

var nop = zap.NewNop()

// ContextWithLogger returns a child context carrying logger.
func ContextWithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger stored in ctx. The fallback is a shared nop
// logger, so call sites never need a nil check.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok && l != nil {
		return l
	}
	return nop
}
