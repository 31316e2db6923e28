package middleware

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dtroode/alumni-connect-server/internal/logger"
)

// Logging is a unary interceptor that logs gRPC calls and their results.
type Logging struct {
	logger *logger.Logger
}

// NewLogging creates a new Logging middleware.
func NewLogging(logger *logger.Logger) *Logging {
	return &Logging{logger: logger}
}

// HandleGRPC logs method, duration and status code of each unary call.
// Health probes are frequent, so successful calls are logged at debug level.
func (l *Logging) HandleGRPC(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()

	resp, err := handler(ctx, req)

	code := status.Code(err)
	args := []any{
		"method", info.FullMethod,
		"duration_ms", time.Since(start).Milliseconds(),
		"status", code.String(),
	}

	if err != nil {
		l.logger.Error("gRPC request failed", append(args, "error", err.Error())...)
		return resp, err
	}

	l.logger.Debug("gRPC request completed", args...)
	return resp, nil
}

// RecoverPanic turns a handler panic into codes.Internal.
func (l *Logging) RecoverPanic(ctx context.Context, p any) error {
	l.logger.Error("gRPC handler panicked",
		"panic", p)
	return status.Error(codes.Internal, "internal error")
}
