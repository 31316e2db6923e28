package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dtroode/alumni-connect-server/internal/logger"
	"github.com/dtroode/alumni-connect-server/internal/testutil"
)

func TestLogging_HandleGRPC(t *testing.T) {
	tests := []struct {
		name     string
		handler  grpc.UnaryHandler
		wantCode codes.Code
		wantLog  string
	}{
		{
			name: "success",
			handler: func(context.Context, any) (any, error) {
				return "ok", nil
			},
			wantCode: codes.OK,
			wantLog:  "gRPC request completed",
		},
		{
			name: "status error propagates",
			handler: func(context.Context, any) (any, error) {
				return nil, status.Error(codes.NotFound, "unknown service")
			},
			wantCode: codes.NotFound,
			wantLog:  "gRPC request failed",
		},
		{
			name: "plain error is unknown",
			handler: func(context.Context, any) (any, error) {
				return nil, errors.New("boom")
			},
			wantCode: codes.Unknown,
			wantLog:  "gRPC request failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			lg := NewLogging(logger.NewWithFormat(&buf, int(slog.LevelDebug), "text"))

			info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
			resp, err := lg.HandleGRPC(context.Background(), struct{}{}, info, tt.handler)

			assert.Equal(t, tt.wantCode, status.Code(err))
			if tt.wantCode == codes.OK {
				assert.Equal(t, "ok", resp)
			}
			assert.Contains(t, buf.String(), tt.wantLog)
			assert.Contains(t, buf.String(), "/grpc.health.v1.Health/Check")
		})
	}
}

func TestLogging_RecoverPanic(t *testing.T) {
	lg := NewLogging(testutil.MakeNoopLogger())

	err := lg.RecoverPanic(context.Background(), "nil map")

	assert.Equal(t, codes.Internal, status.Code(err))
}
