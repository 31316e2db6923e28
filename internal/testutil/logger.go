package testutil

import (
	"io"

	"github.com/dtroode/alumni-connect-server/internal/logger"
)

// MakeNoopLogger returns a logger that discards every record.
func MakeNoopLogger() *logger.Logger {
	return logger.NewWithFormat(io.Discard, 0, "text")
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
