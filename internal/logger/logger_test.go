package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithFormat_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithFormat(&buf, int(slog.LevelInfo), "json")

	l.With("component", "test").Info("hello", "key", "value")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "hello", record["msg"])
	assert.Equal(t, "value", record["key"])
	assert.Equal(t, "test", record["component"])
}

func TestNewWithFormat_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithFormat(&buf, int(slog.LevelWarn), "text")

	l.Info("dropped")
	assert.Empty(t, buf.String())

	l.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}
