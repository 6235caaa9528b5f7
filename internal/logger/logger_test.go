package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "debug", "json")

	assert.True(t, L.Enabled(context.Background(), slog.LevelDebug))
	L.Debug("instance created", "entity", "Contact", "id", 7)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "instance created", record["msg"])
	assert.Equal(t, "Contact", record["entity"])
}

func TestInitWriterFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "warn", "text")

	L.Info("dropped")
	assert.Empty(t, buf.String())

	L.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "info", "text")

	assert.Same(t, L, FromContext(context.Background()))

	runLogger := L.With("run_id", "abc")
	ctx := WithContext(context.Background(), runLogger)
	assert.Same(t, runLogger, FromContext(ctx))

	FromContext(ctx).Info("populate started")
	assert.Contains(t, buf.String(), "run_id=abc")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"Warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, parseLevel(tt.input), tt.input)
	}
}
