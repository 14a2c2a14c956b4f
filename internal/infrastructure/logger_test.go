package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridview/internal/config"
)

func TestInitializeLoggerWritesFile(t *testing.T) {
	prev := slog.Default()
	ResetLoggerForTesting()
	t.Cleanup(func() {
		ResetLoggerForTesting()
		slog.SetDefault(prev)
	})

	logFile := filepath.Join(t.TempDir(), "logs", "gridview.log")
	logger, err := InitializeLogger(config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: logFile,
	})
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.Same(t, logger, GetLogger())

	again, err := InitializeLogger(config.LoggingConfig{Level: "debug"})
	require.NoError(t, err)
	assert.Same(t, logger, again)

	logger.Info("grid loaded", "rows", 3)
	require.NoError(t, CloseLogFile())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(content, &entry))
	assert.Equal(t, "grid loaded", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.EqualValues(t, 3, entry["rows"])
}

func TestTraceIDInjection(t *testing.T) {
	var buf bytes.Buffer
	logger, file, err := NewLogger(config.LoggingConfig{Level: "debug", Format: "json", Output: "console"}, &buf)
	require.NoError(t, err)
	assert.Nil(t, file)

	ctx := WithTraceID(context.Background(), "req-123")
	logger.With("component", "test").InfoContext(ctx, "with trace")
	logger.InfoContext(context.Background(), "without trace")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first, second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "req-123", first["trace_id"])
	assert.Equal(t, "test", first["component"])
	assert.NotContains(t, second, "trace_id")
}

func TestLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := NewLogger(config.LoggingConfig{Level: "warn", Format: "text", Output: "console"}, &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLogLevel(in), in)
	}
}

func TestGetTraceIDEmpty(t *testing.T) {
	assert.Equal(t, "", GetTraceID(context.Background()))
}
