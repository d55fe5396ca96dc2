package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "level %q", tt.in)
	}
}

func TestInit_LoggerCreatedBeforeInitFollowsHandler(t *testing.T) {
	logger := L("test")

	var buf bytes.Buffer
	Init("json", "debug", &buf)
	t.Cleanup(func() { Init("text", "info", nil) })

	logger.Debug("hello", KeySessionID, "abc")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "test", rec[KeyComponent])
	assert.Equal(t, "abc", rec[KeySessionID])
}

func TestInit_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	Init("text", "warn", &buf)
	t.Cleanup(func() { Init("text", "info", nil) })

	L("test").Info("dropped")
	assert.Empty(t, buf.String())

	L("test").Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestInit_SwitchesFormat(t *testing.T) {
	var buf bytes.Buffer
	Init("text", "info", &buf)
	Init("json", "info", &buf)
	t.Cleanup(func() { Init("text", "info", nil) })

	L("test").Info("as json")
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "as json", rec["msg"])

	buf.Reset()
	Init("text", "info", &buf)
	L("test").Info("as text")
	assert.Contains(t, buf.String(), "msg=\"as text\"")
}

func TestWith_AttrsBeforeGroupStayOutside(t *testing.T) {
	var buf bytes.Buffer
	Init("json", "info", &buf)
	t.Cleanup(func() { Init("text", "info", nil) })

	L("test").With("outer", 1).WithGroup("req").With("inner", 2).Info("scoped")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "test", rec[KeyComponent])
	assert.Equal(t, float64(1), rec["outer"])
	group, ok := rec["req"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), group["inner"])
	assert.NotContains(t, group, "outer")
}
