package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level string, asJSON bool) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewWithOptions(Options{Level: level, JSON: asJSON, Output: &buf}), &buf
}

func TestNew(t *testing.T) {
	logger := New()
	assert.NotNil(t, logger)
	assert.NotNil(t, logger.entry)
}

func TestLogger_Formatting(t *testing.T) {
	logger, buf := newBufferLogger("debug", false)

	logger.Info("User %s logged in with ID %d", "john", 123)
	logger.Error("Failed to process request %d: %s", 404, "not found")
	logger.Warn("Warning: %s count is %d", "items", 5)
	logger.Debug("cache miss for %s", "alice")

	out := buf.String()
	assert.Contains(t, out, "User john logged in with ID 123")
	assert.Contains(t, out, "Failed to process request 404: not found")
	assert.Contains(t, out, "Warning: items count is 5")
	assert.Contains(t, out, "cache miss for alice")
	assert.Contains(t, out, "level=error")
}

func TestLogger_LevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger("warn", false)

	logger.Info("hidden")
	logger.Debug("hidden too")
	logger.Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	logger, buf := newBufferLogger("chatty", false)

	logger.Debug("hidden")
	logger.Info("visible")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "visible")
}

func TestLogger_WithFieldsJSON(t *testing.T) {
	logger, buf := newBufferLogger("info", true)

	logger.With(Fields{"request_id": "abc", "user_id": "u1"}).Info("refreshed %s", "session")

	line := strings.TrimSpace(buf.String())
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "refreshed session", entry["msg"])
	assert.Equal(t, "abc", entry["request_id"])
	assert.Equal(t, "u1", entry["user_id"])
	assert.Equal(t, "info", entry["level"])
}
