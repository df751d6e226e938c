package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerRespectsMinLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(Options{Output: &buf, MinLevel: WARN})

	l.Info("APP", "hidden")
	l.Warn("APP", "shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "[APP")
}

func TestLoggerWritesJSONFile(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(Options{Dir: dir, Name: "test", Output: &bytes.Buffer{}})
	l.LogEvent("APPROVE", "evt-1", "approved")
	l.Close()

	matches, err := filepath.Glob(filepath.Join(dir, "test-*.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)

	var found bool
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		var entry LogEntry
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry.Category == "EVENT" {
			found = true
			assert.Equal(t, "INFO", entry.Level)
			assert.Equal(t, "[APPROVE] evt-1 - approved", entry.Message)
		}
	}
	assert.True(t, found, "event entry should be in the log file")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("warning"))
	assert.Equal(t, ERROR, ParseLevel(" ERROR "))
	assert.Equal(t, INFO, ParseLevel(""))
}

func TestDiscardLoggerIsSilent(t *testing.T) {
	l := NewDiscard()
	l.Error("APP", "nothing")
	l.Close()
}
