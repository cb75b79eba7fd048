package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		entry := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestNew_DebugSuppressedByDefault(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Options{JSON: true})

	log.Debug("hidden")
	log.Info("shown", "count", 2)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["message"])
	assert.Equal(t, float64(2), lines[0]["count"])
	assert.False(t, log.DebugEnabled())
}

func TestNew_DebugEnabled(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Options{JSON: true, Debug: true})

	log.Debug("visible")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "debug", lines[0]["level"])
	assert.True(t, log.DebugEnabled())
}

func TestSuccess_FlagsEntry(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, Options{JSON: true}).Success("done")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "info", lines[0]["level"])
	assert.Equal(t, "success", lines[0]["status"])
}

func TestWith_CarriesFieldsAndErrors(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Options{JSON: true}).With("component", "router")

	log.Error("failed", "error", errors.New("boom"), "dangling")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "router", lines[0]["component"])
	assert.Equal(t, "boom", lines[0]["error"])
	assert.Contains(t, lines[0], "dangling")
}

func TestNop(t *testing.T) {
	log := Nop()
	log.Info("nothing")
	log.With("a", 1).Error("still nothing")
	assert.False(t, log.DebugEnabled())
}
