package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reset() {
	SetVerbose(false)
	SetFormat(FormatConsole)
	SetOutput(os.Stderr)
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestSetVerbose(t *testing.T) {
	defer reset()

	SetVerbose(false)
	assert.False(t, IsVerbose())
	SetVerbose(true)
	assert.True(t, IsVerbose())
}

func TestDebug_WhenVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetFormat(FormatJSON)
	SetOutput(&buf)
	SetVerbose(true)

	Debug("test message %s", "arg")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "debug", lines[0]["level"])
	assert.Equal(t, "test message arg", lines[0]["message"])
}

func TestDebug_WhenNotVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetFormat(FormatJSON)
	SetOutput(&buf)

	Debug("hidden")
	Section("hidden")

	assert.Empty(t, buf.String())
}

func TestInfoWarnError_AlwaysWritten(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetFormat(FormatJSON)
	SetOutput(&buf)

	Info("processed %d", 3)
	Warn("slow")
	Error(errors.New("boom"), "failed %s", "doc.pdf")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 3)
	assert.Equal(t, "info", lines[0]["level"])
	assert.Equal(t, "processed 3", lines[0]["message"])
	assert.Equal(t, "warn", lines[1]["level"])
	assert.Equal(t, "error", lines[2]["level"])
	assert.Equal(t, "boom", lines[2]["error"])
}

func TestL_StructuredFields(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetFormat(FormatJSON)
	SetOutput(&buf)

	L().Info().Str("document", "a.pdf").Int("attempt", 2).Msg("extract")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "a.pdf", lines[0]["document"])
	assert.Equal(t, float64(2), lines[0]["attempt"])
}

func TestConsoleFormat(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetFormat(FormatConsole)

	Info("hello %s", "world")

	assert.Contains(t, buf.String(), "hello world")
	assert.Contains(t, buf.String(), "INF")
}
