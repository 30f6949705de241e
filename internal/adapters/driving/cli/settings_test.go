package cli

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
)

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Short key", input: "abc123", expected: "****"},
		{name: "Exactly 8 chars", input: "12345678", expected: "****"},
		{name: "Long key", input: "sk-1234567890abcdef", expected: "sk-1...cdef"},
		{name: "Empty key", input: "", expected: "****"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, maskAPIKey(tt.input))
		})
	}
}

func TestSettingsShow(t *testing.T) {
	rt := newMockRuntime()

	code, out := runCLI(t, rt, "settings", "show")

	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out, "Google Gemini (cloud)")
	assert.Contains(t, out, "test...7890")
	assert.NotContains(t, out, "test-key-1234567890")
	assert.Contains(t, out, "/tmp/records.db")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestSettingsShow_MissingKey(t *testing.T) {
	rt := newMockRuntime()
	rt.settings.LLM.APIKey = ""
	rt.settings.Pipeline.FlushEvery = 0

	code, out := runCLI(t, rt, "settings")

	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out, "export GEMINI_API_KEY")
	assert.Contains(t, out, "Warning:")
}

func TestSettingsSet(t *testing.T) {
	rt := newMockRuntime()

	code, out := runCLI(t, rt, "settings", "set", "pipeline.document_limit", "25")

	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out, "Set pipeline.document_limit = 25")
	assert.Equal(t, 25, rt.config.GetInt("pipeline.document_limit"))
}

func TestSettingsSet_RejectsBadValue(t *testing.T) {
	rt := newMockRuntime()

	code, out := runCLI(t, rt, "settings", "set", "pipeline.call_delay", "soon")

	assert.Equal(t, ExitError, code)
	assert.Contains(t, out, "wants a duration")
	_, exists := rt.config.Get("pipeline.call_delay")
	assert.False(t, exists)
}

func TestSettingsCheck(t *testing.T) {
	rt := newMockRuntime()

	code, out := runCLI(t, rt, "settings", "check")

	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out, "is reachable")
	assert.True(t, rt.closed)
}

func TestSettingsCheck_QuotaExitCode(t *testing.T) {
	rt := newMockRuntime()
	rt.checkErr = &domain.QuotaExhaustedError{Provider: "gemini", Message: "RESOURCE_EXHAUSTED: daily quota"}

	code, out := runCLI(t, rt, "settings", "check")

	assert.Equal(t, ExitQuota, code)
	assert.Contains(t, out, "quota exhausted")
}

func TestSettingsCheck_Unreachable(t *testing.T) {
	rt := newMockRuntime()
	rt.checkErr = fmt.Errorf("%w: service unreachable", domain.ErrLLMUnavailable)

	code, _ := runCLI(t, rt, "settings", "check")

	assert.Equal(t, ExitError, code)
}
