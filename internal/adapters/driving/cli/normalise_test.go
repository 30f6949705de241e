package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormaliseCmd_Valid(t *testing.T) {
	code, out := runCLI(t, newMockRuntime(), "normalise", "47 075 06", "GC No. 4134813")

	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out, "47-075-06")
	assert.Contains(t, out, "41-348-13")
}

func TestNormaliseCmd_Invalid(t *testing.T) {
	code, out := runCLI(t, newMockRuntime(), "normalize", "47-075-06", "12345")

	assert.Equal(t, ExitError, code)
	assert.Contains(t, out, "47-075-06")
	assert.Contains(t, out, "invalid")
	assert.Contains(t, out, "1 of 2 GC numbers invalid")
}

func TestNormaliseCmd_RequiresArgs(t *testing.T) {
	code, _ := runCLI(t, newMockRuntime(), "normalise")
	assert.Equal(t, ExitError, code)
}
