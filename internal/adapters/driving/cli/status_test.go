package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/ports/driving"
)

func TestStatusCmd_NoRunYet(t *testing.T) {
	rt := newMockRuntime()
	rt.status.status = &driving.RunStatus{ProcessedCount: 4}

	code, out := runCLI(t, rt, "status")

	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out, "Manuals processed")
	assert.Contains(t, out, "4")
	assert.Contains(t, out, "No run has been recorded yet.")
}

func TestStatusCmd_LastRun(t *testing.T) {
	rt := newMockRuntime()
	rt.status.status = &driving.RunStatus{
		ProcessedCount: 12,
		Outcome:        domain.RunStoppedByQuota,
		Stats: &domain.RunStatistics{
			RunID:               "run-7",
			Model:               "gemini-1.5-flash",
			PromptSet:           domain.PromptSetBoilers,
			DocumentsProcessed:  5,
			FaultCodesPersisted: 40,
			APICalls:            15,
		},
		Cost: &domain.CostEstimate{PricingKnown: true, SessionCost: 0.5, ProjectedRemainingCost: 12, RemainingDocuments: 120},
	}

	code, out := runCLI(t, rt, "status")

	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out, "run-7")
	assert.Contains(t, out, "stopped_by_quota")
	assert.Contains(t, out, "5 processed, 0 skipped, 0 failed")
	assert.Contains(t, out, "40 fault codes")
	assert.Contains(t, out, "$12.00 for 120 documents")
}

func TestStatusCmd_JSON(t *testing.T) {
	rt := newMockRuntime()
	rt.status.status = &driving.RunStatus{
		ProcessedCount: 2,
		Outcome:        domain.RunCompleted,
		Stats:          &domain.RunStatistics{RunID: "run-j", DocumentsProcessed: 2},
	}

	code, out := runCLI(t, rt, "status", "--json")
	require.Equal(t, ExitOK, code)

	var decoded struct {
		ProcessedCount int    `json:"processed_count"`
		Outcome        string `json:"outcome"`
		Statistics     struct {
			RunID string `json:"run_id"`
		} `json:"statistics"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, 2, decoded.ProcessedCount)
	assert.Equal(t, "completed", decoded.Outcome)
	assert.Equal(t, "run-j", decoded.Statistics.RunID)
}
