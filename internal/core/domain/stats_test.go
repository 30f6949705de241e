package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunStatistics_Add(t *testing.T) {
	var s RunStatistics
	s.Add(StatAPICalls, 2)
	s.Add(StatAPICalls, 1)
	s.Add(StatFaultCodesPersisted, 10)
	s.Add(StatInputTokens, 3000)
	s.Add(StatOutputTokens, 250)
	s.Add(StatKind("unknown"), 99)

	assert.Equal(t, 3, s.APICalls)
	assert.Equal(t, 10, s.FaultCodesPersisted)
	assert.Equal(t, int64(3000), s.InputTokens)
	assert.Equal(t, int64(250), s.OutputTokens)
	assert.Zero(t, s.Errors)
}

func TestDocumentState_MarksProcessed(t *testing.T) {
	assert.True(t, DocumentSkippedSize.MarksProcessed())
	assert.True(t, DocumentSkippedText.MarksProcessed())
	assert.True(t, DocumentPersisted.MarksProcessed())
	assert.False(t, DocumentMetadataFailed.MarksProcessed())
	assert.False(t, DocumentFailed.MarksProcessed())
	assert.False(t, DocumentPending.MarksProcessed())
	assert.True(t, DocumentSkippedText.IsSkip())
}

func TestRunOutcome_IsClean(t *testing.T) {
	assert.True(t, RunCompleted.IsClean())
	assert.True(t, RunStoppedByLimit.IsClean())
	assert.False(t, RunStoppedByQuota.IsClean())
	assert.False(t, RunStoppedByInterrupt.IsClean())
}

func TestExtractedMetadata_ValidIdentifiers(t *testing.T) {
	m := &ExtractedMetadata{Identifiers: []Identifier{
		NewIdentifier("47 075 06"),
		NewIdentifier("n/a"),
		NewIdentifier("47-075-06"),
		NewIdentifier("41 311 42"),
	}}
	assert.Equal(t, []string{"47-075-06", "41-311-42"}, m.ValidIdentifiers())

	var nilMeta *ExtractedMetadata
	assert.Nil(t, nilMeta.ValidIdentifiers())
}

func TestFaultCode_NaturalKey(t *testing.T) {
	a := FaultCode{Code: " f28 ", CauseCodes: []string{"b", "A", "a"}}
	b := FaultCode{Code: "F28", CauseCodes: []string{"A", "B"}}
	c := FaultCode{Code: "F28"}

	assert.Equal(t, "A,B", a.CauseKey())
	assert.Equal(t, a.NaturalKey(), b.NaturalKey())
	assert.NotEqual(t, a.NaturalKey(), c.NaturalKey())
	assert.Equal(t, "F28|", c.NaturalKey())
}

func TestProcedure_NaturalKey(t *testing.T) {
	assert.Equal(t, "replace the pcb", Procedure{Name: "  Replace  the PCB "}.NaturalKey())
}
