package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/boilerbrain-ingest/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
)

const (
	smallDoc = 10 << 10
	largeDoc = 2 << 20
)

const idealMetadata = `Here you go:
` + "```json" + `
{"manufacturer": "Ideal", "model_name": "Logic Combi 30", "gc_numbers": ["47 075 06"]}
` + "```"

const threeFaults = `[
 {"code": "F1", "description": "Low water pressure", "cause_codes": [], "solutions": ["Repressurise"]},
 {"code": "F2", "description": "Loss of flame", "possible_causes": ["Gas supply"]},
 {"code": "L2", "description": "Ignition lockout"}
]`

// pipelineFixture bundles the collaborators of one orchestrator.
type pipelineFixture struct {
	llm       *mockLLM
	fetcher   *mockFetcher
	extractor *mockExtractor
	index     *memory.DocumentIndex
	store     *memory.RecordStore
	progress  *memory.ProgressStore
	sleeps    *sleepRecorder
	settings  domain.Settings
}

func newPipelineFixture() *pipelineFixture {
	return &pipelineFixture{
		llm:       newMockLLM(),
		fetcher:   newMockFetcher(),
		extractor: &mockExtractor{bySize: make(map[int]*domain.RetrievedText)},
		index:     memory.NewDocumentIndex(),
		store:     memory.NewRecordStore(),
		progress:  memory.NewProgressStore(),
		sleeps:    &sleepRecorder{},
		settings:  domain.DefaultSettings(),
	}
}

func (f *pipelineFixture) addDoc(name, hint string, size int) {
	f.index.Add(domain.SourceDocument{Name: name, Origin: "file:///manuals/" + name, ManufacturerHint: hint})
	f.fetcher.data[name] = make([]byte, size)
}

func (f *pipelineFixture) orchestrator(t *testing.T) *PipelineOrchestrator {
	t.Helper()
	o, err := NewPipelineOrchestrator(&RunContext{
		RunID:     "run-1",
		Settings:  f.settings,
		PromptSet: testPromptSet(),
		Index:     f.index,
		Fetcher:   f.fetcher,
		Extractor: f.extractor,
		LLM:       f.llm,
		Store:     f.store,
		Progress:  f.progress,
	})
	require.NoError(t, err)
	o.sleep = f.sleeps.sleep
	o.client.sleep = f.sleeps.sleep
	return o
}

func (f *pipelineFixture) processed(t *testing.T) []string {
	t.Helper()
	names, err := f.progress.LoadProcessed()
	require.NoError(t, err)
	return names
}

func TestNewPipelineOrchestrator_Validation(t *testing.T) {
	_, err := NewPipelineOrchestrator(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	f := newPipelineFixture()
	_, err = NewPipelineOrchestrator(&RunContext{Index: f.index, Fetcher: f.fetcher, Extractor: f.extractor})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = NewPipelineOrchestrator(&RunContext{
		Settings: f.settings, PromptSet: testPromptSet(),
		Index: f.index, Fetcher: f.fetcher, Extractor: f.extractor, Store: f.store,
	})
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)

	rc := &RunContext{
		Settings: f.settings, PromptSet: testPromptSet(),
		Index: f.index, Fetcher: f.fetcher, Extractor: f.extractor, Store: f.store, LLM: f.llm,
	}
	o, err := NewPipelineOrchestrator(rc)
	require.NoError(t, err)
	assert.NotEmpty(t, rc.RunID)
	assert.Equal(t, "gpt-4o-mini", o.Tracker().Stats().Model)
}

func TestRun_UndersizedDocumentMakesNoCalls(t *testing.T) {
	f := newPipelineFixture()
	f.addDoc("tiny.pdf", "Ideal", smallDoc)

	res, err := f.orchestrator(t).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.RunCompleted, res.Outcome)
	require.Len(t, res.Documents, 1)
	assert.Equal(t, domain.DocumentSkippedSize, res.Documents[0].State)
	assert.Zero(t, f.llm.callCount())
	assert.Equal(t, 1, res.Stats.DocumentsSkipped)
	assert.Equal(t, []string{"tiny.pdf"}, f.processed(t))
}

func TestRun_ShortTextSkipped(t *testing.T) {
	f := newPipelineFixture()
	f.addDoc("scan.pdf", "", largeDoc)
	f.extractor.bySize[largeDoc] = pagesOfText(2, 100)

	res, err := f.orchestrator(t).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.DocumentSkippedText, res.Documents[0].State)
	assert.Zero(t, f.llm.callCount())
	assert.Equal(t, []string{"scan.pdf"}, f.processed(t))
}

func TestRun_EndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture()
	f.addDoc("ideal-logic-combi.pdf", "Ideal", largeDoc)
	f.extractor.bySize[largeDoc] = pagesOfText(12, 1000)
	f.llm.script("META", llmReply{text: idealMetadata})
	f.llm.script("FAULTS", llmReply{text: threeFaults})
	f.llm.script("PROCS", llmReply{text: "null"})

	res, err := f.orchestrator(t).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, domain.RunCompleted, res.Outcome)
	require.Len(t, res.Documents, 1)
	doc := res.Documents[0]
	assert.Equal(t, domain.DocumentPersisted, doc.State)
	assert.Equal(t, []string{"47-075-06"}, doc.Identifiers)
	assert.False(t, doc.Placeholder)

	models, _ := f.store.ListModels(ctx)
	require.Len(t, models, 1)
	assert.Equal(t, "Ideal", models[0].Manufacturer)
	assert.Equal(t, "Logic Combi 30", models[0].ModelName)

	codes, _ := f.store.ListFaultCodes(ctx)
	assert.Len(t, codes, 3)
	procs, _ := f.store.ListProcedures(ctx)
	assert.Empty(t, procs)

	assert.Equal(t, 3, f.llm.callCount())
	assert.Zero(t, res.Stats.Errors)
	assert.Equal(t, 3, res.Stats.FaultCodesPersisted)
	assert.Equal(t, []time.Duration{4 * time.Second, 4 * time.Second, 4 * time.Second}, f.sleeps.waits)
	assert.Equal(t, []string{"ideal-logic-combi.pdf"}, f.processed(t))

	snap, err := f.progress.LoadSnapshot()
	require.NoError(t, err)
	assert.Equal(t, domain.RunCompleted, snap.Outcome)
	assert.True(t, snap.Cost.PricingKnown)
	assert.Greater(t, snap.Cost.SessionCost, 0.0)
	assert.Contains(t, snap.Summary, "completed")
}

func TestRun_PlaceholderEndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture()
	f.addDoc("mystery.pdf", "", largeDoc)
	f.extractor.bySize[largeDoc] = pagesOfText(3, 1000)
	f.llm.script("META", llmReply{text: `{"manufacturer": "Acme", "gc_numbers": ["not listed"]}`})
	f.llm.script("FAULTS", llmReply{text: `[{"code": "E1"}, {"code": "E2"}]`})

	res, err := f.orchestrator(t).Run(ctx)
	require.NoError(t, err)

	doc := res.Documents[0]
	assert.Equal(t, domain.DocumentPersisted, doc.State)
	assert.True(t, doc.Placeholder)
	require.Len(t, doc.Identifiers, 1)
	assert.True(t, domain.IsPlaceholder(doc.Identifiers[0]))

	models, _ := f.store.ListModels(ctx)
	assert.Empty(t, models)
	codes, _ := f.store.ListFaultCodes(ctx)
	assert.Len(t, codes, 2)
	assert.Equal(t, 1, res.Stats.PlaceholdersAssigned)
}

func TestRun_QuotaStopsRunAndFlushes(t *testing.T) {
	f := newPipelineFixture()
	f.addDoc("a.pdf", "", largeDoc)
	f.addDoc("b.pdf", "", largeDoc)
	f.llm.script("META", llmReply{err: &domain.RateLimitError{
		Provider: "gemini",
		Message:  "You exceeded your current quota, please check your plan and billing details",
	}})

	res, err := f.orchestrator(t).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.RunStoppedByQuota, res.Outcome)
	assert.False(t, res.Outcome.IsClean())
	assert.Empty(t, res.Documents)
	assert.Equal(t, 1, f.llm.callCount())
	assert.Empty(t, f.processed(t))

	snap, err := f.progress.LoadSnapshot()
	require.NoError(t, err)
	assert.Equal(t, domain.RunStoppedByQuota, snap.Outcome)
	assert.Contains(t, snap.Summary, "stopped_by_quota")
}

func TestRun_RateLimitRetriedInsideDocument(t *testing.T) {
	f := newPipelineFixture()
	f.addDoc("a.pdf", "", largeDoc)
	f.llm.script("META",
		llmReply{err: &domain.RateLimitError{Provider: "openai", Message: "429 Too Many Requests"}},
		llmReply{text: idealMetadata},
	)

	res, err := f.orchestrator(t).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.DocumentPersisted, res.Documents[0].State)
	assert.Equal(t, 1, res.Stats.Retries)
	assert.Equal(t, 4, res.Stats.APICalls)
	assert.Contains(t, f.sleeps.waits, 30*time.Second)
}

func TestRun_DocumentLimit(t *testing.T) {
	f := newPipelineFixture()
	f.settings.Pipeline.DocumentLimit = 2
	for _, n := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		f.addDoc(n, "", smallDoc)
	}

	res, err := f.orchestrator(t).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.RunStoppedByLimit, res.Outcome)
	assert.True(t, res.Outcome.IsClean())
	assert.Len(t, res.Documents, 2)
	assert.Equal(t, 1, res.Cost.RemainingDocuments)
}

func TestRun_InterruptLeavesDocumentUnmarked(t *testing.T) {
	f := newPipelineFixture()
	f.addDoc("a.pdf", "", largeDoc)
	f.addDoc("b.pdf", "", largeDoc)
	f.llm.script("META", llmReply{text: idealMetadata})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.llm.onCall = func(string) { cancel() }

	res, err := f.orchestrator(t).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, domain.RunStoppedByInterrupt, res.Outcome)
	assert.Equal(t, 1, f.llm.callCount())
	assert.Empty(t, res.Documents)
	assert.Empty(t, f.processed(t))

	snap, err := f.progress.LoadSnapshot()
	require.NoError(t, err)
	assert.Equal(t, domain.RunStoppedByInterrupt, snap.Outcome)
}

func TestRun_MetadataFailureIsRetriedNextRun(t *testing.T) {
	f := newPipelineFixture()
	f.addDoc("a.pdf", "", largeDoc)
	f.llm.script("META", llmReply{text: "Sorry, I cannot read this manual."})

	res, err := f.orchestrator(t).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.DocumentMetadataFailed, res.Documents[0].State)
	assert.ErrorIs(t, res.Documents[0].Err, domain.ErrParseFailure)
	assert.Equal(t, 1, f.llm.callCount())
	assert.Equal(t, 1, res.Stats.DocumentsFailed)
	assert.Equal(t, 1, res.Stats.Errors)
	assert.Empty(t, f.processed(t))

	f.llm.script("META", llmReply{text: idealMetadata})
	res, err = f.orchestrator(t).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentPersisted, res.Documents[0].State)
	assert.Equal(t, []string{"a.pdf"}, f.processed(t))
}

func TestRun_FetchFailureContinues(t *testing.T) {
	f := newPipelineFixture()
	f.addDoc("broken.pdf", "", largeDoc)
	f.addDoc("tiny.pdf", "", smallDoc)
	f.fetcher.errs["broken.pdf"] = &domain.RetrievalError{Origin: "file:///manuals/broken.pdf", StatusCode: 404}

	res, err := f.orchestrator(t).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Documents, 2)
	assert.Equal(t, domain.DocumentFailed, res.Documents[0].State)
	assert.ErrorIs(t, res.Documents[0].Err, domain.ErrRetrieval)
	assert.Equal(t, domain.DocumentSkippedSize, res.Documents[1].State)
	assert.Equal(t, []string{"tiny.pdf"}, f.processed(t))
	assert.Equal(t, []time.Duration{10 * time.Second}, f.sleeps.waits)
}

func TestRun_FaultCodeErrorFailsDocument(t *testing.T) {
	f := newPipelineFixture()
	f.addDoc("a.pdf", "", largeDoc)
	f.llm.script("META", llmReply{text: idealMetadata})
	f.llm.script("FAULTS", llmReply{err: errors.New("upstream 500")})

	res, err := f.orchestrator(t).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.DocumentFailed, res.Documents[0].State)
	assert.Equal(t, 2, f.llm.callCount())
	assert.Empty(t, f.processed(t))
}

func TestRun_ResumeSkipsProcessed(t *testing.T) {
	f := newPipelineFixture()
	f.progress = memory.NewProgressStore("a.pdf")
	f.addDoc("a.pdf", "", smallDoc)
	f.addDoc("b.pdf", "", smallDoc)

	res, err := f.orchestrator(t).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Candidates)
	require.Len(t, res.Documents, 1)
	assert.Equal(t, "b.pdf", res.Documents[0].Name)
	assert.ElementsMatch(t, []string{"a.pdf", "b.pdf"}, f.processed(t))
}

func TestRun_RowCapCountsOnlyUnprocessed(t *testing.T) {
	f := newPipelineFixture()
	f.settings.Pipeline.IndexRowCap = 1
	f.progress = memory.NewProgressStore("a.pdf", "b.pdf")
	for _, n := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		f.addDoc(n, "", smallDoc)
	}

	res, err := f.orchestrator(t).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Documents, 1)
	assert.Equal(t, "c.pdf", res.Documents[0].Name)
}

func TestRun_MilestoneFlush(t *testing.T) {
	f := newPipelineFixture()
	f.settings.Pipeline.FlushEvery = 2
	for _, n := range []string{"a.pdf", "b.pdf", "c.pdf", "d.pdf"} {
		f.addDoc(n, "", smallDoc)
	}

	_, err := f.orchestrator(t).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, f.progress.Saves)
}

func TestRun_ManufacturerPriority(t *testing.T) {
	f := newPipelineFixture()
	f.settings.Pipeline.ManufacturerPriority = []string{"Worcester", "Ideal"}
	f.addDoc("a.pdf", "Baxi", smallDoc)
	f.addDoc("b.pdf", "Ideal Heating", smallDoc)
	f.addDoc("c.pdf", "Worcester Bosch", smallDoc)

	res, err := f.orchestrator(t).Run(context.Background())
	require.NoError(t, err)

	var order []string
	for _, d := range res.Documents {
		order = append(order, d.Name)
	}
	assert.Equal(t, []string{"c.pdf", "b.pdf", "a.pdf"}, order)
}

func TestRun_NonPDFNamesFilteredByIndex(t *testing.T) {
	f := newPipelineFixture()
	f.addDoc("notes.txt", "", smallDoc)
	f.addDoc("manual.PDF", "", smallDoc)

	res, err := f.orchestrator(t).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Candidates)
}
