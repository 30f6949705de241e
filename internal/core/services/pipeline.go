package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/ports/driving"
	"github.com/custodia-labs/boilerbrain-ingest/internal/logger"
)

// Ensure PipelineOrchestrator implements the interface.
var _ driving.Pipeline = (*PipelineOrchestrator)(nil)

// RunContext carries everything one run needs. It is built once per run
// and passed down; nothing in the pipeline reads global configuration.
type RunContext struct {
	RunID     string
	Settings  domain.Settings
	PromptSet *domain.PromptSet

	Index     driven.DocumentIndex
	Fetcher   driven.DocumentFetcher
	Extractor driven.TextExtractor
	LLM       driven.LLMService
	Store     driven.RecordStore

	// Progress may be nil, in which case nothing is written to disk.
	Progress driven.ProgressStore
}

// PipelineOrchestrator is the sequential control loop over candidate documents.
type PipelineOrchestrator struct {
	rc        *RunContext
	settings  domain.PipelineSettings
	tracker   *ProgressTracker
	client    *ExtractionClient
	persister *RecordPersister
	sleep     sleepFunc
}

// NewPipelineOrchestrator wires the pipeline services for one run.
func NewPipelineOrchestrator(rc *RunContext) (*PipelineOrchestrator, error) {
	if rc == nil {
		return nil, fmt.Errorf("%w: run context is nil", domain.ErrInvalidInput)
	}
	if rc.Index == nil || rc.Fetcher == nil || rc.Extractor == nil || rc.Store == nil {
		return nil, fmt.Errorf("%w: run context is incomplete", domain.ErrInvalidInput)
	}
	if rc.LLM == nil {
		return nil, domain.ErrLLMUnavailable
	}
	if rc.RunID == "" {
		rc.RunID = uuid.NewString()
	}

	settings := rc.Settings.Pipeline
	setName := settings.PromptSet
	if rc.PromptSet != nil {
		setName = rc.PromptSet.Name
	}
	tracker := NewProgressTracker(rc.Progress, rc.Settings.Pricing, rc.RunID, rc.LLM.ModelName(), setName)

	client, err := NewExtractionClient(rc.LLM, rc.PromptSet, settings, tracker)
	if err != nil {
		return nil, fmt.Errorf("create extraction client: %w", err)
	}

	return &PipelineOrchestrator{
		rc:        rc,
		settings:  settings,
		tracker:   tracker,
		client:    client,
		persister: NewRecordPersister(rc.Store, settings, tracker),
		sleep:     sleepContext,
	}, nil
}

// Tracker exposes the run's progress tracker.
func (o *PipelineOrchestrator) Tracker() *ProgressTracker {
	return o.tracker
}

// Run processes candidates until a stop condition fires. Quota exhaustion,
// the document limit and interrupts are outcomes, not errors. Every exit
// after the candidate list is built flushes progress.
func (o *PipelineOrchestrator) Run(ctx context.Context) (*domain.RunResult, error) {
	log := logger.L().With().Str("run_id", o.rc.RunID).Logger()
	logger.Section("Run " + o.rc.RunID)

	if err := o.tracker.Load(); err != nil {
		return nil, err
	}

	// Processed names are excluded in the index so the row cap never
	// fills up with finished manuals.
	candidates, err := o.rc.Index.List(ctx, driven.IndexQuery{
		Filter:  o.settings.IndexFilter,
		Limit:   o.settings.IndexRowCap,
		Exclude: o.tracker.processedNames(),
	})
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	ordered := PrioritiseDocuments(candidates, o.settings.ManufacturerPriority)
	pending := make([]domain.SourceDocument, 0, len(ordered))
	for _, doc := range ordered {
		if !o.tracker.IsProcessed(doc.Name) {
			pending = append(pending, doc)
		}
	}
	o.tracker.SetRemaining(len(pending))
	log.Info().Int("candidates", len(candidates)).Int("pending", len(pending)).Msg("candidates listed")

	result := &domain.RunResult{RunID: o.rc.RunID, Candidates: len(candidates)}
	outcome := domain.RunCompleted
	handled := 0

loop:
	for i, doc := range pending {
		if o.settings.DocumentLimit > 0 && handled >= o.settings.DocumentLimit {
			outcome = domain.RunStoppedByLimit
			break
		}
		if i > 0 {
			if err := o.sleep(ctx, o.settings.DocumentDelay); err != nil {
				outcome = domain.RunStoppedByInterrupt
				break
			}
		}
		if ctx.Err() != nil {
			outcome = domain.RunStoppedByInterrupt
			break
		}

		docResult, err := o.processDocument(ctx, doc)
		switch {
		case domain.IsQuotaExhausted(err):
			log.Error().Str("document", doc.Name).Msg("quota exhausted, stopping run")
			outcome = domain.RunStoppedByQuota
			break loop
		case ctx.Err() != nil:
			log.Warn().Str("document", doc.Name).Msg("interrupted, document left unmarked")
			outcome = domain.RunStoppedByInterrupt
			break loop
		}

		o.finishDocument(docResult)
		result.Documents = append(result.Documents, docResult)
		handled++
		o.tracker.SetRemaining(len(pending) - handled)

		if o.settings.FlushEvery > 0 && handled%o.settings.FlushEvery == 0 {
			if err := o.tracker.Flush(); err != nil {
				log.Error().Err(err).Msg("milestone flush failed")
			}
		}
	}

	o.tracker.SetOutcome(outcome)
	flushErr := o.tracker.Flush()

	result.Outcome = outcome
	result.Stats = o.tracker.Stats()
	result.Cost = o.tracker.Cost()
	log.Info().Str("outcome", string(outcome)).Int("documents", handled).
		Float64("session_cost_usd", result.Cost.SessionCost).Msg("run finished")

	if flushErr != nil {
		return result, flushErr
	}
	return result, nil
}

// finishDocument updates statistics and the processed set for a document
// that reached the end of its processing.
func (o *PipelineOrchestrator) finishDocument(r domain.DocumentResult) {
	o.tracker.RecordStat(domain.StatDocumentsProcessed, 1)
	switch {
	case r.State.IsSkip():
		o.tracker.RecordStat(domain.StatDocumentsSkipped, 1)
	case r.State == domain.DocumentFailed || r.State == domain.DocumentMetadataFailed:
		o.tracker.RecordStat(domain.StatDocumentsFailed, 1)
		o.tracker.RecordStat(domain.StatErrors, 1)
	}

	if r.State.MarksProcessed() {
		if err := o.tracker.MarkProcessed(r.Name); err != nil {
			logger.Error(err, "mark %s processed", r.Name)
		}
	}
}

// processDocument runs one document from fetch to persistence. Only a
// quota exhaustion or context error is returned; every other failure is
// folded into the result state.
func (o *PipelineOrchestrator) processDocument(ctx context.Context, doc domain.SourceDocument) (domain.DocumentResult, error) {
	log := logger.L().With().Str("run_id", o.rc.RunID).Str("document", doc.Name).Logger()
	res := domain.DocumentResult{Name: doc.Name, State: domain.DocumentPending}

	failed := func(state domain.DocumentState, err error) (domain.DocumentResult, error) {
		res.State = state
		res.Err = err
		if domain.IsQuotaExhausted(err) || ctx.Err() != nil {
			return res, err
		}
		log.Error().Err(err).Str("state", string(state)).Msg("document failed")
		return res, nil
	}

	data, err := o.rc.Fetcher.Fetch(ctx, doc)
	if err != nil {
		return failed(domain.DocumentFailed, err)
	}
	res.Bytes = len(data)

	if int64(len(data)) < o.settings.MinBytes || int64(len(data)) > o.settings.MaxBytes {
		log.Info().Int("bytes", len(data)).Msg("skipped by size")
		res.State = domain.DocumentSkippedSize
		return res, nil
	}

	text, err := o.rc.Extractor.ExtractText(ctx, data)
	if err != nil {
		return failed(domain.DocumentFailed, err)
	}
	res.Chars = text.CharCount

	if text.CharCount < o.settings.MinTextChars {
		log.Info().Int("chars", text.CharCount).Msg("skipped by text length")
		res.State = domain.DocumentSkippedText
		return res, nil
	}

	if err := o.sleep(ctx, o.settings.CallDelay); err != nil {
		return failed(domain.DocumentFailed, err)
	}
	meta, err := o.client.ExtractMetadata(ctx, doc, text)
	if err != nil {
		return failed(domain.DocumentMetadataFailed, err)
	}
	if meta == nil {
		return failed(domain.DocumentMetadataFailed, fmt.Errorf("metadata: %w", domain.ErrParseFailure))
	}
	res.Prompts = append(res.Prompts, domain.PromptOutcome{Kind: domain.PromptMetadata, Succeeded: true, Items: len(meta.Identifiers)})

	if err := o.sleep(ctx, o.settings.CallDelay); err != nil {
		return failed(domain.DocumentFailed, err)
	}
	faults, ok, err := o.client.ExtractFaultCodes(ctx, doc, text)
	if err != nil {
		return failed(domain.DocumentFailed, err)
	}
	res.Prompts = append(res.Prompts, domain.PromptOutcome{Kind: domain.PromptFaultCodes, Succeeded: ok, Items: len(faults)})

	if err := o.sleep(ctx, o.settings.CallDelay); err != nil {
		return failed(domain.DocumentFailed, err)
	}
	procs, ok, err := o.client.ExtractProcedures(ctx, doc, text)
	if err != nil {
		return failed(domain.DocumentFailed, err)
	}
	res.Prompts = append(res.Prompts, domain.PromptOutcome{Kind: domain.PromptProcedures, Succeeded: ok, Items: len(procs)})
	res.State = domain.DocumentExtracted

	persisted := o.persister.BuildAndPersist(ctx, doc, text, meta, faults, procs)
	res.State = domain.DocumentPersisted
	res.Identifiers = persisted.Identifiers
	res.Placeholder = persisted.PlaceholderUsed
	res.FaultCodes = persisted.FaultCodes
	res.Procedures = persisted.Procedures
	res.Sections = persisted.Sections

	log.Info().Strs("gc_numbers", res.Identifiers).Int("fault_codes", res.FaultCodes).
		Int("procedures", res.Procedures).Int("sections", res.Sections).
		Int("persist_errors", persisted.PersistenceErrors).Msg("document persisted")
	return res, nil
}
