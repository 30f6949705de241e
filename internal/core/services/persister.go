package services

import (
	"context"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/boilerbrain-ingest/internal/logger"
)

// RecordPersister turns extraction results into keyed records and writes
// them with idempotent inserts. A failed write is logged and counted; it
// never aborts the rest of the document.
type RecordPersister struct {
	store    driven.RecordStore
	settings domain.PipelineSettings
	stats    driven.StatsRecorder
}

// NewRecordPersister creates a record persister.
func NewRecordPersister(store driven.RecordStore, settings domain.PipelineSettings, stats driven.StatsRecorder) *RecordPersister {
	return &RecordPersister{store: store, settings: settings, stats: stats}
}

// BuildAndPersist writes every record derived from one document.
//
// Valid identifiers each get an equipment-model row. When there are none,
// the document gets one placeholder identifier which is never written to
// the model table. Fault codes, procedures and sections fan out across
// every identifier after de-duplication by natural key.
func (p *RecordPersister) BuildAndPersist(
	ctx context.Context,
	doc domain.SourceDocument,
	text *domain.RetrievedText,
	meta *domain.ExtractedMetadata,
	faults []domain.FaultCode,
	procs []domain.Procedure,
) domain.PersistResult {
	var result domain.PersistResult
	if meta == nil {
		meta = &domain.ExtractedMetadata{}
	}

	manufacturer := meta.Manufacturer
	if manufacturer == "" {
		manufacturer = doc.ManufacturerHint
	}

	ids := meta.ValidIdentifiers()
	if len(ids) == 0 {
		ids = []string{domain.PlaceholderIdentifier(doc.Name)}
		result.PlaceholderUsed = true
		p.record(domain.StatPlaceholdersAssigned, 1)
		logger.L().Info().Str("document", doc.Name).Str("placeholder", ids[0]).Msg("no valid GC number")
	} else {
		p.record(domain.StatIdentifiersFound, int64(len(ids)))
	}
	result.Identifiers = ids

	fail := func(kind, key, gc string, err error) {
		result.PersistenceErrors++
		p.record(domain.StatPersistenceErrors, 1)
		logger.L().Error().Err(err).Str("document", doc.Name).Str("record", kind).
			Str("gc_number", gc).Str("key", key).Msg("persist failed")
	}

	if !result.PlaceholderUsed {
		for _, gc := range ids {
			model := domain.EquipmentModel{
				RecordKey:      domain.RecordKey{GCNumber: gc, Manufacturer: manufacturer, ModelName: meta.ModelName},
				Variants:       meta.ModelVariants,
				EquipmentClass: meta.EquipmentClass,
				FuelType:       meta.FuelType,
				RatedOutput:    meta.RatedOutput,
				SourceDocument: doc.Name,
			}
			inserted, err := p.store.UpsertModel(ctx, model)
			if err != nil {
				fail("model", gc, gc, err)
				continue
			}
			if inserted {
				result.Models++
			}
		}
	}

	uniqueFaults := dedupeFaultCodes(faults)
	uniqueProcs := dedupeProcedures(procs)
	sections := buildSections(meta.Contents, text, p.settings)

	for _, gc := range ids {
		key := domain.RecordKey{GCNumber: gc, Manufacturer: manufacturer, ModelName: meta.ModelName}

		for _, fc := range uniqueFaults {
			inserted, err := p.store.InsertFaultCode(ctx, domain.FaultCodeRecord{RecordKey: key, FaultCode: fc, SourceDocument: doc.Name})
			if err != nil {
				fail("fault_code", fc.NaturalKey(), gc, err)
				continue
			}
			if inserted {
				result.FaultCodes++
			}
		}

		for _, proc := range uniqueProcs {
			inserted, err := p.store.InsertProcedure(ctx, domain.ProcedureRecord{RecordKey: key, Procedure: proc, SourceDocument: doc.Name})
			if err != nil {
				fail("procedure", proc.NaturalKey(), gc, err)
				continue
			}
			if inserted {
				result.Procedures++
			}
		}

		for _, s := range sections {
			inserted, err := p.store.InsertSection(ctx, domain.SectionRecord{
				RecordKey:      key,
				Title:          s.Title,
				Order:          s.Order,
				Level:          s.Level,
				StartPage:      s.StartPage,
				EndPage:        s.EndPage,
				Content:        s.Content,
				SourceDocument: doc.Name,
			})
			if err != nil {
				fail("section", s.Title, gc, err)
				continue
			}
			if inserted {
				result.Sections++
			}
		}
	}

	manual := domain.ManualRecord{
		Name:         doc.Name,
		Origin:       doc.Origin,
		Manufacturer: manufacturer,
		ModelName:    meta.ModelName,
		GCNumbers:    ids,
		Placeholder:  result.PlaceholderUsed,
		PageCount:    text.PageCount(),
	}
	if text != nil {
		manual.CharCount = text.CharCount
	}
	if err := p.store.UpsertManual(ctx, manual); err != nil {
		fail("manual", doc.Name, "", err)
	}

	p.record(domain.StatModelsPersisted, int64(result.Models))
	p.record(domain.StatFaultCodesPersisted, int64(result.FaultCodes))
	p.record(domain.StatProceduresPersisted, int64(result.Procedures))
	p.record(domain.StatSectionsPersisted, int64(result.Sections))
	return result
}

func (p *RecordPersister) record(kind domain.StatKind, delta int64) {
	if p.stats != nil && delta != 0 {
		p.stats.RecordStat(kind, delta)
	}
}

// dedupeFaultCodes keeps the first fault code per (code, cause codes).
func dedupeFaultCodes(in []domain.FaultCode) []domain.FaultCode {
	seen := make(map[string]bool, len(in))
	out := make([]domain.FaultCode, 0, len(in))
	for _, fc := range in {
		key := fc.NaturalKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, fc)
	}
	return out
}

// dedupeProcedures keeps the first procedure per normalised name.
func dedupeProcedures(in []domain.Procedure) []domain.Procedure {
	seen := make(map[string]bool, len(in))
	out := make([]domain.Procedure, 0, len(in))
	for _, proc := range in {
		key := proc.NaturalKey()
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, proc)
	}
	return out
}
