package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/ports/driven"
)

// Ensure RecordStore implements the interfaces.
var (
	_ driven.RecordStore  = (*RecordStore)(nil)
	_ driven.RecordLister = (*RecordStore)(nil)
)

// RecordStore is an in-memory implementation of driven.RecordStore with
// the same conflict keys as the SQL stores. It backs dry runs and tests.
type RecordStore struct {
	mu         sync.RWMutex
	models     map[string]domain.EquipmentModel
	faultCodes map[string]domain.FaultCodeRecord
	procedures map[string]domain.ProcedureRecord
	sections   map[string]domain.SectionRecord
	manuals    map[string]domain.ManualRecord

	// order keeps insertion order per table for deterministic listing.
	order map[string][]string

	// FailOn makes writes to the named table fail, for tests.
	FailOn map[string]error
}

// NewRecordStore creates a new in-memory record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		models:     make(map[string]domain.EquipmentModel),
		faultCodes: make(map[string]domain.FaultCodeRecord),
		procedures: make(map[string]domain.ProcedureRecord),
		sections:   make(map[string]domain.SectionRecord),
		manuals:    make(map[string]domain.ManualRecord),
		order:      make(map[string][]string),
		FailOn:     make(map[string]error),
	}
}

func (s *RecordStore) fail(table string) error {
	return s.FailOn[table]
}

func (s *RecordStore) track(table, key string) {
	s.order[table] = append(s.order[table], key)
}

// UpsertModel inserts the model unless (gc_number, manufacturer) exists.
func (s *RecordStore) UpsertModel(_ context.Context, m domain.EquipmentModel) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("models"); err != nil {
		return false, err
	}
	key := m.GCNumber + "|" + m.Manufacturer
	if _, ok := s.models[key]; ok {
		return false, nil
	}
	s.models[key] = m
	s.track("models", key)
	return true, nil
}

// InsertFaultCode inserts unless (gc_number, fault code natural key) exists.
func (s *RecordStore) InsertFaultCode(_ context.Context, r domain.FaultCodeRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("fault_codes"); err != nil {
		return false, err
	}
	key := r.GCNumber + "|" + r.FaultCode.NaturalKey()
	if _, ok := s.faultCodes[key]; ok {
		return false, nil
	}
	s.faultCodes[key] = r
	s.track("fault_codes", key)
	return true, nil
}

// InsertProcedure inserts unless (gc_number, name) exists.
func (s *RecordStore) InsertProcedure(_ context.Context, r domain.ProcedureRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("procedures"); err != nil {
		return false, err
	}
	key := r.GCNumber + "|" + r.Procedure.NaturalKey()
	if _, ok := s.procedures[key]; ok {
		return false, nil
	}
	s.procedures[key] = r
	s.track("procedures", key)
	return true, nil
}

// InsertSection inserts unless (gc_number, title, order) exists.
func (s *RecordStore) InsertSection(_ context.Context, r domain.SectionRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("sections"); err != nil {
		return false, err
	}
	key := r.GCNumber + "|" + r.Title + "|" + strconv.Itoa(r.Order)
	if _, ok := s.sections[key]; ok {
		return false, nil
	}
	s.sections[key] = r
	s.track("sections", key)
	return true, nil
}

// UpsertManual stores or replaces the manual record by name.
func (s *RecordStore) UpsertManual(_ context.Context, r domain.ManualRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("manuals"); err != nil {
		return err
	}
	if _, ok := s.manuals[r.Name]; !ok {
		s.track("manuals", r.Name)
	}
	s.manuals[r.Name] = r
	return nil
}

// ListModels returns models in insertion order.
func (s *RecordStore) ListModels(_ context.Context) ([]domain.EquipmentModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.EquipmentModel, 0, len(s.models))
	for _, k := range s.order["models"] {
		out = append(out, s.models[k])
	}
	return out, nil
}

// ListFaultCodes returns fault codes in insertion order.
func (s *RecordStore) ListFaultCodes(_ context.Context) ([]domain.FaultCodeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.FaultCodeRecord, 0, len(s.faultCodes))
	for _, k := range s.order["fault_codes"] {
		out = append(out, s.faultCodes[k])
	}
	return out, nil
}

// ListProcedures returns procedures in insertion order.
func (s *RecordStore) ListProcedures(_ context.Context) ([]domain.ProcedureRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ProcedureRecord, 0, len(s.procedures))
	for _, k := range s.order["procedures"] {
		out = append(out, s.procedures[k])
	}
	return out, nil
}

// ListSections returns sections in insertion order.
func (s *RecordStore) ListSections(_ context.Context) ([]domain.SectionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.SectionRecord, 0, len(s.sections))
	for _, k := range s.order["sections"] {
		out = append(out, s.sections[k])
	}
	return out, nil
}

// ListManuals returns manuals sorted by name.
func (s *RecordStore) ListManuals(_ context.Context) ([]domain.ManualRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ManualRecord, 0, len(s.manuals))
	for _, m := range s.manuals {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Close releases resources (no-op for memory store).
func (s *RecordStore) Close() error {
	return nil
}
