package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/ports/driven"
)

// --- Mock implementations shared by the pipeline tests ---

// llmReply is one scripted model response.
type llmReply struct {
	text string
	err  error
}

// mockLLM answers prompts by the first word of the rendered template
// (META, FAULTS, PROCS), consuming scripted replies in order. When a
// queue is empty the fallback reply is used.
type mockLLM struct {
	mu       sync.Mutex
	replies  map[string][]llmReply
	fallback llmReply
	calls    int
	prompts  []string
	onCall   func(prompt string)
}

func newMockLLM() *mockLLM {
	return &mockLLM{replies: make(map[string][]llmReply), fallback: llmReply{text: "[]"}}
}

func (m *mockLLM) script(prefix string, replies ...llmReply) *mockLLM {
	m.replies[prefix] = append(m.replies[prefix], replies...)
	return m
}

func (m *mockLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.calls++
	m.prompts = append(m.prompts, prompt)
	onCall := m.onCall
	prefix, _, _ := strings.Cut(prompt, " ")
	queue := m.replies[prefix]
	reply := m.fallback
	if len(queue) > 0 {
		reply = queue[0]
		m.replies[prefix] = queue[1:]
	}
	m.mu.Unlock()

	if onCall != nil {
		onCall(prompt)
	}
	return reply.text, reply.err
}

func (m *mockLLM) ModelName() string            { return "gpt-4o-mini" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

func (m *mockLLM) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockFetcher serves bytes by document name.
type mockFetcher struct {
	data map[string][]byte
	errs map[string]error
}

func newMockFetcher() *mockFetcher {
	return &mockFetcher{data: make(map[string][]byte), errs: make(map[string]error)}
}

func (f *mockFetcher) Fetch(_ context.Context, doc domain.SourceDocument) ([]byte, error) {
	if err, ok := f.errs[doc.Name]; ok {
		return nil, err
	}
	return f.data[doc.Name], nil
}

// mockExtractor returns the text registered for a byte length.
type mockExtractor struct {
	bySize map[int]*domain.RetrievedText
	err    error
}

func (e *mockExtractor) ExtractText(_ context.Context, data []byte) (*domain.RetrievedText, error) {
	if e.err != nil {
		return nil, e.err
	}
	if t, ok := e.bySize[len(data)]; ok {
		return t, nil
	}
	return domain.NewRetrievedText([]domain.Page{{Number: 1, Text: strings.Repeat("text ", 200)}}), nil
}

// mockStats records counters.
type mockStats struct {
	counts map[domain.StatKind]int64
}

func newMockStats() *mockStats {
	return &mockStats{counts: make(map[domain.StatKind]int64)}
}

func (s *mockStats) RecordStat(kind domain.StatKind, delta int64) {
	s.counts[kind] += delta
}

// mockPromptStore serves templates from a map.
type mockPromptStore struct {
	prompts map[string]string
}

func (s *mockPromptStore) Load(name string) (string, error) {
	p, ok := s.prompts[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return p, nil
}

func (s *mockPromptStore) Reload() {}

// sleepRecorder replaces real waits and records requested durations.
type sleepRecorder struct {
	waits []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return ctx.Err()
}

func testPromptSet() *domain.PromptSet {
	return &domain.PromptSet{
		Name: domain.PromptSetBoilers,
		Templates: map[domain.PromptKind]string{
			domain.PromptMetadata:   "META {{.DocumentName}} hint={{.ManufacturerHint}}\n{{.Text}}",
			domain.PromptFaultCodes: "FAULTS {{.DocumentName}}\n{{.Text}}",
			domain.PromptProcedures: "PROCS {{.DocumentName}}\n{{.Text}}",
		},
		Tables: domain.BuiltinTableMappings()[domain.PromptSetBoilers],
	}
}

// testPipelineSettings returns defaults with real waits still configured;
// tests replace the sleep function instead.
func testPipelineSettings() domain.PipelineSettings {
	return domain.DefaultPipelineSettings()
}

// pagesOfText builds n pages each holding perPage characters.
func pagesOfText(n, perPage int) *domain.RetrievedText {
	pages := make([]domain.Page, n)
	for i := range pages {
		pages[i] = domain.Page{Number: i + 1, Text: strings.Repeat("x", perPage)}
	}
	return domain.NewRetrievedText(pages)
}
