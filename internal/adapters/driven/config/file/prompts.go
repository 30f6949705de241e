package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads extraction prompts from user-editable files on disk.
// A prompt named "boilers/metadata" lives at <dir>/boilers/metadata.txt.
// Missing files fall back to the embedded defaults.
//
// Files are only created on first access, not in the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// equipment is the wording that differs between the built-in prompt sets.
type equipment struct {
	noun     string
	identity string
}

var promptSetWording = map[string]equipment{
	domain.PromptSetBoilers: {
		noun:     "gas boiler",
		identity: "GC numbers (Gas Council numbers, seven digits usually printed as 47-075-06 or 47 075 06)",
	},
	domain.PromptSetAppliances: {
		noun:     "domestic appliance",
		identity: "GC numbers or equivalent seven-digit appliance codes",
	},
}

const metadataTemplate = `You are reading the opening pages of a %[1]s installation and servicing manual.
Manufacturer hint from the catalogue (may be wrong or empty): {{.ManufacturerHint}}
Document: {{.DocumentName}}

Return a single JSON object with these keys:
  "manufacturer": string
  "model_name": string
  "model_variants": array of strings
  "equipment_class": string (for example combi, system, regular, heat only)
  "fuel_type": string
  "rated_output": string
  "gc_numbers": array of every %[2]s found
  "table_of_contents": array of {"title": string, "page": integer, "level": integer}

Use page numbers as printed in the contents. Return JSON only.

Text:
{{.Text}}`

const faultCodesTemplate = `Extract every fault code from this %[1]s manual.
Manufacturer: {{.ManufacturerHint}}
Document: {{.DocumentName}}

Return a JSON array. Each element:
  {"code": string, "description": string, "cause_codes": array of strings,
   "possible_causes": array of strings, "solutions": array of strings,
   "severity": string}

Return [] if the manual has no fault codes. Return JSON only.

Text:
{{.Text}}`

const proceduresTemplate = `Extract the service and maintenance procedures from this %[1]s manual.
Manufacturer: {{.ManufacturerHint}}
Document: {{.DocumentName}}

Return a JSON array. Each element:
  {"name": string, "category": string, "steps": array of strings,
   "tools": array of strings, "safety_notes": array of strings,
   "test_values": array of strings, "page": integer}

Keep steps in the order the manual gives them. Return [] if there are none.
Return JSON only.

Text:
{{.Text}}`

// defaultPrompts contains embedded default prompts keyed by prompt name.
// These are used when user files don't exist and as the initial content for new files.
var defaultPrompts = buildDefaultPrompts()

func buildDefaultPrompts() map[string]string {
	templates := map[domain.PromptKind]string{
		domain.PromptMetadata:   metadataTemplate,
		domain.PromptFaultCodes: faultCodesTemplate,
		domain.PromptProcedures: proceduresTemplate,
	}
	out := make(map[string]string)
	for set, w := range promptSetWording {
		for kind, tmpl := range templates {
			var text string
			if kind == domain.PromptMetadata {
				text = fmt.Sprintf(tmpl, w.noun, w.identity)
			} else {
				text = fmt.Sprintf(tmpl, w.noun)
			}
			out[set+"/"+string(kind)] = text
		}
	}
	return out
}

// DefaultPromptNames returns the sorted names of the embedded prompts.
func DefaultPromptNames() []string {
	names := make([]string, 0, len(defaultPrompts))
	for name := range defaultPrompts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.boilerbrain/prompts/.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		promptDir = filepath.Join(dir, "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and writes default files.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	prompt, err := s.loadFromFile(name)
	if err != nil {
		defaultPrompt, ok := defaultPrompts[name]
		if !ok {
			if os.IsNotExist(err) {
				return "", fmt.Errorf("%w: prompt %q", domain.ErrNotFound, name)
			}
			return "", fmt.Errorf("load prompt %q: %w", name, err)
		}
		prompt = defaultPrompt
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// WriteDefaults creates the prompt directory and any missing default files,
// leaving edited files untouched.
func (s *PromptStore) WriteDefaults() error {
	s.initOnce.Do(s.initialise)
	return s.initErr
}

// initialise creates the prompt directory and default files.
// Called once via sync.Once.
func (s *PromptStore) initialise() {
	for _, name := range DefaultPromptNames() {
		path := s.pathFor(name)
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			s.initErr = fmt.Errorf("create prompt directory: %w", err)
			return
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(defaultPrompts[name]+"\n"), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

func (s *PromptStore) pathFor(name string) string {
	return filepath.Join(s.promptDir, filepath.FromSlash(name)+".txt")
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", fmt.Errorf("%w: prompt name %q", domain.ErrInvalidInput, name)
	}
	data, err := os.ReadFile(s.pathFor(name))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil // Already exists or stat error (ignore)
	}

	content := `# Extraction prompts

One directory per prompt set (` + "`boilers`" + `, ` + "`appliances`" + `), one file per prompt:

- ` + "`metadata.txt`" + ` - manufacturer, model, GC numbers and table of contents
- ` + "`fault_codes.txt`" + ` - fault codes with causes and solutions
- ` + "`procedures.txt`" + ` - service procedures

Templates use Go text/template fields:
- ` + "`{{.ManufacturerHint}}`" + ` - manufacturer from the document index
- ` + "`{{.DocumentName}}`" + ` - the manual's name
- ` + "`{{.Text}}`" + ` - the extracted manual text

Edits take effect on the next run. Delete a file to restore its default.
`
	return os.WriteFile(path, []byte(content), 0600)
}
