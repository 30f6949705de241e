package domain

import "fmt"

// TableMapping names the store tables a prompt set writes to.
type TableMapping struct {
	Models     string `yaml:"models" toml:"models"`
	FaultCodes string `yaml:"fault_codes" toml:"fault_codes"`
	Procedures string `yaml:"procedures" toml:"procedures"`
	Sections   string `yaml:"sections" toml:"sections"`
	Manuals    string `yaml:"manuals" toml:"manuals"`
}

// Validate checks every table is named.
func (m TableMapping) Validate() error {
	for field, name := range map[string]string{
		"models":      m.Models,
		"fault_codes": m.FaultCodes,
		"procedures":  m.Procedures,
		"sections":    m.Sections,
		"manuals":     m.Manuals,
	} {
		if name == "" {
			return fmt.Errorf("%w: table mapping %s is empty", ErrInvalidInput, field)
		}
	}
	return nil
}

// PromptSet parameterises a run: which prompt wording to use and which
// tables receive the records. Templates are keyed by prompt kind.
type PromptSet struct {
	Name      string
	Templates map[PromptKind]string
	Tables    TableMapping
}

// Built-in prompt set names.
const (
	PromptSetBoilers    = "boilers"
	PromptSetAppliances = "appliances"
)

// BuiltinTableMappings returns the table mapping for each built-in prompt set.
func BuiltinTableMappings() map[string]TableMapping {
	return map[string]TableMapping{
		PromptSetBoilers: {
			Models:     "boiler_models",
			FaultCodes: "boiler_fault_codes",
			Procedures: "boiler_procedures",
			Sections:   "boiler_sections",
			Manuals:    "boiler_manuals",
		},
		PromptSetAppliances: {
			Models:     "appliance_models",
			FaultCodes: "appliance_fault_codes",
			Procedures: "appliance_procedures",
			Sections:   "appliance_sections",
			Manuals:    "appliance_manuals",
		},
	}
}

// PromptData is the data rendered into a prompt template.
type PromptData struct {
	ManufacturerHint string
	DocumentName     string
	Text             string
}
