package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
	"github.com/custodia-labs/boilerbrain-ingest/internal/logger"
)

// ScrapeJSON finds the first well-formed JSON object or array in free-form
// model output. Markdown code fences are ignored. It reports false when no
// decodable value exists.
func ScrapeJSON(text string) (any, bool) {
	return scrapeJSON(text, nil)
}

// scrapeJSON is ScrapeJSON with a shape check: a decodable value that accept
// rejects is skipped as a whole and scanning resumes after it, so prose such
// as "see section [2]" does not hide the payload that follows.
func scrapeJSON(text string, accept func(any) bool) (any, bool) {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```JSON", "")
	text = strings.ReplaceAll(text, "```", "")

	for i := 0; i < len(text); i++ {
		if text[i] != '{' && text[i] != '[' {
			continue
		}
		var v any
		dec := json.NewDecoder(strings.NewReader(text[i:]))
		if err := dec.Decode(&v); err != nil {
			continue
		}
		if accept == nil || accept(v) {
			return v, true
		}
		i += int(dec.InputOffset()) - 1
	}
	return nil, false
}

// Wrapper keys accepted around list payloads.
var (
	faultCodeKeys = []string{"fault_codes", "faultCodes", "codes"}
	procedureKeys = []string{"procedures"}
)

// acceptsShape reports whether v has the top-level shape kind expects:
// an object for metadata, otherwise a list (bare or wrapped) that is empty
// or holds at least one object. Bad items are dropped later.
func acceptsShape(kind domain.PromptKind) func(any) bool {
	switch kind {
	case domain.PromptMetadata:
		return func(v any) bool {
			return metadataSchema.Validate(v) == nil
		}
	case domain.PromptFaultCodes:
		return func(v any) bool { return objectList(listItems(v, "code", faultCodeKeys...)) }
	case domain.PromptProcedures:
		return func(v any) bool { return objectList(listItems(v, "name", procedureKeys...)) }
	default:
		return nil
	}
}

func objectList(items []any) bool {
	if items == nil {
		return false
	}
	if len(items) == 0 {
		return true
	}
	for _, item := range items {
		if _, ok := item.(map[string]any); ok {
			return true
		}
	}
	return false
}

var (
	metadataSchemaDoc = map[string]any{
		"type": "object",
		"properties": map[string]any{
			"manufacturer":      map[string]any{"type": []any{"string", "null"}},
			"model_name":        map[string]any{"type": []any{"string", "null"}},
			"model_variants":    map[string]any{"type": []any{"array", "string", "null"}},
			"gc_numbers":        map[string]any{"type": []any{"array", "string", "number", "null"}},
			"table_of_contents": map[string]any{"type": []any{"array", "null"}},
		},
	}

	faultCodeSchemaDoc = map[string]any{
		"type":     "object",
		"required": []any{"code"},
		"properties": map[string]any{
			"code":        map[string]any{"type": []any{"string", "number"}},
			"description": map[string]any{"type": []any{"string", "null"}},
			"cause_codes": map[string]any{"type": []any{"array", "string", "null"}},
		},
	}

	procedureSchemaDoc = map[string]any{
		"type":     "object",
		"required": []any{"name"},
		"properties": map[string]any{
			"name":  map[string]any{"type": "string", "minLength": 1},
			"steps": map[string]any{"type": []any{"array", "string", "null"}},
		},
	}

	metadataSchema  = mustCompileSchema("metadata.json", metadataSchemaDoc)
	faultCodeSchema = mustCompileSchema("fault_code.json", faultCodeSchemaDoc)
	procedureSchema = mustCompileSchema("procedure.json", procedureSchemaDoc)
)

func mustCompileSchema(name string, doc map[string]any) *jsonschema.Schema {
	b, err := json.Marshal(doc)
	if err != nil {
		panic(fmt.Sprintf("marshal schema %s: %v", name, err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(b)); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", name, err))
	}
	return compiler.MustCompile(name)
}

// listItems accepts either a bare array or an object wrapping the array under
// one of keys. A single object carrying itemKey is treated as a one-item list.
func listItems(v any, itemKey string, keys ...string) []any {
	switch t := v.(type) {
	case []any:
		return t
	case map[string]any:
		for _, k := range keys {
			if arr, ok := t[k].([]any); ok {
				return arr
			}
		}
		if _, ok := t[itemKey]; ok {
			return []any{t}
		}
	}
	return nil
}

// parseMetadata validates and converts the metadata prompt output.
// A value failing the schema yields nil.
func parseMetadata(v any) *domain.ExtractedMetadata {
	if err := metadataSchema.Validate(v); err != nil {
		logger.Debug("metadata rejected by schema: %v", err)
		return nil
	}
	m := v.(map[string]any)

	meta := &domain.ExtractedMetadata{
		Manufacturer:   str(m["manufacturer"]),
		ModelName:      str(m["model_name"]),
		ModelVariants:  strList(m["model_variants"]),
		EquipmentClass: str(m["equipment_class"]),
		FuelType:       str(m["fuel_type"]),
		RatedOutput:    str(m["rated_output"]),
		RawIdentifiers: strList(m["gc_numbers"]),
	}
	for _, raw := range meta.RawIdentifiers {
		meta.Identifiers = append(meta.Identifiers, domain.NewIdentifier(raw))
	}
	for _, item := range listItems(m["table_of_contents"], "title") {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		title := str(entry["title"])
		page, okPage := integer(entry["page"])
		if title == "" || !okPage || page < 1 {
			continue
		}
		level, _ := integer(entry["level"])
		meta.Contents = append(meta.Contents, domain.ContentsEntry{Title: title, Page: page, Level: level})
	}
	return meta
}

// parseFaultCodes validates each item and drops the ones failing the schema.
func parseFaultCodes(v any) []domain.FaultCode {
	var out []domain.FaultCode
	for _, item := range listItems(v, "code", faultCodeKeys...) {
		if err := faultCodeSchema.Validate(item); err != nil {
			logger.Debug("fault code dropped: %v", err)
			continue
		}
		m := item.(map[string]any)
		code := str(m["code"])
		if code == "" {
			continue
		}
		out = append(out, domain.FaultCode{
			Code:        code,
			Description: str(m["description"]),
			CauseCodes:  strList(m["cause_codes"]),
			Causes:      strList(m["possible_causes"]),
			Solutions:   strList(m["solutions"]),
			Severity:    str(m["severity"]),
		})
	}
	return out
}

// parseProcedures validates each item and drops the ones failing the schema.
func parseProcedures(v any) []domain.Procedure {
	var out []domain.Procedure
	for _, item := range listItems(v, "name", procedureKeys...) {
		if err := procedureSchema.Validate(item); err != nil {
			logger.Debug("procedure dropped: %v", err)
			continue
		}
		m := item.(map[string]any)
		page, _ := integer(m["page"])
		out = append(out, domain.Procedure{
			Name:         strings.TrimSpace(str(m["name"])),
			Category:     str(m["category"]),
			Steps:        strList(m["steps"]),
			Tools:        strList(m["tools"]),
			SafetyNotes:  strList(m["safety_notes"]),
			TestValues:   strList(m["test_values"]),
			PageRefStart: page,
		})
	}
	return out
}

// str converts a scalar to a trimmed string. "null" and non-scalars become empty.
func str(v any) string {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if strings.EqualFold(s, "null") {
			return ""
		}
		return s
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// strList accepts an array of scalars or a single scalar.
func strList(v any) []string {
	var out []string
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s := str(item); s != "" {
				out = append(out, s)
			}
		}
	default:
		if s := str(t); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func integer(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		return n, err == nil
	default:
		return 0, false
	}
}
