package services

import (
	"bytes"
	"errors"
	"fmt"
	"text/template"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/ports/driven"
)

// PromptName returns the prompt store name for a prompt set and kind.
func PromptName(set string, kind domain.PromptKind) string {
	return set + "/" + string(kind)
}

// LoadPromptSet assembles a prompt set from the store and the built-in table mapping.
func LoadPromptSet(store driven.PromptStore, name string) (*domain.PromptSet, error) {
	tables, ok := domain.BuiltinTableMappings()[name]
	if !ok {
		return nil, fmt.Errorf("%w: prompt set %q", domain.ErrNotFound, name)
	}

	set := &domain.PromptSet{
		Name:      name,
		Templates: make(map[domain.PromptKind]string, len(domain.PromptKinds)),
		Tables:    tables,
	}
	for _, kind := range domain.PromptKinds {
		text, err := store.Load(PromptName(name, kind))
		if err != nil {
			return nil, fmt.Errorf("load prompt %s: %w", PromptName(name, kind), err)
		}
		set.Templates[kind] = text
	}
	return set, nil
}

// promptRenderer renders the parsed templates of one prompt set.
type promptRenderer struct {
	templates map[domain.PromptKind]*template.Template
}

func newPromptRenderer(set *domain.PromptSet) (*promptRenderer, error) {
	if set == nil {
		return nil, errors.New("prompt set is nil")
	}
	r := &promptRenderer{templates: make(map[domain.PromptKind]*template.Template)}
	for _, kind := range domain.PromptKinds {
		text, ok := set.Templates[kind]
		if !ok || text == "" {
			return nil, fmt.Errorf("%w: prompt set %s has no %s template", domain.ErrInvalidInput, set.Name, kind)
		}
		tmpl, err := template.New(string(kind)).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", kind, err)
		}
		r.templates[kind] = tmpl
	}
	return r, nil
}

func (r *promptRenderer) render(kind domain.PromptKind, data domain.PromptData) (string, error) {
	tmpl, ok := r.templates[kind]
	if !ok {
		return "", fmt.Errorf("%w: prompt kind %q", domain.ErrInvalidInput, kind)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", kind, err)
	}
	return buf.String(), nil
}
