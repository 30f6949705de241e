package domain

import (
	"regexp"
	"strings"
)

// PlaceholderPrefix marks identifiers assigned to documents without a valid GC number.
const PlaceholderPrefix = "DOC-"

// placeholderNameLength caps the sanitised document name inside a placeholder.
const placeholderNameLength = 24

var (
	// gcPattern is the canonical grouping: two digits, three digits, two digits,
	// separated by whitespace or a dash.
	gcPattern = regexp.MustCompile(`^\d{2}[\s-]\d{3}[\s-]\d{2}$`)

	// gcPrefix matches a leading "GC", "G.C.", "GC No", "GC Number" token.
	gcPrefix = regexp.MustCompile(`(?i)^\s*g\.?\s*c\.?(\s*(no\.?|number|num\.?))?\s*[:.#]?\s*`)

	whitespace  = regexp.MustCompile(`\s+`)
	nonAlnumRun = regexp.MustCompile(`[^A-Z0-9]+`)
)

// Identifier is a GC number as extracted and, if valid, its canonical form.
// Canonical is empty unless Valid is true.
type Identifier struct {
	Raw       string
	Canonical string
	Valid     bool
}

// NewIdentifier normalises raw and returns the resulting Identifier.
func NewIdentifier(raw string) Identifier {
	canonical, ok := NormaliseGCNumber(raw)
	if !ok {
		return Identifier{Raw: raw}
	}
	return Identifier{Raw: raw, Canonical: canonical, Valid: true}
}

// NormaliseGCNumber converts raw into the canonical NN-NNN-NN form.
// It strips a GC prefix token and collapses whitespace, then accepts only
// seven bare digits or the grouped pattern. Mis-grouped digits such as
// "4707-506" are rejected.
func NormaliseGCNumber(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	s = gcPrefix.ReplaceAllString(s, "")
	s = strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
	if s == "" {
		return "", false
	}

	var digits string
	switch {
	case len(s) == 7 && allDigits(s):
		digits = s
	case gcPattern.MatchString(s):
		digits = s[:2] + s[3:6] + s[7:]
	default:
		return "", false
	}
	return digits[:2] + "-" + digits[2:5] + "-" + digits[5:], true
}

// IsValidGCNumber reports whether s matches the canonical grouping pattern,
// with either whitespace or a dash as separator. It has no side effects.
func IsValidGCNumber(s string) bool {
	if s == "" {
		return false
	}
	return gcPattern.MatchString(s)
}

// PlaceholderIdentifier derives a deterministic, non-authoritative identifier
// from a document name. It never matches the GC number pattern.
func PlaceholderIdentifier(documentName string) string {
	name := strings.ToUpper(documentName)
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	name = strings.Trim(nonAlnumRun.ReplaceAllString(name, "_"), "_")
	if name == "" {
		name = "UNNAMED"
	}
	if len(name) > placeholderNameLength {
		name = strings.TrimRight(name[:placeholderNameLength], "_")
	}
	return PlaceholderPrefix + name
}

// IsPlaceholder reports whether id was produced by PlaceholderIdentifier.
func IsPlaceholder(id string) bool {
	return strings.HasPrefix(id, PlaceholderPrefix)
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
