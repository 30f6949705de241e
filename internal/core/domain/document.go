package domain

import (
	"strings"
	"unicode/utf8"
)

// SourceDocument describes one unit of work supplied by the document index.
// It is immutable and read-only to the pipeline.
type SourceDocument struct {
	// Name is the stable identifier of the manual. It is the resumability key.
	Name string

	// Origin is the fetchable location (URL or file path).
	Origin string

	// ManufacturerHint is supplied by the index. It may be wrong or empty.
	ManufacturerHint string
}

// Page is the plain text of a single page.
type Page struct {
	// Number is the 1-based page number.
	Number int

	// Text is the page content with items joined by single spaces.
	Text string
}

// RetrievedText is the ordered per-page text of a document.
// It is never persisted directly.
type RetrievedText struct {
	Pages []Page

	// CharCount is the total number of characters (runes), not bytes.
	CharCount int
}

// NewRetrievedText builds a RetrievedText and computes the aggregate character count.
func NewRetrievedText(pages []Page) *RetrievedText {
	rt := &RetrievedText{Pages: pages}
	for _, p := range pages {
		rt.CharCount += utf8.RuneCountInString(p.Text)
	}
	return rt
}

// PageCount returns the number of pages.
func (t *RetrievedText) PageCount() int {
	if t == nil {
		return 0
	}
	return len(t.Pages)
}

// LastPage returns the highest page number, or 0 for an empty document.
func (t *RetrievedText) LastPage() int {
	if t == nil || len(t.Pages) == 0 {
		return 0
	}
	return t.Pages[len(t.Pages)-1].Number
}

// Head joins the text of the first maxPages pages, truncated to maxChars.
// A non-positive limit means no limit.
func (t *RetrievedText) Head(maxPages, maxChars int) string {
	if t == nil {
		return ""
	}
	pages := t.Pages
	if maxPages > 0 && len(pages) > maxPages {
		pages = pages[:maxPages]
	}
	return Truncate(joinPages(pages), maxChars)
}

// Full joins the text of all pages, truncated to maxChars.
func (t *RetrievedText) Full(maxChars int) string {
	if t == nil {
		return ""
	}
	return Truncate(joinPages(t.Pages), maxChars)
}

// PageRange joins the text of pages numbered from..to inclusive.
func (t *RetrievedText) PageRange(from, to int) string {
	if t == nil || to < from {
		return ""
	}
	var selected []Page
	for _, p := range t.Pages {
		if p.Number >= from && p.Number <= to {
			selected = append(selected, p)
		}
	}
	return joinPages(selected)
}

func joinPages(pages []Page) string {
	var b strings.Builder
	for i, p := range pages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

// Truncate cuts s to at most maxChars characters (runes).
// A non-positive limit returns s unchanged.
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 || len(s) <= maxChars {
		return s
	}
	n := 0
	for i := range s {
		if n == maxChars {
			return s[:i]
		}
		n++
	}
	return s
}
