package services

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
)

// sectionDraft is a section sliced from the document before it is keyed
// to an identifier.
type sectionDraft struct {
	Title     string
	Order     int
	Level     int
	StartPage int
	EndPage   int
	Content   string
}

// buildSections slices the document text between consecutive contents
// entries. At most MaxContentsEntries entries are considered. Each range
// ends one page before the next entry (never before its own start); the
// last range runs LastSectionPages further or to the document end.
// Sections whose text is not longer than MinSectionChars are dropped.
func buildSections(contents []domain.ContentsEntry, text *domain.RetrievedText, s domain.PipelineSettings) []sectionDraft {
	if len(contents) > s.MaxContentsEntries {
		contents = contents[:s.MaxContentsEntries]
	}
	lastPage := text.LastPage()

	var out []sectionDraft
	seen := make(map[string]bool)
	for i, entry := range contents {
		start := entry.Page
		if start < 1 || start > lastPage {
			continue
		}

		var end int
		if i+1 < len(contents) {
			end = contents[i+1].Page - 1
		} else {
			end = start + s.LastSectionPages
		}
		if end > lastPage {
			end = lastPage
		}
		if end < start {
			end = start
		}

		order := i + 1
		key := strings.ToLower(strings.TrimSpace(entry.Title)) + "|" + strconv.Itoa(order)
		if seen[key] {
			continue
		}
		seen[key] = true

		content := domain.Truncate(text.PageRange(start, end), s.MaxSectionChars)
		if utf8.RuneCountInString(content) <= s.MinSectionChars {
			continue
		}
		out = append(out, sectionDraft{
			Title:     entry.Title,
			Order:     order,
			Level:     entry.Level,
			StartPage: start,
			EndPage:   end,
			Content:   content,
		})
	}
	return out
}
