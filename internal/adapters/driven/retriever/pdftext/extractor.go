// Package pdftext extracts per-page plain text from PDF bytes.
package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/boilerbrain-ingest/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor reads text with github.com/ledongthuc/pdf.
type Extractor struct{}

// New creates a PDF text extractor.
func New() *Extractor {
	return &Extractor{}
}

// ExtractText returns the text of every page, whitespace collapsed to single
// spaces. A page that fails to decode is kept empty so page numbers stay
// aligned; an unreadable document wraps domain.ErrTextExtraction.
func (e *Extractor) ExtractText(ctx context.Context, data []byte) (text *domain.RetrievedText, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = nil
			err = fmt.Errorf("%w: pdf reader panic: %v", domain.ErrTextExtraction, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTextExtraction, err)
	}

	numPages := reader.NumPage()
	pages := make([]domain.Page, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pages = append(pages, domain.Page{Number: i, Text: pageText(reader.Page(i), i)})
	}
	return domain.NewRetrievedText(pages), nil
}

// pageText joins the page's text items with single spaces in content
// stream order, then collapses whitespace. GetPlainText is not used because
// it concatenates adjacent items without a separator.
func pageText(page pdf.Page, number int) string {
	if page.V.IsNull() {
		return ""
	}
	items, err := textItems(page)
	if err != nil {
		logger.Debug("page %d: %v", number, err)
		return ""
	}
	return strings.Join(strings.Fields(strings.Join(items, " ")), " ")
}

// textItems returns every string shown by a Tj, TJ, ' or " operator.
func textItems(page pdf.Page) (items []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			items = nil
			err = fmt.Errorf("content stream: %v", r)
		}
	}()

	fonts := make(map[string]pdf.TextEncoding)
	for _, name := range page.Fonts() {
		fonts[name] = page.Font(name).Encoder()
	}

	var enc pdf.TextEncoding = rawEncoding{}
	pdf.Interpret(page.V.Key("Contents"), func(stk *pdf.Stack, op string) {
		args := make([]pdf.Value, stk.Len())
		for i := len(args) - 1; i >= 0; i-- {
			args[i] = stk.Pop()
		}

		switch op {
		case "Tf":
			enc = rawEncoding{}
			if len(args) == 2 {
				if e, ok := fonts[args[0].Name()]; ok {
					enc = e
				}
			}
		case "Tj", "'", "\"":
			if len(args) > 0 {
				items = append(items, enc.Decode(args[len(args)-1].RawString()))
			}
		case "TJ":
			if len(args) == 0 {
				return
			}
			// Kerned fragments of one array form a single item.
			var b strings.Builder
			arr := args[0]
			for i := 0; i < arr.Len(); i++ {
				if v := arr.Index(i); v.Kind() == pdf.String {
					b.WriteString(enc.Decode(v.RawString()))
				}
			}
			items = append(items, b.String())
		}
	})
	return items, nil
}

type rawEncoding struct{}

func (rawEncoding) Decode(raw string) string { return raw }
