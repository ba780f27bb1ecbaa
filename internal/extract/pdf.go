package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/couchcryptid/balneabilidade-etl/internal/domain"
)

// Line is one visual row of a page: the text runs sharing a baseline,
// ordered left to right.
type Line []string

// Page is the text content of one PDF page.
type Page struct {
	Number int
	Lines  []Line
}

// PDFExtractor turns report PDFs into raw station rows.
// It implements pipeline.Extractor.
type PDFExtractor struct {
	logger *slog.Logger
}

// NewPDFExtractor creates an extractor that logs skipped rows to logger.
func NewPDFExtractor(logger *slog.Logger) *PDFExtractor {
	return &PDFExtractor{logger: logger}
}

// Extract reads every page of the PDF and applies the layout rules. It
// returns domain.ErrNoRowsExtracted when no station row is recognized.
func (e *PDFExtractor) Extract(ctx context.Context, data []byte) ([]domain.RawRow, error) {
	pages, err := ReadPages(ctx, data)
	if err != nil {
		return nil, err
	}

	res := ParseRows(pages)
	if res.Skipped > 0 {
		e.logger.Warn("skipped malformed rows", "count", res.Skipped, "pages", len(pages))
	}
	if len(res.Rows) == 0 {
		return nil, domain.ErrNoRowsExtracted
	}
	e.logger.Debug("rows extracted", "rows", len(res.Rows), "layout", res.Layout, "period_end", res.PeriodEnd.String())
	return res.Rows, nil
}

// ReadPages decodes the PDF and groups each page's text runs into lines.
func ReadPages(ctx context.Context, data []byte) (pages []Page, err error) {
	// The PDF reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("read pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("read page %d: %w", i, err)
		}
		page := Page{Number: i}
		for _, row := range rows {
			var line Line
			for _, text := range row.Content {
				if s := strings.TrimSpace(text.S); s != "" {
					line = append(line, s)
				}
			}
			if len(line) > 0 {
				page.Lines = append(page.Lines, line)
			}
		}
		pages = append(pages, page)
	}
	return pages, nil
}
