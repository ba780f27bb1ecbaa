// Package fixture renders report PDFs in the agency's table layout. It backs
// the genfixture tool and the extractor tests.
package fixture

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/couchcryptid/balneabilidade-etl/internal/domain"
)

const brDate = "02/01/2006"

// Reading is one date/status cell pair of a station row.
type Reading struct {
	Date   domain.Date
	Status string
}

// Station is one table row.
type Station struct {
	Code      string
	Beach     string
	Reference string
	Readings  []Reading
}

// Report describes the document to render. Stations are split across pages
// of RowsPerPage rows (default 25).
type Report struct {
	Title       string
	PeriodStart domain.Date
	PeriodEnd   domain.Date
	Stations    []Station
	RowsPerPage int
}

// BuildReportPDF renders the report with one inline row per station:
// code, beach, reference, then date and status cells.
func BuildReportPDF(r Report) ([]byte, error) {
	perPage := r.RowsPerPage
	if perPage <= 0 {
		perPage = 25
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetCompression(false)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for start := 0; start < len(r.Stations) || start == 0; start += perPage {
		end := min(start+perPage, len(r.Stations))
		pdf.AddPage()
		pdf.SetFont("Arial", "B", 12)
		title := r.Title
		if title == "" {
			title = "Laudo de Balneabilidade"
		}
		pdf.Cell(0, 8, tr(title))
		pdf.Ln(10)
		pdf.SetFont("Arial", "", 10)
		if !r.PeriodStart.IsZero() && !r.PeriodEnd.IsZero() {
			pdf.Cell(0, 6, fmt.Sprintf("Periodo de %s a %s",
				r.PeriodStart.Time().Format(brDate), r.PeriodEnd.Time().Format(brDate)))
			pdf.Ln(8)
		}

		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(18, 6, "Ponto", "1", 0, "C", false, 0, "")
		pdf.CellFormat(55, 6, "Praia", "1", 0, "C", false, 0, "")
		pdf.CellFormat(80, 6, "Referencia", "1", 0, "C", false, 0, "")
		pdf.CellFormat(60, 6, "Coletas", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 9)
		for _, st := range r.Stations[start:end] {
			pdf.CellFormat(18, 6, st.Code, "1", 0, "L", false, 0, "")
			pdf.CellFormat(55, 6, tr(st.Beach), "1", 0, "L", false, 0, "")
			pdf.CellFormat(80, 6, tr(st.Reference), "1", 0, "L", false, 0, "")
			for _, rd := range st.Readings {
				pdf.CellFormat(22, 6, rd.Date.Time().Format(brDate), "1", 0, "C", false, 0, "")
				pdf.CellFormat(26, 6, tr(rd.Status), "1", 0, "C", false, 0, "")
			}
			pdf.Ln(-1)
		}
		if len(r.Stations) == 0 {
			break
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render report pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadStationsCSV parses "code,beach,reference,date,status" rows, grouping
// readings by code in first-seen order. A header row is skipped.
func ReadStationsCSV(r io.Reader) ([]Station, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var stations []Station
	index := map[string]int{}
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line++
		if len(rec) < 5 {
			return nil, fmt.Errorf("line %d: want 5 fields, got %d", line, len(rec))
		}
		code := strings.ToUpper(strings.TrimSpace(rec[0]))
		if line == 1 && !domain.IsStationCode(code) {
			continue
		}
		date, err := domain.ParseDate(rec[3])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		i, ok := index[code]
		if !ok {
			stations = append(stations, Station{Code: code, Beach: rec[1], Reference: rec[2]})
			i = len(stations) - 1
			index[code] = i
		}
		stations[i].Readings = append(stations[i].Readings, Reading{Date: date, Status: strings.TrimSpace(rec[4])})
	}
	return stations, nil
}
