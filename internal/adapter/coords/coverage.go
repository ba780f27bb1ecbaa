package coords

import (
	"fmt"

	"github.com/couchcryptid/balneabilidade-etl/internal/domain"
)

// MissingStation is a published station without usable coordinates.
type MissingStation struct {
	Code      string
	Beach     string
	Reference string
}

// CoverageReport compares stations seen in reports against the side table.
type CoverageReport struct {
	Total   int
	Missing []MissingStation
}

// Covered returns how many stations have coordinates.
func (r CoverageReport) Covered() int { return r.Total - len(r.Missing) }

// String renders the report for terminal output, listing at most ten
// missing stations.
func (r CoverageReport) String() string {
	s := fmt.Sprintf("stations detected: %d\nmissing coordinates: %d\n", r.Total, len(r.Missing))
	for i, m := range r.Missing {
		if i == 10 {
			s += fmt.Sprintf(" ... and %d more\n", len(r.Missing)-10)
			break
		}
		s += fmt.Sprintf(" - %s | %s | %s\n", m.Code, m.Beach, m.Reference)
	}
	return s
}

// Coverage checks every station of the index table against t.
func Coverage(index, t *Table) CoverageReport {
	var r CoverageReport
	for _, code := range index.Codes() {
		r.Total++
		if _, ok := t.Lookup(code); ok {
			continue
		}
		e := index.entries[code]
		r.Missing = append(r.Missing, MissingStation{Code: code, Beach: e.Beach, Reference: e.Reference})
	}
	return r
}

// CoverageOfRecords checks published records against t.
func CoverageOfRecords(records []domain.StationRecord, t *Table) CoverageReport {
	index := NewTable()
	for _, rec := range records {
		index.Put(Entry{Code: rec.Code, Beach: rec.Beach, Reference: rec.Reference})
	}
	return Coverage(index, t)
}
