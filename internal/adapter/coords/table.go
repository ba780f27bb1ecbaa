// Package coords manages the coordinate side table keyed by station code.
package coords

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/couchcryptid/balneabilidade-etl/internal/adapter/feedstore"
	"github.com/couchcryptid/balneabilidade-etl/internal/domain"
)

// Entry is one side-table row as stored, coordinates kept as text so
// rewriting the table never changes their formatting.
type Entry struct {
	Code      string
	Beach     string
	Reference string
	City      string
	Lat       string
	Lng       string
}

// HasCoordinates reports whether lat and lng are both present and numeric.
func (e Entry) HasCoordinates() bool {
	_, _, ok := e.coordinates()
	return ok
}

func (e Entry) coordinates() (float64, float64, bool) {
	lat, err1 := parseCoord(e.Lat)
	lng, err2 := parseCoord(e.Lng)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return lat, lng, true
}

// Table is the side table. It implements domain.CoordinateSource.
type Table struct {
	entries map[string]Entry
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{entries: map[string]Entry{}}
}

// Lookup returns the coordinates for code. Rows without usable lat/lng are
// reported as absent.
func (t *Table) Lookup(code string) (domain.Coordinates, bool) {
	e, ok := t.entries[strings.ToUpper(code)]
	if !ok {
		return domain.Coordinates{}, false
	}
	lat, lng, ok := e.coordinates()
	if !ok {
		return domain.Coordinates{}, false
	}
	return domain.Coordinates{
		Code:      e.Code,
		Beach:     e.Beach,
		Reference: e.Reference,
		City:      e.City,
		Lat:       lat,
		Lng:       lng,
	}, true
}

// Entry returns the stored row for code.
func (t *Table) Entry(code string) (Entry, bool) {
	e, ok := t.entries[strings.ToUpper(code)]
	return e, ok
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.entries) }

// Codes returns every code in ascending order.
func (t *Table) Codes() []string {
	codes := make([]string, 0, len(t.entries))
	for c := range t.entries {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// Put stores e, replacing any row with the same code.
func (t *Table) Put(e Entry) {
	e.Code = strings.ToUpper(strings.TrimSpace(e.Code))
	if e.Code == "" {
		return
	}
	t.entries[e.Code] = e
}

// LoadTable reads a side-table CSV. A missing file is an empty table.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewTable(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read coordinates %s: %w", path, err)
	}
	rows, err := readCSV(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("read coordinates %s: %w", path, err)
	}
	return tableFromRows(rows), nil
}

// Save writes the table sorted by code with the standard header.
func (t *Table) Save(path string) error {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	_ = cw.Write(feedstore.IndexHeader)
	for _, code := range t.Codes() {
		e := t.entries[code]
		_ = cw.Write([]string{e.Code, e.Beach, e.Reference, e.City, e.Lat, e.Lng})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("encode coordinates: %w", err)
	}
	return feedstore.AtomicWriteFile(path, buf.Bytes())
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr.ReadAll()
}

// tableFromRows accepts a header naming the columns, or headerless rows in
// "code,lat,lng" or "code,beach,reference,city,lat,lng" order.
func tableFromRows(rows [][]string) *Table {
	t := NewTable()
	if len(rows) == 0 {
		return t
	}
	cols, hasHeader := headerColumns(rows[0])
	if hasHeader {
		rows = rows[1:]
	}
	for _, row := range rows {
		e, ok := entryFromRow(row, cols)
		if ok {
			t.Put(e)
		}
	}
	return t
}

type columns struct {
	code, beach, reference, city, lat, lng int
}

var headerAliases = map[string]string{
	"code": "code", "codigo": "code", "código": "code", "ponto": "code",
	"beach": "beach", "praia": "beach",
	"reference": "reference", "referencia": "reference", "referência": "reference",
	"city": "city", "cidade": "city", "municipio": "city", "município": "city",
	"lat": "lat", "latitude": "lat",
	"lng": "lng", "lon": "lng", "long": "lng", "longitude": "lng",
}

func headerColumns(first []string) (columns, bool) {
	c := columns{code: -1, beach: -1, reference: -1, city: -1, lat: -1, lng: -1}
	for i, h := range first {
		switch headerAliases[strings.ToLower(strings.TrimSpace(h))] {
		case "code":
			c.code = i
		case "beach":
			c.beach = i
		case "reference":
			c.reference = i
		case "city":
			c.city = i
		case "lat":
			c.lat = i
		case "lng":
			c.lng = i
		}
	}
	if c.code >= 0 {
		return c, true
	}
	if len(first) < 6 {
		return columns{code: 0, beach: -1, reference: -1, city: -1, lat: 1, lng: 2}, false
	}
	return columns{code: 0, beach: 1, reference: 2, city: 3, lat: 4, lng: 5}, false
}

func entryFromRow(row []string, c columns) (Entry, bool) {
	get := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	e := Entry{
		Code:      strings.ToUpper(get(c.code)),
		Beach:     get(c.beach),
		Reference: get(c.reference),
		City:      get(c.city),
		Lat:       get(c.lat),
		Lng:       get(c.lng),
	}
	return e, e.Code != ""
}

// parseCoord accepts a decimal point or a decimal comma.
func parseCoord(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty coordinate")
	}
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	return strconv.ParseFloat(s, 64)
}
