package coords

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ImportStats summarizes an import.
type ImportStats struct {
	Added   int
	Updated int
	Total   int
}

// ReadSource reads an official coordinates file. Files ending in .xlsx are
// read from their first sheet; anything else is parsed as CSV.
func ReadSource(path string) (*Table, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return readXLSX(path)
	}
	t, err := LoadTable(path)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func readXLSX(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return NewTable(), nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return tableFromRows(rows), nil
}

// Merge folds incoming rows into t. Non-empty incoming values prevail;
// empty ones keep what t already had.
func (t *Table) Merge(incoming *Table) ImportStats {
	var stats ImportStats
	for _, code := range incoming.Codes() {
		in := incoming.entries[code]
		cur, exists := t.entries[code]
		merged := Entry{
			Code:      code,
			Beach:     prefer(in.Beach, cur.Beach),
			Reference: prefer(in.Reference, cur.Reference),
			City:      prefer(in.City, cur.City),
			Lat:       prefer(in.Lat, cur.Lat),
			Lng:       prefer(in.Lng, cur.Lng),
		}
		switch {
		case !exists:
			stats.Added++
		case merged != cur:
			stats.Updated++
		}
		t.entries[code] = merged
	}
	stats.Total = len(t.entries)
	return stats
}

// Import merges the file at src into the table stored at dst and saves it.
func Import(dst, src string) (ImportStats, error) {
	incoming, err := ReadSource(src)
	if err != nil {
		return ImportStats{}, err
	}
	if incoming.Len() == 0 {
		return ImportStats{}, fmt.Errorf("no rows with a station code in %s", src)
	}
	current, err := LoadTable(dst)
	if err != nil {
		return ImportStats{}, err
	}
	stats := current.Merge(incoming)
	if err := current.Save(dst); err != nil {
		return ImportStats{}, fmt.Errorf("save coordinates: %w", err)
	}
	return stats, nil
}

func prefer(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
