// Command validate checks a published feed for integrity: every record must
// satisfy the history invariants, codes must be unique and sorted, the
// station index must list the same stations, and coordinates are reported
// against the side table.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -feed data/points.json \
//	  -index data/stations_index.csv \
//	  -coords data/stations_geocoded.csv
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/couchcryptid/balneabilidade-etl/internal/adapter/coords"
	"github.com/couchcryptid/balneabilidade-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	feedPath := flag.String("feed", "data/points.json", "path to the published feed")
	indexPath := flag.String("index", "data/stations_index.csv", "path to the station index CSV")
	coordsPath := flag.String("coords", "data/stations_geocoded.csv", "path to the coordinate side table")
	strict := flag.Bool("strict", false, "fail when stations lack coordinates")
	flag.Parse()

	os.Exit(run(*feedPath, *indexPath, *coordsPath, *strict))
}

func run(feedPath, indexPath, coordsPath string, strict bool) int {
	fmt.Println("=== Balneabilidade Feed Validation ===")
	fmt.Println()

	records, err := loadFeed(feedPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load feed: %v\n", err)
		return 1
	}
	index, err := coords.LoadTable(indexPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load index: %v\n", err)
		return 1
	}
	table, err := coords.LoadTable(coordsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load coordinates: %v\n", err)
		return 1
	}

	coverage := coords.CoverageOfRecords(records, table)
	phases := []*phase{
		validateRecords(records),
		validateOrdering(records),
		validateIndex(records, index),
	}
	if strict {
		phases = append(phases, validateCoverage(coverage))
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Stations: %d in feed, %d in index, %d with coordinates\n",
		len(records), index.Len(), coverage.Covered())

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}
	if !strict && len(coverage.Missing) > 0 {
		fmt.Println()
		fmt.Print(coverage.String())
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// loadFeed decodes the feed as written, without the normalization applied
// when the pipeline loads it.
func loadFeed(path string) ([]domain.StationRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []domain.StationRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return records, nil
}

func validateRecords(records []domain.StationRecord) *phase {
	p := &phase{name: "Record invariants"}
	for _, r := range records {
		for _, problem := range domain.ValidateRecord(r) {
			p.errorf("%s: %s", r.Code, problem)
		}
	}
	return p
}

func validateOrdering(records []domain.StationRecord) *phase {
	p := &phase{name: "Unique codes in ascending order"}
	seen := make(map[string]bool, len(records))
	for i, r := range records {
		if seen[r.Code] {
			p.errorf("duplicate station %s", r.Code)
		}
		seen[r.Code] = true
		if i > 0 && records[i-1].Code > r.Code {
			p.errorf("%s listed after %s", r.Code, records[i-1].Code)
		}
	}
	return p
}

func validateIndex(records []domain.StationRecord, index *coords.Table) *phase {
	p := &phase{name: "Station index matches feed"}
	inFeed := make(map[string]bool, len(records))
	for _, r := range records {
		inFeed[r.Code] = true
		e, ok := index.Entry(r.Code)
		if !ok {
			p.errorf("%s missing from index", r.Code)
			continue
		}
		if e.Beach != r.Beach {
			p.errorf("%s: index beach %q, feed beach %q", r.Code, e.Beach, r.Beach)
		}
	}
	for _, code := range index.Codes() {
		if !inFeed[code] {
			p.errorf("%s in index but not in feed", code)
		}
	}
	return p
}

func validateCoverage(c coords.CoverageReport) *phase {
	p := &phase{name: "Coordinate coverage"}
	for _, m := range c.Missing {
		p.errorf("%s (%s) has no coordinates", m.Code, m.Beach)
	}
	return p
}
