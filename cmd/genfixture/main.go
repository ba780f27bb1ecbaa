// Command genfixture renders a synthetic balneabilidade report PDF from a
// stations CSV. The output has the same table layout the extractor reads, so
// it can drive `etl run --from-file` and local end-to-end checks.
//
// Usage:
//
//	go run ./cmd/genfixture \
//	  -csv testdata/stations.csv \
//	  -out data/raw/laudo_02-02-2026.pdf
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/couchcryptid/balneabilidade-etl/internal/domain"
	"github.com/couchcryptid/balneabilidade-etl/internal/fixture"
)

func main() {
	csvPath := flag.String("csv", "", "CSV with code,beach,reference,date,status rows")
	outPath := flag.String("out", "", "output PDF path")
	title := flag.String("title", "", "report title")
	perPage := flag.Int("rows-per-page", 25, "station rows per page")
	flag.Parse()

	if *csvPath == "" || *outPath == "" {
		flag.Usage()
		os.Exit(1)
	}
	if err := run(*csvPath, *outPath, *title, *perPage); err != nil {
		log.Fatal(err)
	}
}

func run(csvPath, outPath, title string, perPage int) error {
	f, err := os.Open(csvPath)
	if err != nil {
		return err
	}
	defer f.Close()

	stations, err := fixture.ReadStationsCSV(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", csvPath, err)
	}
	start, end := period(stations)

	data, err := fixture.BuildReportPDF(fixture.Report{
		Title:       title,
		PeriodStart: start,
		PeriodEnd:   end,
		Stations:    stations,
		RowsPerPage: perPage,
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s: %d stations, period %s to %s\n", outPath, len(stations), start, end)
	return nil
}

func period(stations []fixture.Station) (domain.Date, domain.Date) {
	var first, last domain.Date
	for _, st := range stations {
		for _, r := range st.Readings {
			if first.IsZero() || r.Date.Before(first) {
				first = r.Date
			}
			if r.Date.After(last) {
				last = r.Date
			}
		}
	}
	return first, last
}
