package pipeline

import (
	"strings"

	"github.com/couchcryptid/balneabilidade-etl/internal/domain"
)

// ToReadings normalizes extracted rows. Rows without a valid station code or
// a date are dropped and counted.
func ToReadings(rows []domain.RawRow) ([]domain.StationReading, int) {
	readings := make([]domain.StationReading, 0, len(rows))
	skipped := 0
	for _, r := range rows {
		code := strings.ToUpper(strings.TrimSpace(r.Code))
		if !domain.IsStationCode(code) || r.Date.IsZero() {
			skipped++
			continue
		}
		readings = append(readings, domain.StationReading{
			StationCode: code,
			Beach:       collapseSpaces(r.Beach),
			Reference:   collapseSpaces(r.Reference),
			City:        collapseSpaces(r.City),
			Date:        r.Date,
			Status:      domain.NormalizeStatus(r.RawStatus),
		})
	}
	return readings, skipped
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
