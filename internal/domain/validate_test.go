package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRecord(t *testing.T) {
	good := MergeReadings(nil, []StationReading{
		reading("P1", "2026-02-02", StatusProper),
		reading("P1", "2025-11-17", StatusImproper),
	}, testReportNew)[0]
	assert.Empty(t, ValidateRecord(good))

	bad := StationRecord{
		Code: "praia",
		History: []HistoryEntry{
			{Date: MustParseDate("2025-01-01"), Status: "PRÓPRIO"},
			{Date: MustParseDate("2025-01-01"), Status: StatusProper},
			{Date: MustParseDate("2025-03-01"), Status: StatusProper},
		},
	}
	problems := ValidateRecord(bad)
	assert.Contains(t, problems, `invalid code "praia"`)
	assert.Contains(t, problems, "duplicate date 2025-01-01")
	assert.Contains(t, problems, "history not newest first at 2025-03-01")
	assert.Contains(t, problems, "latest missing")
	assert.Contains(t, problems, `history[0] has non-canonical status "PRÓPRIO"`)
}
