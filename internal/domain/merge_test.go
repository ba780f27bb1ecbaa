package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testReportOld = "https://example.org/laudo_17_11_2025.pdf"
	testReportNew = "https://example.org/laudo_02_02_2026.pdf"
)

func reading(code, date string, status Status) StationReading {
	return StationReading{
		StationCode: code,
		Beach:       "Praia " + code,
		Reference:   "Ref " + code,
		Date:        MustParseDate(date),
		Status:      status,
	}
}

func TestStationRecord_Upsert(t *testing.T) {
	var r StationRecord
	r.Upsert(HistoryEntry{Date: MustParseDate("2025-11-17"), Status: StatusProper})
	r.Upsert(HistoryEntry{Date: MustParseDate("2026-02-02"), Status: StatusImproper})
	r.Upsert(HistoryEntry{Date: MustParseDate("2025-12-01"), Status: StatusProper})
	r.Upsert(HistoryEntry{Date: MustParseDate("2025-12-01"), Status: StatusImproper})
	r.Upsert(HistoryEntry{Status: StatusProper})

	want := []HistoryEntry{
		{Date: MustParseDate("2026-02-02"), Status: StatusImproper},
		{Date: MustParseDate("2025-12-01"), Status: StatusImproper},
		{Date: MustParseDate("2025-11-17"), Status: StatusProper},
	}
	if diff := cmp.Diff(want, r.History); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
	require.NotNil(t, r.Latest)
	assert.Equal(t, want[0], *r.Latest)
}

func TestMergeReadings_CreatesAndUpserts(t *testing.T) {
	existing := MergeReadings(nil, []StationReading{reading("P19", "2025-11-17", StatusProper)}, testReportOld)

	merged := MergeReadings(existing, []StationReading{
		reading("P19", "2026-02-02", StatusImproper),
		reading("P20", "2026-02-02", StatusProper),
	}, testReportNew)

	require.Len(t, merged, 2)
	p19 := merged[0]
	assert.Equal(t, "P19", p19.Code)
	assert.Equal(t, []HistoryEntry{
		{Date: MustParseDate("2026-02-02"), Status: StatusImproper},
		{Date: MustParseDate("2025-11-17"), Status: StatusProper},
	}, p19.History)
	assert.Equal(t, StatusImproper, p19.Latest.Status)
	assert.Equal(t, testReportNew, p19.SourceReportURL)
	assert.Equal(t, "Praia P19", p19.Beach)

	// input untouched
	require.Len(t, existing, 1)
	assert.Len(t, existing[0].History, 1)
}

func TestMergeReadings_SameDateLaterWins(t *testing.T) {
	merged := MergeReadings(nil, []StationReading{
		reading("P1", "2026-02-02", StatusProper),
		reading("P1", "2026-02-02", StatusImproper),
	}, testReportNew)

	require.Len(t, merged, 1)
	assert.Len(t, merged[0].History, 1)
	assert.Equal(t, StatusImproper, merged[0].Latest.Status)
}

func TestMergeReadings_Idempotent(t *testing.T) {
	batch := []StationReading{
		reading("P1", "2026-02-02", StatusProper),
		reading("P2", "2026-02-02", StatusImproper),
		reading("P2", "2026-01-26", StatusProper),
	}
	once := MergeReadings(nil, batch, testReportNew)
	twice := MergeReadings(once, batch, testReportNew)

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second merge changed records (-once +twice):\n%s", diff)
	}
}

func TestMergeReadings_SkipsUndated(t *testing.T) {
	merged := MergeReadings(nil, []StationReading{{StationCode: "P1", Status: StatusProper}}, testReportNew)
	assert.Empty(t, merged)
}

func TestApplyBatch_RecencyGuard(t *testing.T) {
	current := MergeReadings(nil, []StationReading{
		reading("P1", "2026-02-02", StatusProper),
		reading("P2", "2026-02-02", StatusProper),
	}, testReportNew)
	before, err := json.Marshal(current)
	require.NoError(t, err)

	for _, date := range []string{"2025-11-17", "2026-02-02"} {
		t.Run(date, func(t *testing.T) {
			res := ApplyBatch(current, []StationReading{reading("P1", date, StatusImproper)}, testReportOld)

			assert.False(t, res.Committed)
			assert.Equal(t, OutcomeRecencyRejected, res.Outcome)
			after, err := json.Marshal(res.Records)
			require.NoError(t, err)
			assert.Equal(t, string(before), string(after))
		})
	}
}

func TestApplyBatch_CommitsNewerBatch(t *testing.T) {
	current := MergeReadings(nil, []StationReading{
		reading("P19", "2025-11-17", StatusProper),
		reading("P40", "2025-11-17", StatusImproper),
	}, testReportOld)

	res := ApplyBatch(current, []StationReading{reading("P19", "2026-02-02", StatusImproper)}, testReportNew)

	require.True(t, res.Committed)
	assert.Equal(t, OutcomeCommitted, res.Outcome)
	assert.Equal(t, []string{"P19"}, res.Affected)
	assert.Equal(t, "2026-02-02", res.BatchMax.String())
	assert.Equal(t, "2025-11-17", res.FeedMax.String())

	p40, ok := FindRecord(res.Records, "P40")
	require.True(t, ok)
	if diff := cmp.Diff(current[1], p40); diff != "" {
		t.Errorf("station absent from batch changed (-want +got):\n%s", diff)
	}
}

func TestApplyBatch_EmptyFeedAcceptsAnything(t *testing.T) {
	res := ApplyBatch(nil, []StationReading{reading("P1", "2020-01-01", StatusProper)}, testReportOld)
	assert.True(t, res.Committed)
	assert.Len(t, res.Records, 1)
}

func TestApplyBatch_NoDatedReadings(t *testing.T) {
	res := ApplyBatch(nil, []StationReading{{StationCode: "P1", Status: StatusProper}}, testReportOld)
	assert.False(t, res.Committed)
	assert.Equal(t, OutcomeNoNewData, res.Outcome)
}

func TestNormalizeRecord(t *testing.T) {
	var r StationRecord
	data := []byte(`{"code":"P3","latest":{"date":"2025-01-01","status":"PRÓPRIO"},"history":[
		{"date":"2025-01-01","status":"PRÓPRIO"},
		{"date":"10/02/2025","status":"IMPRÓPRIO"},
		{"date":"2025-02-10","status":"PRÓPRIO"}]}`)
	require.NoError(t, json.Unmarshal(data, &r))

	n := NormalizeRecord(r)

	assert.Equal(t, []HistoryEntry{
		{Date: MustParseDate("2025-02-10"), Status: StatusProper},
		{Date: MustParseDate("2025-01-01"), Status: StatusProper},
	}, n.History)
	assert.Equal(t, "2025-02-10", n.Latest.Date.String())
	assert.Empty(t, ValidateRecord(n))
}
