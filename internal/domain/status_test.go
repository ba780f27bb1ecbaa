package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
	}{
		{"Próprio", StatusProper},
		{"PRÓPRIO", StatusProper},
		{"próprio ", StatusProper},
		{"'Próprio'", StatusProper},
		{`"PRÓPRIO"`, StatusProper},
		{"“Próprio”", StatusProper},
		{"PROPIO", StatusProper},
		{"Impróprio", StatusImproper},
		{"IMPRPRIO", StatusImproper},
		{"IMPROPRIO", StatusImproper},
		{"impróprio para banho", StatusImproper},
		{"IMPROPIO", StatusImproper},
		{"", StatusUnknown},
		{"N/A", StatusUnknown},
		{"pendente", StatusUnknown},
		{"---", StatusUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeStatus(tt.raw))
		})
	}
}

func TestNormalizeStatus_Idempotent(t *testing.T) {
	for _, s := range []Status{StatusProper, StatusImproper, StatusUnknown} {
		assert.Equal(t, s, NormalizeStatus(string(s)))
	}
}

func TestStatus_UnmarshalJSON(t *testing.T) {
	var entries []HistoryEntry
	data := []byte(`[{"date":"2025-11-17","status":"PRÓPRIO"},{"date":"17/10/2025","status":"Impróprio"},{"date":"2025-09-01","status":"IMPROPER"}]`)
	require.NoError(t, json.Unmarshal(data, &entries))

	require.Len(t, entries, 3)
	assert.Equal(t, StatusProper, entries[0].Status)
	assert.Equal(t, StatusImproper, entries[1].Status)
	assert.Equal(t, MustParseDate("2025-10-17"), entries[1].Date)
	assert.Equal(t, StatusImproper, entries[2].Status)
}

func TestStatus_Valid(t *testing.T) {
	assert.True(t, StatusProper.Valid())
	assert.False(t, Status("PRÓPRIO").Valid())
}
