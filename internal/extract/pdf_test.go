package extract

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/balneabilidade-etl/internal/domain"
	"github.com/couchcryptid/balneabilidade-etl/internal/fixture"
)

func TestPDFExtractor_Extract(t *testing.T) {
	data, err := fixture.BuildReportPDF(fixture.Report{
		PeriodStart: date("2025-11-17"),
		PeriodEnd:   date("2026-02-02"),
		RowsPerPage: 1,
		Stations: []fixture.Station{
			{Code: "P19", Beach: "Olho de Porco", Reference: "Em frente ao bar", Readings: []fixture.Reading{
				{Date: date("2025-11-17"), Status: "PROPRIO"},
				{Date: date("2026-02-02"), Status: "IMPROPRIO"},
			}},
			{Code: "P20", Beach: "Ponta Negra", Reference: "Morro do Careca", Readings: []fixture.Reading{
				{Date: date("2026-02-02"), Status: "PROPRIO"},
			}},
		},
	})
	require.NoError(t, err)

	rows, err := NewPDFExtractor(slog.Default()).Extract(context.Background(), data)
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, "P19", rows[0].Code)
	assert.Equal(t, "Olho de Porco", rows[0].Beach)
	assert.Equal(t, date("2025-11-17"), rows[0].Date)
	assert.Equal(t, domain.StatusImproper, domain.NormalizeStatus(rows[1].RawStatus))
	assert.Equal(t, 1, rows[1].Page)
	assert.Equal(t, "P20", rows[2].Code)
	assert.Equal(t, 2, rows[2].Page)
}

func TestPDFExtractor_NoRows(t *testing.T) {
	data, err := fixture.BuildReportPDF(fixture.Report{})
	require.NoError(t, err)

	_, err = NewPDFExtractor(slog.Default()).Extract(context.Background(), data)
	assert.True(t, errors.Is(err, domain.ErrNoRowsExtracted))
}

func TestPDFExtractor_NotAPDF(t *testing.T) {
	_, err := NewPDFExtractor(slog.Default()).Extract(context.Background(), []byte("<html>not found</html>"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrNoRowsExtracted))
}
