package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/balneabilidade-etl/internal/domain"
)

func date(s string) domain.Date { return domain.MustParseDate(s) }

func TestParseRows_InlinePairsAcrossPages(t *testing.T) {
	pages := []Page{
		{Number: 1, Lines: []Line{
			{"Laudo de Balneabilidade"},
			{"Ponto", "Praia", "Referência", "Coletas"},
			{"P19", "Olho de Porco", "Em frente", "ao bar", "17/11/2025", "PRÓPRIO", "02/02/2026", "IMPRÓPRIO"},
		}},
		{Number: 2, Lines: []Line{
			{"P20 Ponta Negra", "Morro do Careca", "02/02/2026 - PRÓPRIO"},
		}},
	}

	res := ParseRows(pages)

	assert.Equal(t, LayoutTable, res.Layout)
	assert.Zero(t, res.Skipped)
	assert.Equal(t, []domain.RawRow{
		{Code: "P19", Beach: "Olho de Porco", Reference: "Em frente ao bar", Date: date("2025-11-17"), RawStatus: "PRÓPRIO", Page: 1},
		{Code: "P19", Beach: "Olho de Porco", Reference: "Em frente ao bar", Date: date("2026-02-02"), RawStatus: "IMPRÓPRIO", Page: 1},
		{Code: "P20", Beach: "Ponta Negra", Reference: "Morro do Careca", Date: date("2026-02-02"), RawStatus: "PRÓPRIO", Page: 2},
	}, res.Rows)
}

func TestParseRows_HeaderDateColumns(t *testing.T) {
	pages := []Page{{Number: 1, Lines: []Line{
		{"Ponto", "Praia", "Referência", "26/01/2026", "02/02/2026"},
		{"SL4", "Calhau", "Posto 2", "PRÓPRIO", "IMPRÓPRIO"},
		{"SL5", "Olho d'Água", "Posto 4", "PRÓPRIO", "PRÓPRIO"},
	}}}

	res := ParseRows(pages)

	require.Len(t, res.Rows, 4)
	assert.Equal(t, "SL4", res.Rows[1].Code)
	assert.Equal(t, date("2026-02-02"), res.Rows[1].Date)
	assert.Equal(t, "IMPRÓPRIO", res.Rows[1].RawStatus)
	assert.Equal(t, "Calhau", res.Rows[1].Beach)
	assert.Equal(t, "Posto 2", res.Rows[1].Reference)
	assert.Equal(t, date("2026-01-26"), res.Rows[2].Date)
}

func TestParseRows_PeriodEndDatesSingleStatus(t *testing.T) {
	pages := []Page{{Number: 1, Lines: []Line{
		{"Resultados referentes ao período de 26/01/2026 a 02/02/2026"},
		{"P5", "Areia Preta", "Escadaria", "Próprio"},
	}}}

	res := ParseRows(pages)

	assert.Equal(t, date("2026-02-02"), res.PeriodEnd)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, date("2026-02-02"), res.Rows[0].Date)
	assert.Equal(t, "Próprio", res.Rows[0].RawStatus)
}

func TestParseRows_SkipsMalformedRows(t *testing.T) {
	pages := []Page{{Number: 1, Lines: []Line{
		{"P1", "Redinha", "Ponte", "02/02/2026", "IMPRÓPRIO"},
		{"P2", "Genipabu"},
		{"P3", "Forte", "17/11/2025"},
		{"Observação: amostra não coletada"},
	}}}

	res := ParseRows(pages)

	assert.Equal(t, 2, res.Skipped)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "P1", res.Rows[0].Code)
}

func TestParseRows_HeaderRowWithMissingColumnsIsSkipped(t *testing.T) {
	pages := []Page{{Number: 1, Lines: []Line{
		{"Ponto", "Praia", "Referência", "26/01/2026", "02/02/2026"},
		{"SL4", "Calhau", "PRÓPRIO"},
		{"SL5", "Olho d'Água", "Posto 4", "Calhau", "PRÓPRIO"},
		{"SL6", "Ponta d'Areia", "Espigão", "-", "PRÓPRIO"},
	}}}

	res := ParseRows(pages)

	assert.Equal(t, 2, res.Skipped)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "SL6", res.Rows[0].Code)
	assert.Equal(t, date("2026-01-26"), res.Rows[0].Date)
	assert.Equal(t, "-", res.Rows[0].RawStatus)
	assert.Equal(t, "PRÓPRIO", res.Rows[1].RawStatus)
}

func TestParseRows_SplitPeriodLineIsNotAHeader(t *testing.T) {
	pages := []Page{{Number: 1, Lines: []Line{
		{"Resultados referentes ao período de", "26/01/2026", "a", "02/02/2026"},
		{"P5", "Areia Preta", "Escadaria", "Próprio"},
	}}}

	res := ParseRows(pages)

	assert.Zero(t, res.Skipped)
	assert.Equal(t, []domain.RawRow{
		{Code: "P5", Beach: "Areia Preta", Reference: "Escadaria", Date: date("2026-02-02"), RawStatus: "Próprio", Page: 1},
	}, res.Rows)
}

func TestParseRows_BlockFallback(t *testing.T) {
	pages := []Page{
		{Number: 1, Lines: []Line{
			{"Período de 26/01/2026 a 02/02/2026"},
			{"P19 Praia: Olho de Porco"},
			{"Referência: Em frente ao bar"},
			{"Data da coleta: 01/02/2026"},
			{"Status: IMPRÓPRIO"},
		}},
		{Number: 2, Lines: []Line{
			{"P20 Praia: Ponta Negra Referência: Morro do Careca"},
			{"Status: PRÓPRIO"},
			{"P21 Praia: Búzios"},
		}},
	}

	res := ParseRows(pages)

	assert.Equal(t, LayoutBlock, res.Layout)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, []domain.RawRow{
		{Code: "P19", Beach: "Olho de Porco", Reference: "Em frente ao bar", Date: date("2026-02-01"), RawStatus: "IMPRÓPRIO", Page: 1},
		{Code: "P20", Beach: "Ponta Negra", Reference: "Morro do Careca", Date: date("2026-02-02"), RawStatus: "PRÓPRIO", Page: 2},
	}, res.Rows)
}

func TestParseRows_Empty(t *testing.T) {
	res := ParseRows([]Page{{Number: 1, Lines: []Line{{"Sem dados"}}}})
	assert.Empty(t, res.Rows)
}
