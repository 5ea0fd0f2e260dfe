package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `iso_code,date,location,population,total_cases,total_vaccinations
NZL,2020-02-26,New Zealand,5084300,,
NZL,2020-02-27,New Zealand,5084300,,
NZL,2020-02-28,New Zealand,5084300,1,
NZL,2020-02-29,New Zealand,5084300,1,
NZL,2020-03-01,New Zealand,5084300,2,
NZL,2020-03-02,New Zealand,5084300,4,100
ISL,2020-02-28,Iceland,366425,1,
ISL,2020-02-29,Iceland,366425,2,
bad-date,not-a-date,Iceland,366425,3,
`

func parseSample(t *testing.T) *Table {
	t.Helper()
	tbl, err := Parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	return tbl
}

func TestParse(t *testing.T) {
	tbl := parseSample(t)
	assert.Equal(t, []string{"Iceland", "New Zealand"}, tbl.Locations())

	recs, err := tbl.Location("New Zealand")
	require.NoError(t, err)
	assert.Len(t, recs, 6)
	// Rows stay date-ordered; blank numeric cells parse as zero.
	assert.Equal(t, 0.0, recs[0].TotalCases)
	assert.Equal(t, 4.0, recs[5].TotalCases)
	assert.Equal(t, 100.0, recs[5].TotalVaccinations)
}

func TestParseMissingColumns(t *testing.T) {
	_, err := Parse(strings.NewReader("a,b,c\n1,2,3\n"))
	assert.ErrorContains(t, err, "missing column")
}

func TestLocationUnknown(t *testing.T) {
	tbl := parseSample(t)
	_, err := tbl.Location("Atlantis")
	assert.ErrorContains(t, err, "no data for location")
}

func TestExtract(t *testing.T) {
	tbl := parseSample(t)

	series, err := tbl.Extract("New Zealand")
	require.NoError(t, err)

	// Leading zero-case rows are trimmed; day 0 is the first reported case.
	assert.Equal(t, "2020-02-28", series.Start.Format("2006-01-02"))
	assert.Equal(t, []float64{0, 1, 2, 3}, series.Days)
	assert.Equal(t, []float64{1, 1, 2, 4}, series.TotalCases)
	assert.Equal(t, 5084300.0, series.Population)
}

func TestExtractNoCases(t *testing.T) {
	tbl, err := Parse(strings.NewReader(
		"date,location,population,total_cases,total_vaccinations\n" +
			"2020-01-01,Nowhere,100,,\n"))
	require.NoError(t, err)

	_, err = tbl.Extract("Nowhere")
	assert.ErrorContains(t, err, "no case data")
}

func TestEveryNAndHead(t *testing.T) {
	tbl := parseSample(t)
	series, err := tbl.Extract("New Zealand")
	require.NoError(t, err)

	thinned := series.EveryN(2)
	assert.Equal(t, []float64{0, 2}, thinned.Days)
	assert.Equal(t, []float64{1, 2}, thinned.TotalCases)

	head := series.Head(2)
	assert.Equal(t, []float64{0, 1}, head.Days)

	// n <= 1 and oversized heads are no-ops.
	assert.Equal(t, series, series.EveryN(1))
	assert.Equal(t, series, series.Head(100))
}

func TestToDataset(t *testing.T) {
	tbl := parseSample(t)
	series, err := tbl.Extract("New Zealand")
	require.NoError(t, err)

	data, err := series.ToDataset("I", true)
	require.NoError(t, err)
	assert.Equal(t, series.Days, data.Times)
	require.Contains(t, data.Observations, "I")
	// Normalized to population fractions.
	assert.InDelta(t, 1.0/5084300, data.Observations["I"][0], 1e-12)

	raw, err := series.ToDataset("I", false)
	require.NoError(t, err)
	assert.Equal(t, 1.0, raw.Observations["I"][0])
}

func TestToDatasetNoPopulation(t *testing.T) {
	series := &Series{
		Location:   "Nowhere",
		Days:       []float64{0, 1},
		TotalCases: []float64{1, 2},
	}
	_, err := series.ToDataset("I", true)
	assert.ErrorContains(t, err, "no population")
}
