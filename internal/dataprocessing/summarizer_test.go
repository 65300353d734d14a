package dataprocessing

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prodtrack/internal/shared/testutil"
)

func TestSummarize(t *testing.T) {
	table := mustNormalize(t, testutil.ProductionCSV, NormalizeOptions{NumericColumns: productionNumeric})

	summary := Summarize(table, []string{"pendientes", "TOTAL PATINES", "DOCENAS"})

	assert.Equal(t, []Metric{
		{Column: "PENDIENTES", Value: 5},
		{Column: "TOTAL PATINES", Value: 22},
	}, summary.Metrics, "request order kept, missing column omitted")

	v, ok := summary.Get("Total Patines")
	assert.True(t, ok)
	assert.Equal(t, 22.0, v)

	_, ok = summary.Get("DOCENAS")
	assert.False(t, ok)
}

func TestSummarize_EmptyTable(t *testing.T) {
	table := mustNormalize(t, "OC,TOTAL PATINES\n", NormalizeOptions{NumericColumns: productionNumeric})

	summary := Summarize(table, productionNumeric)
	assert.Equal(t, []Metric{{Column: "TOTAL PATINES", Value: 0}}, summary.Metrics)

	assert.Empty(t, Summarize(nil, productionNumeric).Metrics)
}

func TestSummarize_StringColumnParsesNumbers(t *testing.T) {
	table := mustNormalize(t, "OC,DOCENAS\nA,2\nB,x\nC,1\n", NormalizeOptions{})
	v, ok := Summarize(table, []string{"DOCENAS"}).Get("DOCENAS")
	require.True(t, ok)
	assert.Equal(t, 3.0, v)
}

func TestGroupByDate(t *testing.T) {
	table := mustNormalize(t, testutil.DatedCSV, NormalizeOptions{
		NumericColumns: productionNumeric,
		DateColumn:     "FECHA",
	})

	buckets := GroupByDate(table, "fecha", productionNumeric)
	require.Len(t, buckets, 3)

	assert.True(t, buckets[0].Known)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), buckets[0].Date)
	assert.Equal(t, 1, buckets[0].Rows)
	assertMetric(t, buckets[0].Sums, "TOTAL PATINES", 6)
	assertMetric(t, buckets[0].Sums, "PENDIENTES", 0)

	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), buckets[1].Date)
	assert.Equal(t, 2, buckets[1].Rows)
	assertMetric(t, buckets[1].Sums, "TOTAL PATINES", 6)
	assertMetric(t, buckets[1].Sums, "PENDIENTES", 1)

	assert.False(t, buckets[2].Known, "unparsable dates trail in one bucket")
	assert.Equal(t, 1, buckets[2].Rows)
	assertMetric(t, buckets[2].Sums, "TOTAL PATINES", 3)
}

// The date buckets always add up to the ungrouped summary.
func TestGroupByDate_SumsMatchSummarize(t *testing.T) {
	table := mustNormalize(t, testutil.DatedCSV, NormalizeOptions{
		NumericColumns: productionNumeric,
		DateColumn:     "FECHA",
	})

	for _, selection := range SelectionOptions(table, "ORDEN DE COMPRA") {
		filtered := Apply(table, "ORDEN DE COMPRA", selection)
		total := Summarize(filtered, productionNumeric)

		sums := map[string]float64{}
		rows := 0
		for _, b := range GroupByDate(filtered, "FECHA", productionNumeric) {
			rows += b.Rows
			for _, m := range b.Sums.Metrics {
				sums[m.Column] += m.Value
			}
		}

		assert.Equal(t, filtered.Len(), rows, selection)
		for _, m := range total.Metrics {
			assert.Equal(t, m.Value, sums[m.Column], "%s/%s", selection, m.Column)
		}
	}
}

func TestGroupByDate_MissingColumn(t *testing.T) {
	table := mustNormalize(t, testutil.ProductionCSV, NormalizeOptions{NumericColumns: productionNumeric})

	assert.Nil(t, GroupByDate(table, "FECHA", productionNumeric))
	assert.Nil(t, GroupByDate(table, "", productionNumeric))
}

func TestDateBucket_JSON(t *testing.T) {
	b, err := json.Marshal([]DateBucket{
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Known: true, Rows: 1, Sums: Summary{Metrics: []Metric{{"X", 1}}}},
		{Rows: 2, Sums: Summary{Metrics: []Metric{}}},
	})
	require.NoError(t, err)

	assert.JSONEq(t, `[
		{"date":"2024-01-02","known":true,"rows":1,"metrics":[{"column":"X","value":1}]},
		{"date":null,"known":false,"rows":2,"metrics":[]}
	]`, string(b))
}

func assertMetric(t *testing.T, s Summary, column string, want float64) {
	t.Helper()
	got, ok := s.Get(column)
	require.True(t, ok, "metric %s missing", column)
	assert.Equal(t, want, got, column)
}
