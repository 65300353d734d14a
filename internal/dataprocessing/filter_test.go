package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prodtrack/internal/shared/testutil"
)

func TestApply(t *testing.T) {
	table := mustNormalize(t, testutil.ProductionCSV, NormalizeOptions{NumericColumns: productionNumeric})

	t.Run("all is identity", func(t *testing.T) {
		assert.Same(t, table, Apply(table, "OC", AllSelection))
	})

	t.Run("missing column passes through", func(t *testing.T) {
		assert.Same(t, table, Apply(table, "ORDEN DE COMPRA", "A"))
	})

	t.Run("column name is canonicalized", func(t *testing.T) {
		assert.Equal(t, 2, Apply(table, " oc", "A").Len())
	})

	t.Run("unknown value is empty", func(t *testing.T) {
		filtered := Apply(table, "OC", "Z")
		assert.Equal(t, 0, filtered.Len())
		assert.Equal(t, table.Columns(), filtered.Columns())
	})

	t.Run("source table untouched", func(t *testing.T) {
		_ = Apply(table, "OC", "B")
		assert.Equal(t, 3, table.Len())
	})

	t.Run("numeric column compares display form", func(t *testing.T) {
		filtered := Apply(table, "TOTAL PATINES", "10")
		require.Equal(t, 1, filtered.Len())
	})
}

func TestSelectionOptions(t *testing.T) {
	table := mustNormalize(t, "OC,X\nB,1\nA,2\n,3\nB,4\nall,5\n", NormalizeOptions{})

	assert.Equal(t, []string{AllSelection, "A", "B"}, SelectionOptions(table, "OC"))
	assert.Equal(t, []string{AllSelection}, SelectionOptions(table, "MISSING"))
	assert.Equal(t, []string{AllSelection}, SelectionOptions(nil, "OC"))
}

// Every offered option selects a non-empty subset whose rows all carry it.
func TestSelectionOptions_EveryOptionMatches(t *testing.T) {
	table := mustNormalize(t, testutil.DatedCSV, NormalizeOptions{
		NumericColumns: productionNumeric,
		DateColumn:     "FECHA",
	})

	for _, column := range []string{"ORDEN DE COMPRA", "FECHA", "TOTAL PATINES"} {
		for _, opt := range SelectionOptions(table, column)[1:] {
			filtered := Apply(table, column, opt)
			require.NotZero(t, filtered.Len(), "%s=%s", column, opt)
			for _, row := range filtered.Rows() {
				v, _ := row.Get(column)
				assert.Equal(t, opt, v.String())
			}
		}
	}
}
