package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		pending string
		numeric bool
		want    Status
	}{
		{"zero", "0", true, StatusComplete},
		{"zero decimal", "0.0", true, StatusComplete},
		{"one", "1", true, StatusPending},
		{"negative", "-1", true, StatusPending},
		{"fraction", "0.5", true, StatusPending},
		{"non numeric coerced to zero", "abc", true, StatusComplete},
		{"untyped zero", "0", false, StatusComplete},
		{"untyped text", "abc", false, StatusPending},
		{"untyped blank", "", false, StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := NormalizeOptions{}
			if tt.numeric {
				opts.NumericColumns = []string{"PENDIENTES"}
			}
			table := mustNormalize(t, "OC,PENDIENTES\nA,\""+tt.pending+"\"\n", opts)

			assert.Equal(t, tt.want, Classify(table.Row(0), "pendientes"))
		})
	}
}

func TestClassify_MissingColumn(t *testing.T) {
	table := mustNormalize(t, "OC\nA\n", NormalizeOptions{})
	assert.Equal(t, StatusPending, Classify(table.Row(0), "PENDIENTES"))
}

func TestClassifyFunc(t *testing.T) {
	table := mustNormalize(t, "OC,PENDIENTES\nA,0\nB,2\n", NormalizeOptions{NumericColumns: []string{"PENDIENTES"}})
	classify := ClassifyFunc("PENDIENTES")

	assert.Equal(t, StatusComplete, classify(table.Row(0)))
	assert.Equal(t, StatusPending, classify(table.Row(1)))
}
