package dataprocessing

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "prodtrack/internal/errors"
	"prodtrack/internal/shared/testutil"
)

func TestParseCSV(t *testing.T) {
	raw, err := ParseCSV(strings.NewReader(testutil.ProductionCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{" oc ", "Total Patines", " pendientes "}, raw.Headers)
	require.Equal(t, 3, raw.Len())
	assert.Equal(t, map[string]string{" oc ": "A", "Total Patines": "5", " pendientes ": "5"}, raw.Row(1))
}

func TestParseCSV_BOMAndQuotes(t *testing.T) {
	input := "\ufeffOC,TOTAL PATINES\n\"A, lote 2\",\"1,200\"\n"

	raw, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, "OC", raw.Headers[0])
	assert.Equal(t, []string{"A, lote 2", "1,200"}, raw.Records[0])
}

func TestParseCSV_RaggedRows(t *testing.T) {
	t.Run("short rows are padded", func(t *testing.T) {
		raw, err := ParseCSV(strings.NewReader("A,B,C\n1\n1,2,3\n"))
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "", ""}, raw.Records[0])
	})

	t.Run("blank overflow is dropped", func(t *testing.T) {
		raw, err := ParseCSV(strings.NewReader("A,B\n1,2,,\n"))
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "2"}, raw.Records[0])
	})

	t.Run("data overflow is malformed", func(t *testing.T) {
		_, err := ParseCSV(strings.NewReader("A,B\n1,2,3\n"))
		require.Error(t, err)
		assert.True(t, apperrors.IsMalformedData(err))
	})
}

func TestParseCSV_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"blank header", " , \n1,2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.True(t, apperrors.IsMalformedData(err))
		})
	}
}

func TestParseCSV_HeaderOnly(t *testing.T) {
	raw, err := ParseCSV(strings.NewReader("OC,TOTAL PATINES\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, raw.Len())
}

func buildWorkbook(t *testing.T, sheet string, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParseXLSX(t *testing.T) {
	data := buildWorkbook(t, "Sheet1", [][]interface{}{
		{"OC", "TOTAL PATINES", "PENDIENTES"},
		{"A", 10, 0},
		{"B", 7},
	})

	raw, err := ParseXLSX(bytes.NewReader(data), "")
	require.NoError(t, err)

	assert.Equal(t, []string{"OC", "TOTAL PATINES", "PENDIENTES"}, raw.Headers)
	require.Equal(t, 2, raw.Len())
	assert.Equal(t, []string{"A", "10", "0"}, raw.Records[0])
	assert.Equal(t, []string{"B", "7", ""}, raw.Records[1])
}

func TestParseXLSX_NamedSheet(t *testing.T) {
	data := buildWorkbook(t, "Produccion", [][]interface{}{
		{"OC", "PENDIENTES"},
		{"C", 3},
	})

	raw, err := ParseXLSX(bytes.NewReader(data), "Produccion")
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "3"}, raw.Records[0])

	_, err = ParseXLSX(bytes.NewReader(data), "Missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsMalformedData(err))
}

func TestParseXLSX_NotAWorkbook(t *testing.T) {
	_, err := ParseXLSX(strings.NewReader("OC,TOTAL\n"), "")
	require.Error(t, err)
	assert.True(t, apperrors.IsMalformedData(err))
}

func TestFromValues(t *testing.T) {
	raw, err := FromValues([][]interface{}{
		{"OC", "TOTAL PATINES", "PENDIENTES"},
		{"A", float64(10), "0"},
		{"B", nil},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "10", "0"}, raw.Records[0])
	assert.Equal(t, []string{"B", "", ""}, raw.Records[1])

	_, err = FromValues(nil)
	assert.True(t, apperrors.IsMalformedData(err))
}
