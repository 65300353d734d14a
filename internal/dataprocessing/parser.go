package dataprocessing

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	apperrors "prodtrack/internal/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// RawRecordSet is the export as fetched: the header labels exactly as
// written plus every data row, all as strings.
type RawRecordSet struct {
	Headers []string
	Records [][]string
}

// Len returns the number of data rows.
func (r *RawRecordSet) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Records)
}

// Row returns the i-th record keyed by raw header label. A label that
// appears twice keeps its first cell.
func (r *RawRecordSet) Row(i int) map[string]string {
	out := make(map[string]string, len(r.Headers))
	for j, h := range r.Headers {
		if _, seen := out[h]; seen {
			continue
		}
		if j < len(r.Records[i]) {
			out[h] = r.Records[i][j]
		} else {
			out[h] = ""
		}
	}
	return out
}

// ParseCSV reads a comma-separated export whose first row is the header.
func ParseCSV(r io.Reader) (*RawRecordSet, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewMalformedDataError("export is not valid CSV", err)
	}
	return buildRecordSet(rows)
}

// ParseXLSX reads an .xlsx export. An empty sheet name selects the first
// worksheet.
func ParseXLSX(r io.Reader, sheet string) (*RawRecordSet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.NewMalformedDataError("export is not a valid xlsx workbook", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, apperrors.NewMalformedDataError("workbook has no worksheets", nil)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.NewMalformedDataError(fmt.Sprintf("cannot read worksheet %q", sheet), err)
	}
	return buildRecordSet(trimTrailingEmptyRows(rows))
}

// FromValues converts a Sheets API value range, whose cells arrive as
// loosely typed JSON values.
func FromValues(values [][]interface{}) (*RawRecordSet, error) {
	rows := make([][]string, len(values))
	for i, row := range values {
		rows[i] = make([]string, len(row))
		for j, cell := range row {
			if cell != nil {
				rows[i][j] = fmt.Sprint(cell)
			}
		}
	}
	return buildRecordSet(rows)
}

// buildRecordSet splits off the header, pads short rows and rejects rows
// wider than the header.
func buildRecordSet(rows [][]string) (*RawRecordSet, error) {
	if len(rows) == 0 {
		return nil, apperrors.NewMalformedDataError("export is empty", nil)
	}

	headers := rows[0]
	blank := true
	for _, h := range headers {
		if !isBlank(h) {
			blank = false
			break
		}
	}
	if blank {
		return nil, apperrors.NewMalformedDataError("export has no header row", nil)
	}

	records := make([][]string, 0, len(rows)-1)
	for i, row := range rows[1:] {
		switch {
		case len(row) > len(headers):
			if !allBlank(row[len(headers):]) {
				return nil, apperrors.NewMalformedDataError(
					fmt.Sprintf("row %d has %d fields, header has %d", i+2, len(row), len(headers)), nil).
					WithContext("row", i+2)
			}
			row = row[:len(headers)]
		case len(row) < len(headers):
			padded := make([]string, len(headers))
			copy(padded, row)
			row = padded
		}
		records = append(records, row)
	}

	return &RawRecordSet{Headers: headers, Records: records}, nil
}

func trimTrailingEmptyRows(rows [][]string) [][]string {
	end := len(rows)
	for end > 0 && allBlank(rows[end-1]) {
		end--
	}
	return rows[:end]
}

func allBlank(cells []string) bool {
	for _, c := range cells {
		if !isBlank(c) {
			return false
		}
	}
	return true
}
