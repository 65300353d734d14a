package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"prodtrack/internal/dataprocessing"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes the header and every row in display form.
func WriteCSV(w io.Writer, table *dataprocessing.Table, opts Options) error {
	if opts.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)

	if err := writer.Write(headerRow(table, opts)); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i, row := range table.Rows() {
		values := row.Values()
		record := make([]string, 0, len(values)+1)
		for _, v := range values {
			record = append(record, v.String())
		}
		if opts.Classify != nil {
			record = append(record, string(opts.Classify(row)))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
