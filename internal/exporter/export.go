package exporter

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"prodtrack/internal/dataprocessing"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// StatusColumn is the extra column added when rows are classified.
const StatusColumn = "ESTADO"

// Options configures an export.
type Options struct {
	// BOMPrefix adds a UTF-8 BOM to CSV output for Excel.
	BOMPrefix bool
	// Classify, when set, adds a status column and colours XLSX rows.
	Classify func(dataprocessing.Row) dataprocessing.Status
	// Summary, when set, is listed below the table in XLSX output.
	Summary *dataprocessing.Summary
	// SheetName names the XLSX worksheet.
	SheetName string
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export extension %q", filepath.Ext(path))
	}
}

// Write exports table in format f.
func Write(w io.Writer, f Format, table *dataprocessing.Table, opts Options) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, table, opts)
	case FormatXLSX:
		return WriteXLSX(w, table, opts)
	default:
		return fmt.Errorf("unsupported export format %q", f)
	}
}

func headerRow(table *dataprocessing.Table, opts Options) []string {
	headers := table.Columns()
	if opts.Classify != nil {
		headers = append(headers, StatusColumn)
	}
	return headers
}
