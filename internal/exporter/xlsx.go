package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"prodtrack/internal/dataprocessing"
)

// Row fills used for classified rows.
const (
	CompleteFill = "92D050"
	PendingFill  = "BFBFBF"
)

const defaultSheet = "Dashboard"

type xlsxStyles struct {
	header   int
	bold     int
	complete int
	pending  int
}

func newXLSXStyles(f *excelize.File) (xlsxStyles, error) {
	var s xlsxStyles
	var err error

	if s.header, err = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}},
	}); err != nil {
		return s, err
	}
	if s.bold, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return s, err
	}
	if s.complete, err = f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{CompleteFill}},
	}); err != nil {
		return s, err
	}
	if s.pending, err = f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{PendingFill}},
	}); err != nil {
		return s, err
	}
	return s, nil
}

// WriteXLSX writes a single-sheet workbook. Numbers stay numeric cells;
// classified rows are filled by status.
func WriteXLSX(w io.Writer, table *dataprocessing.Table, opts Options) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := opts.SheetName
	if sheet == "" {
		sheet = defaultSheet
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	styles, err := newXLSXStyles(f)
	if err != nil {
		return fmt.Errorf("failed to create styles: %w", err)
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("failed to open stream writer: %w", err)
	}

	headers := headerRow(table, opts)
	if err := sw.SetColWidth(1, len(headers), 18); err != nil {
		return err
	}

	line := 1
	writeRow := func(cells []interface{}) error {
		cell, err := excelize.CoordinatesToCellName(1, line)
		if err != nil {
			return err
		}
		line++
		return sw.SetRow(cell, cells)
	}

	headerCells := make([]interface{}, len(headers))
	for i, h := range headers {
		headerCells[i] = excelize.Cell{StyleID: styles.header, Value: h}
	}
	if err := writeRow(headerCells); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i, row := range table.Rows() {
		style := 0
		var status dataprocessing.Status
		if opts.Classify != nil {
			status = opts.Classify(row)
			style = styles.pending
			if status == dataprocessing.StatusComplete {
				style = styles.complete
			}
		}

		values := row.Values()
		cells := make([]interface{}, 0, len(headers))
		for _, v := range values {
			cells = append(cells, excelize.Cell{StyleID: style, Value: cellValue(v)})
		}
		if opts.Classify != nil {
			cells = append(cells, excelize.Cell{StyleID: style, Value: string(status)})
		}
		if err := writeRow(cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	if opts.Summary != nil && len(opts.Summary.Metrics) > 0 {
		line++
		for _, m := range opts.Summary.Metrics {
			if err := writeRow([]interface{}{
				excelize.Cell{StyleID: styles.bold, Value: m.Column},
				m.Value,
			}); err != nil {
				return fmt.Errorf("failed to write metric %s: %w", m.Column, err)
			}
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func cellValue(v dataprocessing.Value) interface{} {
	if v.IsNull() {
		return nil
	}
	if n, ok := v.Number(); ok {
		return n
	}
	return v.String()
}
