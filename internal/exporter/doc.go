// Package exporter writes a dashboard table as a downloadable file.
//
// WriteCSV produces a plain table, optionally with a UTF-8 BOM so Excel
// detects the encoding. WriteXLSX produces a workbook whose rows are
// filled green when complete and grey when pending, with the summed
// metrics listed under the table.
//
// Example usage:
//
//	err := exporter.Write(w, exporter.FormatXLSX, table, exporter.Options{
//	    Classify: dataprocessing.ClassifyFunc("PENDIENTES"),
//	    Summary:  &summary,
//	})
package exporter
