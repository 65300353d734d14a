// Package dataprocessing turns a spreadsheet export into the dashboard's
// typed table and computes everything the dashboard shows from it.
//
// # Pipeline
//
//	RawRecordSet → Normalize → Table → Apply → {Summarize, GroupByDate, Classify}
//
// ParseCSV, ParseXLSX and FromValues build a RawRecordSet from the three
// supported export shapes. Normalize canonicalizes headers (trim then
// upper-case), coerces the designated numeric columns and, when a date
// column is configured, parses it day-first and orders the rows by it.
//
// # Immutability
//
// Table and Row expose no setters. Apply returns a new Table sharing the
// selected rows; nothing in this package mutates a Table once built, so a
// cached Table can be read by any number of goroutines.
//
// # Leniency
//
// Schema drift is absorbed rather than reported: an absent filter column
// disables filtering, an absent numeric column is left out of the summary,
// and a numeric cell that does not parse counts as 0. Only an empty or
// structurally broken export fails, with a MALFORMED_DATA error.
package dataprocessing
