package dataprocessing

import (
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "prodtrack/internal/errors"
)

// DefaultDateLayouts are tried in order when NormalizeOptions.DateLayouts
// is empty. All ambiguous forms are day-first.
var DefaultDateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"02.01.2006",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
}

// NormalizeOptions names the columns that receive typed treatment. Names
// are canonicalized before use.
type NormalizeOptions struct {
	NumericColumns []string
	DateColumn     string
	DateLayouts    []string
	Logger         *slog.Logger
}

// CanonicalKey trims surrounding whitespace and upper-cases the label.
func CanonicalKey(label string) string {
	return strings.ToUpper(strings.TrimSpace(label))
}

// Normalize converts a raw export into a typed Table.
//
// Headers become canonical keys; a key that collides with an earlier one
// gets a ".1", ".2" suffix. Numeric columns are parsed with thousands
// separators removed and default to 0. When the date column is present the
// rows are stable-sorted by date with unparsable dates last.
func Normalize(raw *RawRecordSet, opts NormalizeOptions) (*Table, error) {
	if raw == nil || len(raw.Headers) == 0 {
		return nil, apperrors.NewMalformedDataError("export is empty", nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	columns, err := canonicalColumns(raw.Headers, logger)
	if err != nil {
		return nil, err
	}

	numeric := make(map[string]bool, len(opts.NumericColumns))
	for _, c := range opts.NumericColumns {
		numeric[CanonicalKey(c)] = true
	}
	dateKey := CanonicalKey(opts.DateColumn)
	layouts := opts.DateLayouts
	if len(layouts) == 0 {
		layouts = DefaultDateLayouts
	}

	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}
	for c := range numeric {
		if !present[c] {
			logger.Warn("numeric column missing from export",
				slog.Any("error", apperrors.NewSchemaMismatchError(c)))
		}
	}
	hasDate := dateKey != "" && present[dateKey]
	if dateKey != "" && !hasDate {
		logger.Warn("date column missing from export",
			slog.Any("error", apperrors.NewSchemaMismatchError(dateKey)))
	}

	coerced := make(map[string]int)
	var firstFailure *apperrors.AppError
	nullDates := 0

	rows := make([]Row, len(raw.Records))
	for i, record := range raw.Records {
		values := make(map[string]Value, len(columns))
		for j, key := range columns {
			cell := ""
			if j < len(record) {
				cell = record[j]
			}

			switch {
			case numeric[key]:
				n, ok := parseNumber(cell)
				if !ok && !isBlank(cell) {
					coerced[key]++
					if firstFailure == nil {
						firstFailure = apperrors.NewParseError(key, cell, nil)
					}
				}
				values[key] = NumberValue(n)
			case hasDate && key == dateKey:
				if t, ok := parseDate(cell, layouts); ok {
					values[key] = DateValue(t)
				} else {
					values[key] = NullDate()
					nullDates++
				}
			default:
				values[key] = StringValue(cell)
			}
		}
		rows[i] = newRow(columns, values)
	}

	if len(coerced) > 0 {
		logger.Warn("numeric cells coerced to zero",
			slog.Any("counts", coerced),
			slog.Any("first", firstFailure))
	}

	if hasDate {
		sortByDate(rows, dateKey)
		if nullDates > 0 {
			logger.Debug("rows without a parsable date",
				slog.String("column", dateKey),
				slog.Int("count", nullDates))
		}
	}

	return newTable(columns, rows), nil
}

// canonicalColumns canonicalizes every header and suffixes collisions.
func canonicalColumns(headers []string, logger *slog.Logger) ([]string, error) {
	columns := make([]string, len(headers))
	taken := make(map[string]bool, len(headers))
	blank := true

	for i, h := range headers {
		key := CanonicalKey(h)
		if key != "" {
			blank = false
		}
		if taken[key] {
			base := key
			for n := 1; ; n++ {
				candidate := fmt.Sprintf("%s.%d", base, n)
				if !taken[candidate] {
					key = candidate
					break
				}
			}
			logger.Warn("duplicate column after canonicalization",
				slog.String("label", h),
				slog.String("column", base),
				slog.String("renamed_to", key))
		}
		taken[key] = true
		columns[i] = key
	}

	if blank {
		return nil, apperrors.NewMalformedDataError("export has no header row", nil)
	}
	return columns, nil
}

// Numeric cells use "." for decimals and "," only to group thousands.
var (
	groupedNumber = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d*)?$`)
	plainNumber   = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
)

// parseNumber accepts "1,234.5" style cells. ok is false when the cell is
// blank or not a finite decimal number, in which case the result is 0.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if groupedNumber.MatchString(s) {
		s = strings.ReplaceAll(s, ",", "")
	}
	if !plainNumber.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseDate(s string, layouts []string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// sortByDate orders rows ascending by key, keeping null dates at the end
// and the original order among equal dates.
func sortByDate(rows []Row, key string) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, aok := rows[i].values[key].Date()
		b, bok := rows[j].values[key].Date()
		switch {
		case aok && bok:
			return a.Before(b)
		case aok:
			return true
		default:
			return false
		}
	})
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
