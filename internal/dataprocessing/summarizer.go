package dataprocessing

import (
	"encoding/json"
	"sort"
	"time"
)

// Metric is the sum of one numeric column.
type Metric struct {
	Column string  `json:"column"`
	Value  float64 `json:"value"`
}

// Summary holds one Metric per requested column that exists in the table,
// in request order.
type Summary struct {
	Metrics []Metric `json:"metrics"`
}

// Get returns the sum for column. ok is false when the column was absent.
func (s Summary) Get(column string) (float64, bool) {
	key := CanonicalKey(column)
	for _, m := range s.Metrics {
		if m.Column == key {
			return m.Value, true
		}
	}
	return 0, false
}

// Summarize sums each requested column over the table. Columns missing
// from the table are omitted rather than reported as zero.
func Summarize(table *Table, numericColumns []string) Summary {
	if table == nil {
		return Summary{Metrics: []Metric{}}
	}
	keys := presentColumns(table, numericColumns)
	return sumRows(table.rows, keys)
}

// DateBucket aggregates the rows sharing one date. The bucket with Known
// false collects the rows whose date could not be parsed.
type DateBucket struct {
	Date  time.Time
	Known bool
	Sums  Summary
	Rows  int
}

// MarshalJSON renders Date as "2006-01-02", or null for the unknown bucket.
func (b DateBucket) MarshalJSON() ([]byte, error) {
	var date *string
	if b.Known {
		s := b.Date.Format(DateFormat)
		date = &s
	}
	return json.Marshal(struct {
		Date    *string  `json:"date"`
		Known   bool     `json:"known"`
		Rows    int      `json:"rows"`
		Metrics []Metric `json:"metrics"`
	}{date, b.Known, b.Rows, b.Sums.Metrics})
}

// GroupByDate sums the numeric columns per distinct date in ascending
// order. Rows with a null date form one trailing bucket, so the buckets
// always add up to Summarize over the same table. A missing date column
// yields nil.
func GroupByDate(table *Table, dateColumn string, numericColumns []string) []DateBucket {
	dateKey := CanonicalKey(dateColumn)
	if dateKey == "" || !table.HasColumn(dateKey) {
		return nil
	}
	keys := presentColumns(table, numericColumns)

	groups := make(map[time.Time][]Row)
	dates := make([]time.Time, 0)
	var unknown []Row

	for _, row := range table.rows {
		v, _ := row.Get(dateKey)
		d, ok := v.Date()
		if !ok {
			unknown = append(unknown, row)
			continue
		}
		if _, seen := groups[d]; !seen {
			dates = append(dates, d)
		}
		groups[d] = append(groups[d], row)
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	buckets := make([]DateBucket, 0, len(dates)+1)
	for _, d := range dates {
		rows := groups[d]
		buckets = append(buckets, DateBucket{
			Date:  d,
			Known: true,
			Sums:  sumRows(rows, keys),
			Rows:  len(rows),
		})
	}
	if len(unknown) > 0 {
		buckets = append(buckets, DateBucket{
			Sums: sumRows(unknown, keys),
			Rows: len(unknown),
		})
	}
	return buckets
}

func presentColumns(table *Table, columns []string) []string {
	keys := make([]string, 0, len(columns))
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		key := CanonicalKey(c)
		if seen[key] || !table.HasColumn(key) {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	return keys
}

func sumRows(rows []Row, keys []string) Summary {
	metrics := make([]Metric, len(keys))
	for i, key := range keys {
		metrics[i].Column = key
		for _, row := range rows {
			v, _ := row.Get(key)
			if n, ok := numericOf(v); ok {
				metrics[i].Value += n
			}
		}
	}
	return Summary{Metrics: metrics}
}

// numericOf reads a number from a numeric value or a string that parses as
// one.
func numericOf(v Value) (float64, bool) {
	if n, ok := v.Number(); ok {
		return n, true
	}
	if v.Kind() == KindString && !v.IsNull() {
		return parseNumber(v.str)
	}
	return 0, false
}
