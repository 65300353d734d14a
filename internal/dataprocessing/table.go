package dataprocessing

import (
	"encoding/json"
	"strconv"
	"time"
)

// DateFormat is the display and JSON form of date values.
const DateFormat = "2006-01-02"

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	KindString ValueKind = iota
	KindNumber
	KindDate
)

func (k ValueKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	default:
		return "string"
	}
}

// Value is a typed cell. Numbers are never null; strings are null when the
// raw cell was blank and dates are null when the cell did not parse.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	date time.Time
	null bool
}

// StringValue wraps a raw cell. A blank cell yields a null string.
func StringValue(s string) Value {
	return Value{kind: KindString, str: s, null: isBlank(s)}
}

// NumberValue wraps a number.
func NumberValue(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// DateValue wraps a calendar date.
func DateValue(t time.Time) Value {
	return Value{kind: KindDate, date: t}
}

// NullDate is the marker for a date cell that could not be parsed.
func NullDate() Value {
	return Value{kind: KindDate, null: true}
}

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsNull() bool    { return v.null }

// Number returns the numeric payload. ok is false for non-numbers.
func (v Value) Number() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Date returns the date payload. ok is false for non-dates and null dates.
func (v Value) Date() (time.Time, bool) {
	if v.kind != KindDate || v.null {
		return time.Time{}, false
	}
	return v.date, true
}

// String returns the display form used for filtering and exports. Null
// values render as the empty string.
func (v Value) String() string {
	if v.null {
		return ""
	}
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindDate:
		return v.date.Format(DateFormat)
	default:
		return v.str
	}
}

// MarshalJSON emits numbers as JSON numbers, nulls as null and everything
// else in display form.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.null {
		return []byte("null"), nil
	}
	if v.kind == KindNumber {
		return json.Marshal(v.num)
	}
	return json.Marshal(v.String())
}

// Row maps canonical column keys to values. It has no setters.
type Row struct {
	columns []string
	values  map[string]Value
}

func newRow(columns []string, values map[string]Value) Row {
	return Row{columns: columns, values: values}
}

// Get returns the value stored under the canonical key.
func (r Row) Get(key string) (Value, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Keys returns the row's canonical keys in column order.
func (r Row) Keys() []string {
	out := make([]string, len(r.columns))
	copy(out, r.columns)
	return out
}

// Values returns the row's values in column order.
func (r Row) Values() []Value {
	out := make([]Value, len(r.columns))
	for i, c := range r.columns {
		out[i] = r.values[c]
	}
	return out
}

// MarshalJSON encodes the row as an object keyed by canonical column.
func (r Row) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.values)
}

// Table is an ordered, immutable set of rows sharing one column list. The
// same type serves as the normalized snapshot and as a filtered view.
type Table struct {
	columns []string
	index   map[string]int
	rows    []Row
}

func newTable(columns []string, rows []Row) *Table {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c] = i
	}
	return &Table{columns: columns, index: index, rows: rows}
}

// withRows derives a table sharing t's columns.
func (t *Table) withRows(rows []Row) *Table {
	return &Table{columns: t.columns, index: t.index, rows: rows}
}

// Columns returns the canonical column keys in source order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Rows returns a copy of the row slice.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	copy(out, t.rows)
	return out
}

// Row returns the i-th row.
func (t *Table) Row(i int) Row { return t.rows[i] }

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// HasColumn reports whether the canonical key is one of the table's columns.
func (t *Table) HasColumn(key string) bool {
	if t == nil {
		return false
	}
	_, ok := t.index[key]
	return ok
}
