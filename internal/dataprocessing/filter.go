package dataprocessing

import "sort"

// AllSelection is the picker entry that disables filtering.
const AllSelection = "all"

// Apply returns the rows whose value in column, in display form, equals
// selection. The table is returned as is when the column is absent or the
// selection is AllSelection.
func Apply(table *Table, column, selection string) *Table {
	key := CanonicalKey(column)
	if table == nil || selection == AllSelection || !table.HasColumn(key) {
		return table
	}

	rows := make([]Row, 0)
	for _, row := range table.rows {
		v, _ := row.Get(key)
		if !v.IsNull() && v.String() == selection {
			rows = append(rows, row)
		}
	}
	return table.withRows(rows)
}

// SelectionOptions lists AllSelection followed by the sorted distinct
// non-null values of column.
func SelectionOptions(table *Table, column string) []string {
	key := CanonicalKey(column)
	if !table.HasColumn(key) {
		return []string{AllSelection}
	}

	seen := make(map[string]bool)
	values := make([]string, 0)
	for _, row := range table.rows {
		v, _ := row.Get(key)
		if v.IsNull() {
			continue
		}
		s := v.String()
		if s == AllSelection || seen[s] {
			continue
		}
		seen[s] = true
		values = append(values, s)
	}
	sort.Strings(values)

	return append([]string{AllSelection}, values...)
}
