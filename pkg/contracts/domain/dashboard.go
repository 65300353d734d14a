// Package domain holds the payloads the dashboard API returns.
package domain

import "time"

// MetricSnapshot carries the two headline figures. A nil field means the
// column was absent from the export and should not be displayed.
type MetricSnapshot struct {
	Programmed *float64 `json:"programmed"`
	Pending    *float64 `json:"pending"`
}

// Metric is one summed column.
type Metric struct {
	Column string  `json:"column"`
	Value  float64 `json:"value"`
}

// RowView is one table row with its completion status. Values are keyed by
// canonical column name and hold a float64, a string or nil.
type RowView struct {
	Status string                 `json:"status"`
	Values map[string]interface{} `json:"values"`
}

// DateBucketView is one day of the date-grouped summary. Date is nil for
// the bucket of rows without a usable date.
type DateBucketView struct {
	Date    *string  `json:"date"`
	Rows    int      `json:"rows"`
	Metrics []Metric `json:"metrics"`
}

// CacheInfo describes the snapshot a response was computed from.
type CacheInfo struct {
	State     string    `json:"state"`
	FetchedAt time.Time `json:"fetched_at"`
	TTL       string    `json:"ttl"`
}

// DashboardView is everything one dashboard render needs.
type DashboardView struct {
	Selection    string           `json:"selection"`
	FilterColumn string           `json:"filter_column"`
	Options      []string         `json:"options"`
	Columns      []string         `json:"columns"`
	Snapshot     MetricSnapshot   `json:"snapshot"`
	Metrics      []Metric         `json:"metrics"`
	Rows         []RowView        `json:"rows"`
	RowCount     int              `json:"row_count"`
	Complete     int              `json:"complete"`
	PendingRows  int              `json:"pending_rows"`
	Dates        []DateBucketView `json:"dates,omitempty"`
	Cache        CacheInfo        `json:"cache"`
}

// OptionsView lists the filter picker entries.
type OptionsView struct {
	FilterColumn string   `json:"filter_column"`
	Options      []string `json:"options"`
}

// DateSummaryView is the date-grouped summary for one selection.
type DateSummaryView struct {
	Selection  string           `json:"selection"`
	DateColumn string           `json:"date_column"`
	Buckets    []DateBucketView `json:"buckets"`
}
