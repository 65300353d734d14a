// Package api contains the query contracts of the dashboard HTTP API.
package api

// DashboardQuery is the query string of GET /api/dashboard.
type DashboardQuery struct {
	Selection string `query:"oc" validate:"max=200"`
	Dates     bool   `query:"dates"`
}

// DateSummaryQuery is the query string of GET /api/dashboard/dates.
type DateSummaryQuery struct {
	Selection string `query:"oc" validate:"max=200"`
}

// ExportQuery is the query string of GET /api/dashboard/export.
type ExportQuery struct {
	Selection string `query:"oc" validate:"max=200"`
	Format    string `query:"format" validate:"oneof=csv xlsx"`
}
