// Package services composes the dashboard pipeline behind the HTTP layer.
//
// DashboardService reads the cached snapshot and runs the filter, the
// aggregator and the row classifier over it for one selection. Refresher
// keeps the snapshot warm in the background and notifies websocket clients
// when a new one arrives. HealthService answers liveness and readiness
// checks.
//
// Services take their collaborators through constructors and log through
// an injected *slog.Logger tagged with a component attribute.
package services
