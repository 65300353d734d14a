// Package http implements the HTTP handlers of the dashboard API.
//
// Handlers are thin: they decode and validate query parameters, call the
// service layer and render the result. Successful responses use the
// envelope
//
//	{"status": "success", "data": ...}
//
// and failures are rendered as RFC 7807 problem details by
// errors.ErrorHandler, which maps an unreachable source to 502 and an
// unreadable export to 422.
//
// Each handler exposes Routes so the application can mount it under a
// prefix:
//
//	r.Mount("/api/dashboard", dashboardHandler.Routes())
//	r.Get("/ws", wsHandler.ServeHTTP)
package http
