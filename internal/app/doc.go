// Package app wires the dashboard server together and manages its lifecycle.
//
// # Initialization Flow
//
//	1. Initialize logging and OpenTelemetry
//	2. Build the source fetcher for the configured export
//	3. Wrap fetch and normalize in the snapshot cache
//	4. Create the dashboard, health and refresh services
//	5. Set up HTTP handlers, middleware and the websocket hub
//	6. Start the HTTP server and the background refresher
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// Run blocks until SIGINT or SIGTERM and then shuts down within the
// configured shutdown timeout.
package app
