package services

import "errors"

var (
	// ErrNotReady is returned by readiness checks before any snapshot loads.
	ErrNotReady = errors.New("dashboard snapshot not loaded")

	// ErrNoFetcher is returned when a loader is built without a source.
	ErrNoFetcher = errors.New("no source fetcher configured")
)
