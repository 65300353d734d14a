// Package shared holds code used across packages that belongs to no single
// layer.
//
// The testutil subpackage provides a capturing slog handler and a fake
// clock for cache TTL tests:
//
//	logger, logs := testutil.NewTestLogger(t)
//	clock := testutil.NewFakeClock(time.Date(2024, 5, 6, 8, 0, 0, 0, time.UTC))
//	c := cache.New(key, 10*time.Second, load, cache.WithClock(clock), cache.WithLogger(logger))
//	clock.Advance(11 * time.Second)
//	assert.True(t, logs.ContainsMessage(slog.LevelInfo, "snapshot loaded"))
//
// It must not import application packages so any test can use it.
package shared
