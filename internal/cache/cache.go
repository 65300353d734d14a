// Package cache holds the most recent normalized snapshot of the source and
// decides when it must be reloaded.
//
// An Entry is never modified after it is stored; refreshing replaces the
// whole pointer, so readers see either the old snapshot or the new one.
package cache

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"prodtrack/internal/dataprocessing"
)

// State is the cache life cycle: empty → fresh → stale → fresh, and any
// state → empty on Invalidate.
type State string

const (
	StateEmpty State = "empty"
	StateFresh State = "fresh"
	StateStale State = "stale"
)

// Key identifies what a Cache holds.
type Key struct {
	Source         string
	NumericColumns []string
	DateColumn     string
}

// String renders the key for logs and metrics.
func (k Key) String() string {
	return k.Source + "|" + strings.Join(k.NumericColumns, ",") + "|" + k.DateColumn
}

// Loader produces a fresh normalized table.
type Loader func(ctx context.Context) (*dataprocessing.Table, error)

// Clock is the time source used for staleness checks.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Metrics receives cache events. *infrastructure.DashboardMetrics
// implements it.
type Metrics interface {
	RecordHit(ctx context.Context, source string)
	RecordMiss(ctx context.Context, source string)
	RecordLoad(ctx context.Context, source string, d time.Duration, rows int, err error)
}

// Entry is one loaded snapshot.
type Entry struct {
	Table     *dataprocessing.Table
	FetchedAt time.Time
	TTL       time.Duration
}

// Age returns how old the entry is at now.
func (e *Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.FetchedAt)
}

// Stale reports whether the entry has outlived ttl at now.
func (e *Entry) Stale(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.FetchedAt) > ttl
}

// Stats are cumulative counters since the cache was created.
type Stats struct {
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	Loads    int64 `json:"loads"`
	Failures int64 `json:"failures"`
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(cache *Cache) { cache.clock = c }
}

// WithMetrics reports hits, misses and loads to m.
func WithMetrics(m Metrics) Option {
	return func(cache *Cache) { cache.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(cache *Cache) { cache.logger = l }
}

// Cache keeps one Entry for one Key.
type Cache struct {
	key     Key
	ttl     time.Duration
	load    Loader
	clock   Clock
	metrics Metrics
	logger  *slog.Logger

	entry atomic.Pointer[Entry]
	group singleflight.Group

	hits     atomic.Int64
	misses   atomic.Int64
	loads    atomic.Int64
	failures atomic.Int64
}

// New creates an empty cache for key.
func New(key Key, ttl time.Duration, load Loader, opts ...Option) *Cache {
	c := &Cache{
		key:    key,
		ttl:    ttl,
		load:   load,
		clock:  SystemClock{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(slog.String("component", "cache"), slog.String("source", key.Source))
	return c
}

// Key returns the cache key.
func (c *Cache) Key() Key { return c.key }

// TTL returns the configured time to live.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get is GetOrRefresh with the configured TTL.
func (c *Cache) Get(ctx context.Context) (*Entry, error) {
	return c.GetOrRefresh(ctx, c.ttl)
}

// GetOrRefresh returns the stored entry while it is no older than ttl and
// loads a new one otherwise. Concurrent callers share a single load. When
// the load fails the stored entry is kept and the error returned.
func (c *Cache) GetOrRefresh(ctx context.Context, ttl time.Duration) (*Entry, error) {
	if e := c.entry.Load(); e != nil && !e.Stale(c.clock.Now(), ttl) {
		c.hits.Add(1)
		if c.metrics != nil {
			c.metrics.RecordHit(ctx, c.key.Source)
		}
		return e, nil
	}

	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.RecordMiss(ctx, c.key.Source)
	}

	// The shared load outlives the caller that started it. Each caller
	// stops waiting when its own context ends.
	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(c.key.String(), func() (interface{}, error) {
		// A caller that queued behind a finished load can use its result.
		if e := c.entry.Load(); e != nil && !e.Stale(c.clock.Now(), ttl) {
			return e, nil
		}
		return c.refresh(loadCtx, ttl)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.DebugContext(ctx, "joined in-flight load")
		}
		return res.Val.(*Entry), nil
	}
}

func (c *Cache) refresh(ctx context.Context, ttl time.Duration) (*Entry, error) {
	start := time.Now()
	c.loads.Add(1)

	table, err := c.load(ctx)
	elapsed := time.Since(start)
	if c.metrics != nil {
		c.metrics.RecordLoad(ctx, c.key.Source, elapsed, table.Len(), err)
	}
	if err != nil {
		c.failures.Add(1)
		c.logger.WarnContext(ctx, "snapshot load failed, keeping previous entry",
			slog.String("error", err.Error()),
			slog.Bool("has_previous", c.entry.Load() != nil),
			slog.Duration("duration", elapsed))
		return nil, err
	}

	e := &Entry{Table: table, FetchedAt: c.clock.Now(), TTL: ttl}
	c.entry.Store(e)

	c.logger.InfoContext(ctx, "snapshot loaded",
		slog.Int("rows", table.Len()),
		slog.Duration("duration", elapsed))
	return e, nil
}

// Peek returns the stored entry without loading. It may be nil or stale.
func (c *Cache) Peek() *Entry {
	return c.entry.Load()
}

// Invalidate discards the stored entry.
func (c *Cache) Invalidate() {
	c.entry.Store(nil)
	c.logger.Debug("cache invalidated")
}

// State reports the state at the current clock time.
func (c *Cache) State() State {
	e := c.entry.Load()
	switch {
	case e == nil:
		return StateEmpty
	case e.Stale(c.clock.Now(), c.ttl):
		return StateStale
	default:
		return StateFresh
	}
}

// Stats returns the cumulative counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Loads:    c.loads.Load(),
		Failures: c.failures.Load(),
	}
}
