// Package cache implements the client-side read-through TTL cache the
// explore and library surfaces sit on. Entries are JSON envelopes carrying a
// write timestamp; the logical TTL is supplied by the caller at read time,
// so one stored value can serve surfaces with different freshness needs.
//
// The backing medium is shared and externally writable, so a corrupted
// payload is never an error: it reads as a miss and the entry is dropped.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"sofilmy/internal/metrics"
)

const defaultRetention = 24 * time.Hour

// Store is the persistent key-value medium underneath the cache.
// ttl is the physical retention hint; logical expiry is enforced by Cache.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type envelope struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"` // unix milliseconds
}

type Cache struct {
	store     Store
	retention time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Cache)

func WithRetention(retention time.Duration) Option {
	return func(c *Cache) {
		if retention > 0 {
			c.retention = retention
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

func New(store Store, opts ...Option) *Cache {
	c := &Cache{
		store:     store,
		retention: defaultRetention,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get reads key into dest and reports whether a fresh value was found.
// Misses: absent key, store error, corrupted envelope, maxAge <= 0, or
// age >= maxAge (the stale entry is removed). A negative age, written by a
// peer with a skewed clock, counts as fresh.
func (c *Cache) Get(ctx context.Context, key string, maxAge time.Duration, dest any) bool {
	purpose := keyPurpose(key)
	if maxAge <= 0 {
		metrics.CacheMissesTotal.WithLabelValues(purpose).Inc()
		return false
	}

	raw, found, err := c.store.Get(ctx, key)
	if err != nil || !found {
		if err != nil {
			c.logger.Debug("cache store read failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		metrics.CacheMissesTotal.WithLabelValues(purpose).Inc()
		return false
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Timestamp == 0 {
		// Corruption on a shared medium is a miss, never an error.
		_ = c.store.Delete(ctx, key)
		metrics.CacheMissesTotal.WithLabelValues(purpose).Inc()
		return false
	}

	age := c.now().Sub(time.UnixMilli(env.Timestamp))
	if age >= maxAge {
		_ = c.store.Delete(ctx, key)
		metrics.CacheMissesTotal.WithLabelValues(purpose).Inc()
		return false
	}

	if err := json.Unmarshal(env.Data, dest); err != nil {
		_ = c.store.Delete(ctx, key)
		metrics.CacheMissesTotal.WithLabelValues(purpose).Inc()
		return false
	}
	metrics.CacheHitsTotal.WithLabelValues(purpose).Inc()
	return true
}

// Set stores value under key, overwriting any prior entry.
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	env := envelope{Data: data, Timestamp: c.now().UnixMilli()}
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, key, payload, c.retention)
}

// Invalidate removes an entry unconditionally. Called after mutations that
// change the cached set (watchlist edits, follow/unfollow).
func (c *Cache) Invalidate(ctx context.Context, key string) {
	if err := c.store.Delete(ctx, key); err != nil {
		c.logger.Debug("cache invalidate failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// keyPurpose extracts the "<purpose>" prefix of a "<purpose>-<discriminator>"
// key for metric labels, keeping cardinality bounded.
func keyPurpose(key string) string {
	if i := strings.IndexByte(key, '-'); i > 0 {
		return key[:i]
	}
	return "other"
}
