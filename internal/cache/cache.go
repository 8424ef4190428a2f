// Package cache stores every live lookup outcome for a rolling TTL.
package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/polycheck/internal/model"
	"github.com/sells-group/polycheck/internal/names"
	"github.com/sells-group/polycheck/internal/store"
)

// DefaultTTL is the default lifetime of a cached result.
const DefaultTTL = 30 * 24 * time.Hour

// Cache wraps a store namespace with TTL semantics. Expired entries read
// as absent and are left in place until overwritten.
type Cache struct {
	store store.Store
	ttl   time.Duration
	now   func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a Cache over s. A non-positive ttl uses DefaultTTL.
func New(s store.Store, ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{store: s, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the configured lifetime.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get returns the cached result for name if it is still within the TTL.
func (c *Cache) Get(ctx context.Context, name string) (model.BiographicalResult, bool) {
	key := names.Normalize(name)
	if key == "" {
		return model.BiographicalResult{}, false
	}
	entry, err := store.GetJSON[model.CacheEntry](ctx, c.store, store.NamespaceCache, key)
	if err != nil {
		zap.L().Warn("cache: read failed, treating as miss",
			zap.String("name", name), zap.Error(err))
		return model.BiographicalResult{}, false
	}
	if entry == nil || entry.Expired(c.now(), c.ttl) {
		return model.BiographicalResult{}, false
	}
	return entry.Result.WithSource(model.SourceCache), true
}

// Set overwrites the entry for name with res stamped at the current time.
// It reports whether the write succeeded.
func (c *Cache) Set(ctx context.Context, name string, res model.BiographicalResult) bool {
	key := names.Normalize(name)
	if key == "" {
		return false
	}
	entry := model.CacheEntry{Result: res, CachedAt: c.now().UTC()}
	if err := store.PutJSON(ctx, c.store, store.NamespaceCache, key, entry); err != nil {
		zap.L().Warn("cache: write failed",
			zap.String("name", name), zap.Error(err))
		return false
	}
	return true
}

// FreshKeys returns the normalized keys of all unexpired entries.
func (c *Cache) FreshKeys(ctx context.Context) map[string]bool {
	entries, err := store.ListJSON[model.CacheEntry](ctx, c.store, store.NamespaceCache)
	if err != nil {
		zap.L().Warn("cache: list failed", zap.Error(err))
		return map[string]bool{}
	}
	now := c.now()
	out := make(map[string]bool, len(entries))
	for k, e := range entries {
		if !e.Expired(now, c.ttl) {
			out[k] = true
		}
	}
	return out
}
