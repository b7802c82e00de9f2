// Package bundlecache memoizes composed recommendation bundles per user
// in a key-value store with a TTL.
package bundlecache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/campusworks/studyrank/internal/db"
	"github.com/campusworks/studyrank/internal/domain/resource"
)

// DefaultTTL bounds how long a composed bundle may be served before
// recomputation.
const DefaultTTL = 600 * time.Second

// store is the consumer interface for the bundle cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Cache implements usecase/recommend.BundleCache.
type Cache struct {
	store      store
	prefix     string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a bundle cache.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	s store,
	prefix string,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{store: s, prefix: prefix, ttl: ttl, cacheTotal: cacheTotal, logger: logger}
}

// Get returns a cached bundle. Any backend or decode failure reads as a
// miss so a broken cache degrades to always-recompute.
func (c *Cache) Get(ctx context.Context, user string) (resource.Bundle, bool) {
	key := c.recKey(user)

	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached bundle", zap.String("key", key), zap.Error(err))
		}
		c.incCache("miss")
		return resource.Bundle{}, false
	}

	var dto bundleDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		c.logger.Warn("Failed to parse cached bundle", zap.String("key", key), zap.Error(err))
		c.incCache("miss")
		return resource.Bundle{}, false
	}

	c.incCache("hit")
	return dto.toDomain(), true
}

// Set stores a bundle under the cache TTL. Failures are logged, never
// surfaced.
func (c *Cache) Set(ctx context.Context, user string, b resource.Bundle) {
	key := c.recKey(user)

	data, err := json.Marshal(fromDomain(b))
	if err != nil {
		c.logger.Warn("Failed to encode bundle", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache bundle", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate removes the user's cached bundle.
func (c *Cache) Invalidate(ctx context.Context, user string) {
	key := c.recKey(user)
	if err := c.store.Del(ctx, key); err != nil {
		c.logger.Warn("Failed to invalidate bundle", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *Cache) recKey(user string) string {
	return c.prefix + "rec:" + user
}
