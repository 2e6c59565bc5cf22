// Package cache holds the read-through lookup cache in front of the
// search and enrichment flow.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/mo"
	"go.uber.org/zap"

	"github.com/netcopilot/api/internal/model"
)

const (
	keyPrefix  = "lookup:"
	DefaultTTL = 24 * time.Hour
)

// LookupCache stores LookupResults under a digest of the normalized name.
// Backend errors never reach the caller: Get reports them as a miss and
// Put drops them.
type LookupCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewLookupCache(redisClient *redis.Client, ttl time.Duration, logger *zap.Logger) *LookupCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LookupCache{redis: redisClient, ttl: ttl, logger: logger}
}

// Key derives the cache key for a name pair. Case and surrounding
// whitespace are ignored; first and last are not interchangeable.
func Key(firstName, lastName string) string {
	payload, _ := json.Marshal(map[string]string{
		"first": strings.ToLower(strings.TrimSpace(firstName)),
		"last":  strings.ToLower(strings.TrimSpace(lastName)),
	})
	sum := sha256.Sum256(payload)
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Get returns the cached result, or None on a miss, an undecodable entry
// or an unreachable backend.
func (c *LookupCache) Get(ctx context.Context, firstName, lastName string) mo.Option[*model.LookupResult] {
	key := Key(firstName, lastName)

	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("lookup cache read failed, treating as miss", zap.String("key", key), zap.Error(err))
		}
		return mo.None[*model.LookupResult]()
	}

	var result model.LookupResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Warn("lookup cache entry undecodable, treating as miss", zap.String("key", key), zap.Error(err))
		return mo.None[*model.LookupResult]()
	}
	return mo.Some(&result)
}

// Put stores result for the TTL window. Failures are logged and dropped.
func (c *LookupCache) Put(ctx context.Context, firstName, lastName string, result *model.LookupResult) {
	if result == nil {
		return
	}
	key := Key(firstName, lastName)

	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Warn("lookup cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("lookup cache write failed", zap.String("key", key), zap.Error(err))
	}
}
