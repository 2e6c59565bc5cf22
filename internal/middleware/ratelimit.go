package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/netcopilot/api/pkg/response"
)

type RateLimiter struct {
	redis  *redis.Client
	logger *zap.Logger
}

func NewRateLimiter(redisClient *redis.Client, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{redis: redisClient, logger: logger}
}

// Limit creates a fixed-window rate limiting middleware keyed by client IP
func (rl *RateLimiter) Limit(keyPrefix string, maxRequests int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if maxRequests <= 0 {
			return c.Next()
		}

		key := fmt.Sprintf("ratelimit:%s:%s", keyPrefix, c.IP())
		ctx := c.UserContext()

		count, err := rl.redis.Incr(ctx, key).Result()
		if err != nil {
			// Fail open
			rl.logger.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
			return c.Next()
		}

		if count == 1 {
			rl.redis.Expire(ctx, key, window)
		}

		if count > int64(maxRequests) {
			ttl, _ := rl.redis.TTL(ctx, key).Result()
			c.Set("Retry-After", fmt.Sprintf("%d", int(ttl.Seconds())))
			return response.RateLimited(c)
		}

		c.Set("X-RateLimit-Limit", fmt.Sprintf("%d", maxRequests))
		c.Set("X-RateLimit-Remaining", fmt.Sprintf("%d", maxRequests-int(count)))

		return c.Next()
	}
}

// LookupLimit limits the synchronous lookup endpoints per minute
func (rl *RateLimiter) LookupLimit(maxPerMin int) fiber.Handler {
	return rl.Limit("lookup", maxPerMin, time.Minute)
}

// CaptureLimit limits capture submissions per hour
func (rl *RateLimiter) CaptureLimit(maxPerHour int) fiber.Handler {
	return rl.Limit("capture", maxPerHour, time.Hour)
}
