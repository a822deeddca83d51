package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Counter is the part of a Redis client the limiter uses. *redis.Client
// satisfies it.
type Counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RateLimiter counts requests per key in fixed Redis windows.
type RateLimiter struct {
	redis  Counter
	prefix string
	limit  int
	window time.Duration
	log    *zap.Logger
}

// NewRateLimiter creates a RateLimiter allowing limit requests per window.
func NewRateLimiter(r Counter, prefix string, limit int, window time.Duration, log *zap.Logger) *RateLimiter {
	return &RateLimiter{redis: r, prefix: prefix, limit: limit, window: window, log: log}
}

// ByIP limits requests per client IP.
func (r *RateLimiter) ByIP() fiber.Handler {
	return r.ByKey(func(c *fiber.Ctx) string { return c.IP() })
}

// ByKey limits requests per route and keyFunc(c). Requests are counted against
// the route pattern, so /reset-password/:token shares one window across every
// token tried. When Redis is unreachable the request is let through and the
// failure logged.
func (r *RateLimiter) ByKey(keyFunc func(c *fiber.Ctx) string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		key := fmt.Sprintf("%s:%s %s:%s", r.prefix, c.Method(), c.Route().Path, keyFunc(c))

		count, err := r.redis.Incr(ctx, key).Result()
		if err != nil {
			r.log.Warn("rate limiter unavailable", zap.Error(err))
			return c.Next()
		}
		if count == 1 {
			if err := r.redis.Expire(ctx, key, r.window).Err(); err != nil {
				r.log.Warn("rate limiter expire failed", zap.String("key", key), zap.Error(err))
			}
		}
		if count > int64(r.limit) {
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many requests, try again later")
		}
		return c.Next()
	}
}
