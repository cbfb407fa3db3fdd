package middleware

import (
	"context"
	"fmt"
	"os"
	"time"

	"zenith/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

// rateLimitBypassed reports whether throttling is off for the current environment.
// Local and test workflows are never throttled.
func rateLimitBypassed() bool {
	switch os.Getenv("APP_ENV") {
	case "", "test", "development":
		return true
	}
	return false
}

// CheckRateLimit checks if a resource has exceeded its rate limit.
// Returns true if allowed, false if limit exceeded.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	if rateLimitBypassed() {
		return true, nil
	}
	return checkRateLimit(ctx, rdb, resource, id, limit, window)
}

func checkRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	if rdb == nil {
		return false, fmt.Errorf("redis client is nil")
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		rdb.Expire(ctx, key, window)
	}
	return cnt <= int64(limit), nil
}

// RateLimit returns a Fiber middleware enforcing `limit` requests per `window`.
// It keys by the authenticated user (if the auth filter ran) otherwise by remote IP.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name ...string) fiber.Handler {
	return RateLimitWithPolicy(rdb, limit, window, FailOpen, name...)
}

// RateLimitWithPolicy returns a Fiber middleware enforcing `limit` requests per `window` with a specific failure policy.
func RateLimitWithPolicy(rdb *redis.Client, limit int, window time.Duration, policy FailPolicy, name ...string) fiber.Handler {
	return rateLimitHandler(rdb, limit, window, policy, CheckRateLimit, name...)
}

type rateChecker func(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error)

func rateLimitHandler(rdb *redis.Client, limit int, window time.Duration, policy FailPolicy, check rateChecker, name ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id string
		if uid, ok := c.UserContext().Value(UserIDKey).(uint); ok {
			id = fmt.Sprintf("user:%d", uid)
		} else {
			id = "ip:" + c.IP()
		}

		resource := c.Path()
		if len(name) > 0 {
			resource = name[0]
		}

		allowed, err := check(c.UserContext(), rdb, resource, id, limit, window)
		if err != nil {
			if policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit fail-closed",
					"resource", resource, "path", c.Path(), "error", err)
				return models.RespondWithError(c, fiber.StatusServiceUnavailable,
					&models.AppError{Code: "RATE_LIMIT_UNAVAILABLE", Message: "rate limit unavailable"})
			}
			return c.Next()
		}

		if !allowed {
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				&models.AppError{Code: "RATE_LIMITED", Message: "rate limit exceeded"})
		}
		return c.Next()
	}
}
