package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/dunskii/booking-waitlist/internal/config"
)

// tokenBucketScript refills and consumes from a per-key bucket in a
// single atomic step.  KEYS[1] is the bucket key; ARGV are capacity,
// refill amount, refill interval ms, now ms and TTL seconds.  Returns
// {allowed, remaining, retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
local key      = KEYS[1]
local capacity = tonumber(ARGV[1])
local refill   = tonumber(ARGV[2])
local interval = tonumber(ARGV[3])
local now      = tonumber(ARGV[4])
local ttl      = tonumber(ARGV[5])

local data = redis.call('HMGET', key, 'tokens', 'ts')
local tokens = tonumber(data[1])
local ts     = tonumber(data[2])
if tokens == nil then
  tokens = capacity
  ts = now
end

local elapsed = now - ts
if elapsed >= interval then
  local ticks = math.floor(elapsed / interval)
  tokens = math.min(capacity, tokens + ticks * refill)
  ts = ts + ticks * interval
end

local allowed = 0
local retry = 0
if tokens > 0 then
  allowed = 1
  tokens = tokens - 1
else
  retry = interval - (now - ts)
  if retry < 0 then retry = 0 end
end

redis.call('HMSET', key, 'tokens', tokens, 'ts', ts)
redis.call('EXPIRE', key, ttl)
return {allowed, tokens, retry}
`)

// RateLimit returns a token-bucket rate limiter backed by Redis,
// keyed by client IP and route.  When disabled or when rdb is nil the
// middleware passes every request through.  Redis errors fail open so
// an unavailable Redis never blocks traffic.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Enabled || rdb == nil {
				return next(c)
			}

			key := fmt.Sprintf("%s:%s:%s", cfg.Prefix, c.RealIP(), c.Path())
			now := time.Now().UnixMilli()

			ctx, cancel := context.WithTimeout(c.Request().Context(), 500*time.Millisecond)
			defer cancel()

			res, err := tokenBucketScript.Run(ctx, rdb, []string{key},
				cfg.Capacity,
				cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(),
				now,
				int(cfg.TTL.Seconds()),
			).Int64Slice()
			if err != nil || len(res) != 3 {
				log.Printf("[RATELIMIT] script error, failing open: %v", err)
				return next(c)
			}

			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res[1], 10))

			if res[0] != 1 {
				retryAfter := (res[2] + 999) / 1000
				if retryAfter < 1 {
					retryAfter = 1
				}
				c.Response().Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
				return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "too many requests"})
			}
			return next(c)
		}
	}
}
