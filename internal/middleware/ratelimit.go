package middleware

import (
    "math"
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/astrivya/backend/internal/config"
)

// NewFixedWindow returns a fixed-window rate limiter keyed by client IP.
// The first request in a window creates the counter with the window TTL;
// each request increments it; counts above the limit are rejected until the
// window expires. Counting happens in a single Lua script so concurrent
// requests from one IP cannot race the INCR/EXPIRE pair. When Redis is
// unavailable the limiter fails open and lets requests through.
func NewFixedWindow(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return func(c echo.Context) error { return next(c) } }
    }

    limiterScript := redis.NewScript(`
        local key = KEYS[1]
        local window_ms = tonumber(ARGV[1])

        local count = redis.call('INCR', key)
        if count == 1 then
            redis.call('PEXPIRE', key, window_ms)
        end

        local ttl_ms = redis.call('PTTL', key)
        if ttl_ms < 0 then
            redis.call('PEXPIRE', key, window_ms)
            ttl_ms = window_ms
        end

        return { count, ttl_ms }
    `)

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := buildRateKey(cfg, c)

            ctx := c.Request().Context()
            vals, err := limiterScript.Run(ctx, rdb, []string{key}, cfg.Window.Milliseconds()).Result()
            if err != nil {
                if cfg.Debug {
                    c.Logger().Warnf("[ratelimit] redis error for key=%s: %v", key, err)
                }
                return next(c)
            }

            count := int64(0)
            ttlMs := int64(0)
            if arr, ok := vals.([]interface{}); ok && len(arr) == 2 {
                count = asInt64(arr[0])
                ttlMs = asInt64(arr[1])
            } else {
                if cfg.Debug {
                    c.Logger().Warnf("[ratelimit] unexpected script result for key=%s: %#v", key, vals)
                }
                return next(c)
            }

            remaining := int64(cfg.Max) - count
            if remaining < 0 {
                remaining = 0
            }
            c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Max))
            c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

            if count > int64(cfg.Max) {
                secs := int(math.Ceil(float64(ttlMs) / 1000.0))
                if secs < 0 {
                    secs = 0
                }
                c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
                if cfg.Debug {
                    c.Logger().Infof("[ratelimit] block key=%s count=%d retry=%dms", key, count, ttlMs)
                }
                return c.JSON(http.StatusTooManyRequests, echo.Map{
                    "error": "Too many requests from this IP, please try again later.",
                    "code":  "RATE_LIMIT_EXCEEDED",
                })
            }

            if cfg.Debug {
                c.Response().Header().Set("X-RateLimit-Key", key)
            }
            return next(c)
        }
    }
}

func asInt64(v interface{}) int64 {
    switch t := v.(type) {
    case int64:
        return t
    case int32:
        return int64(t)
    case int:
        return int64(t)
    case float64:
        return int64(t)
    case float32:
        return int64(t)
    case string:
        if n, err := strconv.ParseInt(t, 10, 64); err == nil {
            return n
        }
    }
    return 0
}

func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    return strings.Join([]string{cfg.Prefix, "ip", ip}, ":")
}
