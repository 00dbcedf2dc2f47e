package config

import (
    "os"
    "strconv"
    "time"
)

// RateLimitConfig defines settings for the fixed-window rate limiter applied
// to the /api routes.  When Enabled is false or no Redis client is available
// the limiter becomes a no-op.  Max is the number of requests a single
// client IP may make within Window before receiving 429 responses.
type RateLimitConfig struct {
    Enabled bool
    Max     int           // requests allowed per window, per client IP
    Window  time.Duration // fixed window length
    Prefix  string        // Redis key namespace
    Debug   bool
}

// LoadRateLimitConfig reads environment variables to build a RateLimitConfig.
// Defaults match the production posture: 100 requests per 15 minutes per IP.
func LoadRateLimitConfig() RateLimitConfig {
    cfg := RateLimitConfig{
        Enabled: envBool("RATE_LIMIT_ENABLED", true),
        Max:     envInt("RATE_LIMIT_MAX", 100),
        Window:  envDur("RATE_LIMIT_WINDOW", 15*time.Minute),
        Prefix:  getenv("RATE_LIMIT_PREFIX", "rl"),
        Debug:   envBool("RATE_LIMIT_DEBUG", false),
    }
    if cfg.Max < 1 {
        cfg.Max = 1
    }
    if cfg.Window <= 0 {
        cfg.Window = 15 * time.Minute
    }
    return cfg
}

// Helper functions shared across the config files in this package.

func getenv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func envBool(k string, d bool) bool {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    switch v {
    case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
        return true
    case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
        return false
    }
    return d
}

func envInt(k string, d int) int {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    if n, err := strconv.Atoi(v); err == nil {
        return n
    }
    return d
}

func envDur(k string, d time.Duration) time.Duration {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    if dur, err := time.ParseDuration(v); err == nil {
        return dur
    }
    return d
}
