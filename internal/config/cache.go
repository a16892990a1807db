package config

import (
    "strings"
    "time"
)

// CacheConfig defines settings for the public response cache.  Only
// catalog style reads (plans, library directory) are cached; slot
// listings are served live because booked_seats changes per booking.
type CacheConfig struct {
    Enabled      bool
    TTL          time.Duration
    Prefix       string
    MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* variables.
func LoadCacheConfig() CacheConfig {
    c := CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", true),
        TTL:          envDur("CACHE_TTL", 30*time.Second),
        Prefix:       strings.TrimSuffix(envStr("CACHE_PREFIX", "cache"), ":"),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
    }
    if c.TTL <= 0 {
        c.TTL = 30 * time.Second
    }
    return c
}
