package config

import (
	"time"

	"github.com/spf13/viper"
)

// RateLimitConfig configures the Redis token bucket applied to hold and
// sale endpoints.
type RateLimitConfig struct {
	Enabled        bool          // RATE_LIMIT_ENABLED
	Capacity       int           // RATE_LIMIT_CAPACITY, bucket size
	RefillTokens   int           // RATE_LIMIT_REFILL_TOKENS per interval
	RefillInterval time.Duration // RATE_LIMIT_REFILL_INTERVAL
	TTL            time.Duration // RATE_LIMIT_TTL, idle bucket expiry
	KeyStrategy    string        // RATE_LIMIT_KEY_STRATEGY (ip, user, route or a combination)
	Prefix         string        // RATE_LIMIT_PREFIX
}

// LoadRateLimitConfig reads the rate limit settings from v, clamping
// nonsensical values.
func LoadRateLimitConfig(v *viper.Viper) RateLimitConfig {
	v.SetDefault("rate_limit_enabled", true)
	v.SetDefault("rate_limit_capacity", 20)
	v.SetDefault("rate_limit_refill_tokens", 1)
	v.SetDefault("rate_limit_refill_interval", 3*time.Second)
	v.SetDefault("rate_limit_ttl", 10*time.Minute)
	v.SetDefault("rate_limit_key_strategy", "ip_user_route")
	v.SetDefault("rate_limit_prefix", "rl")

	c := RateLimitConfig{
		Enabled:        v.GetBool("rate_limit_enabled"),
		Capacity:       v.GetInt("rate_limit_capacity"),
		RefillTokens:   v.GetInt("rate_limit_refill_tokens"),
		RefillInterval: v.GetDuration("rate_limit_refill_interval"),
		TTL:            v.GetDuration("rate_limit_ttl"),
		KeyStrategy:    v.GetString("rate_limit_key_strategy"),
		Prefix:         v.GetString("rate_limit_prefix"),
	}
	if c.Capacity < 1 {
		c.Capacity = 1
	}
	if c.RefillTokens < 1 {
		c.RefillTokens = 1
	}
	switch {
	case c.RefillInterval <= 0:
		c.RefillInterval = time.Second
	case c.RefillInterval < time.Millisecond:
		// the bucket script counts whole milliseconds
		c.RefillInterval = time.Millisecond
	}
	// keep the bucket alive long enough to refill completely
	if minTTL := 5 * c.RefillInterval; c.TTL < minTTL {
		c.TTL = minTTL
	}
	return c
}
