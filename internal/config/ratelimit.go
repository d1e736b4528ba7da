package config

import "time"

// RateLimitConfig controls the Redis-backed limiter applied to the
// command endpoints (override and extend).  The limiter exists to keep
// a misbehaving dashboard from hammering the hardware relay; the query
// and stream surfaces are not limited.
type RateLimitConfig struct {
	Enabled bool          // master switch
	Limit   int           // requests allowed per window, per client+route
	Window  time.Duration // fixed window length
	Prefix  string        // Redis key prefix
}

// LoadRateLimitConfig reads the limiter settings from the environment,
// clamping nonsense values back to safe defaults.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled: envBool("RATE_LIMIT_ENABLED", true),
		Limit:   envInt("RATE_LIMIT_LIMIT", 30),
		Window:  envDur("RATE_LIMIT_WINDOW", time.Minute),
		Prefix:  envStr("RATE_LIMIT_PREFIX", "rl"),
	}
	if cfg.Limit < 1 {
		cfg.Limit = 1
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return cfg
}
