package session

import "time"

// Config holds session settings.
type Config struct {
	CookieName      string        `env:"SESSION_COOKIE_NAME" envDefault:"jrmsu_sid"`
	IdleTimeout     time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"5m"`
	SecureCookies   bool          `env:"SESSION_SECURE_COOKIES" envDefault:"false"`
	RedisPrefix     string        `env:"SESSION_REDIS_PREFIX" envDefault:"session:"`
}

// DefaultConfig mirrors the envDefault tags.
func DefaultConfig() Config {
	return Config{
		CookieName:      "jrmsu_sid",
		IdleTimeout:     30 * time.Minute,
		CleanupInterval: 5 * time.Minute,
		RedisPrefix:     "session:",
	}
}
