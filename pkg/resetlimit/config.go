package resetlimit

import (
	"fmt"
	"time"
)

// Config holds limiter settings.
type Config struct {
	MaxAttempts   int           `env:"RESET_MAX_ATTEMPTS" envDefault:"5"`
	BlockDuration time.Duration `env:"RESET_BLOCK_DURATION" envDefault:"5m"`
	RedisKey      string        `env:"RESET_REDIS_KEY" envDefault:"jrmsu_pw_admin_req"`
}

// DefaultConfig mirrors the envDefault tags.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:   5,
		BlockDuration: 5 * time.Minute,
		RedisKey:      "jrmsu_pw_admin_req",
	}
}

func (c Config) validate() error {
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("%w: max attempts must be positive, got %d", ErrInvalidConfig, c.MaxAttempts)
	}
	if c.BlockDuration <= 0 {
		return fmt.Errorf("%w: block duration must be positive, got %v", ErrInvalidConfig, c.BlockDuration)
	}
	return nil
}
