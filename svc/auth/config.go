package auth

import "time"

// Config is loaded from AUTH_* and TOTP_* variables.
type Config struct {
	LocalWindow   int           `env:"AUTH_LOCAL_WINDOW" envDefault:"5"`
	RemoteWindow  int           `env:"AUTH_REMOTE_WINDOW" envDefault:"2"`
	StoreTimeout  time.Duration `env:"AUTH_STORE_TIMEOUT" envDefault:"5s"`
	AttemptTTL    time.Duration `env:"AUTH_ATTEMPT_TTL" envDefault:"10m"`
	RemoteTimeout time.Duration `env:"AUTH_REMOTE_TIMEOUT" envDefault:"5s"`
	Issuer        string        `env:"TOTP_ISSUER" envDefault:"JRMSU-LIBRARY"`
	RemoteURL     string        `env:"TOTP_REMOTE_URL"`
}

// DefaultConfig mirrors the envDefault values.
func DefaultConfig() Config {
	return Config{
		LocalWindow:   5,
		RemoteWindow:  2,
		StoreTimeout:  5 * time.Second,
		AttemptTTL:    10 * time.Minute,
		RemoteTimeout: 5 * time.Second,
		Issuer:        "JRMSU-LIBRARY",
	}
}
