// Package config fills env-tagged structs from the process environment,
// loading a .env file from the working directory first when one exists.
package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	ErrParsingConfig = errors.New("failed to parse environment variables into config")
	ErrLoadingEnv    = errors.New("failed to load env file")
)

var dotenvOnce sync.Once

// Load parses the environment into a new T.
//
//	type Config struct {
//		Addr string `env:"HTTP_ADDR" envDefault:":8080"`
//	}
//	cfg, err := config.Load[Config]()
func Load[T any]() (T, error) {
	dotenvOnce.Do(func() {
		// A missing .env is fine.
		_ = godotenv.Load()
	})

	var v T
	if err := env.Parse(&v); err != nil {
		return v, errors.Join(ErrParsingConfig, err)
	}
	return v, nil
}

// MustLoad is Load that panics on error.
func MustLoad[T any]() T {
	v, err := Load[T]()
	if err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
	return v
}

// LoadFiles loads the given env files into the process environment.
// Variables that are already set are not overridden.
func LoadFiles(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil {
		return errors.Join(ErrLoadingEnv, err)
	}
	return nil
}
