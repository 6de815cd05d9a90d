// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const (
	EnvProduction = "production"

	devSecret = "roamly-dev-secret"
)

type Config struct {
	ServerPort string
	Env        string
	DBUrl      string
	Migrate    bool
	RedisURL   string
	JWTSecret  string
	TokenTTL   time.Duration
	BuildDir   string
	Log        LogConfig
}

type LogConfig struct {
	Format string
	Level  string
	File   string
}

func (c *Config) Production() bool {
	return c.Env == EnvProduction
}

var defaults = map[string]interface{}{
	"port":             "3000",
	"env":              "development",
	"database.url":     "postgres://localhost:5432/roamly",
	"database.migrate": true,
	"redis.url":        "redis://localhost:6379/0",
	"auth.secret":      devSecret,
	"auth.ttl":         "2h",
	"client.build_dir": "client/build",
	"log.format":       "",
	"log.level":        "info",
	"log.file":         "",
}

var envProvider = env.ProviderWithValue("", ".", func(s string, v string) (string, interface{}) {
	switch s {
	case "PORT":
		return "port", v
	case "NODE_ENV":
		return "env", v
	case "DATABASE_URL":
		return "database.url", v
	case "DATABASE_MIGRATE":
		return "database.migrate", v
	case "REDIS_URL":
		return "redis.url", v
	case "JWT_SECRET":
		return "auth.secret", v
	case "TOKEN_TTL":
		return "auth.ttl", v
	case "CLIENT_BUILD_DIR":
		return "client.build_dir", v
	case "LOG_FORMAT":
		return "log.format", v
	case "LOG_LEVEL":
		return "log.level", v
	case "LOG_FILE":
		return "log.file", v
	}

	return "", nil
})

// Load reads dotenv files (".env" when none are given) into the process
// environment, then layers the environment over the defaults. Missing dotenv
// files are not an error.
func Load(dotenvFiles ...string) (*Config, error) {
	if err := godotenv.Load(dotenvFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load dotenv: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	ttl, err := time.ParseDuration(k.String("auth.ttl"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL %q: %w", k.String("auth.ttl"), err)
	}

	cfg := &Config{
		ServerPort: k.String("port"),
		Env:        k.String("env"),
		DBUrl:      k.String("database.url"),
		Migrate:    k.Bool("database.migrate"),
		RedisURL:   k.String("redis.url"),
		JWTSecret:  k.String("auth.secret"),
		TokenTTL:   ttl,
		BuildDir:   k.String("client.build_dir"),
		Log: LogConfig{
			Format: k.String("log.format"),
			Level:  k.String("log.level"),
			File:   k.String("log.file"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ServerPort == "" {
		return errors.New("PORT cannot be empty")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.Production() && (c.JWTSecret == "" || c.JWTSecret == devSecret) {
		return errors.New("JWT_SECRET must be set in production")
	}
	return nil
}

// Addr is the listen address for ServerPort.
func (c *Config) Addr() string {
	return ":" + c.ServerPort
}
