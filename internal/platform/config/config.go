// Package config builds process configuration from the environment so main
// stays lean.
package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config captures everything cmd/server needs to wire the process.
type Config struct {
	Addr          string
	DatabaseURL   string
	JWTSigningKey string
	Redis         RedisConfig
	SMTP          SMTPConfig

	// OTPTTL bounds how long a verification code stays valid. Expiry is
	// always enforced by timestamp comparison at consume time; store-side
	// cleanup is best effort.
	OTPTTL time.Duration

	// SessionTTL bounds session token validity. Rotating the signing key
	// invalidates all outstanding tokens; there is no revocation list.
	SessionTTL time.Duration
}

// RedisConfig configures the optional Redis-backed OTP store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// SMTPConfig configures the outbound mail notifier. When Host is empty the
// server falls back to the log notifier.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// FromEnv builds a Config from environment variables.
//
// JWT_SIGNING_KEY is required: the process refuses to start without an
// explicit secret rather than minting tokens against a baked-in default.
func FromEnv() (Config, error) {
	key := os.Getenv("JWT_SIGNING_KEY")
	if key == "" {
		return Config{}, errors.New("JWT_SIGNING_KEY must be set")
	}

	addr := os.Getenv("COLLEGENET_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	return Config{
		Addr:          addr,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSigningKey: key,
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     envInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("SMTP_FROM"),
		},
		OTPTTL:     10 * time.Minute,
		SessionTTL: 7 * 24 * time.Hour,
	}, nil
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
