// Package config loads process configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/Shivanand-hulikatti/club-membership/internal/database"
)

// Store backends selectable with STORE.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config is the full server configuration.
type Config struct {
	Port     string `env:"PORT"      envDefault:"8080"`
	Store    string `env:"STORE"     envDefault:"memory"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	SeedDemo bool   `env:"SEED_DEMO" envDefault:"false"`

	// TxMaxAttempts bounds how often a conflicting transaction is re-run.
	// 1 disables retries.
	TxMaxAttempts uint `env:"TX_MAX_ATTEMPTS" envDefault:"5"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	DB   database.Config
	Auth Auth
}

// Auth configures bearer token verification. Exactly one of HMACSecret and
// Ed25519PublicKey must be set.
type Auth struct {
	Issuer   string `env:"AUTH_ISSUER"`
	Audience string `env:"AUTH_AUDIENCE"`
	// HMACSecret verifies HS256 tokens.
	HMACSecret string `env:"AUTH_HMAC_SECRET"`
	// Ed25519PublicKey is a base64-encoded public key for EdDSA tokens.
	Ed25519PublicKey string `env:"AUTH_ED25519_PUBLIC_KEY"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints env tags cannot express.
func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory, StorePostgres:
	default:
		return fmt.Errorf("STORE must be %q or %q, got %q", StoreMemory, StorePostgres, c.Store)
	}
	if c.TxMaxAttempts == 0 {
		return fmt.Errorf("TX_MAX_ATTEMPTS must be at least 1")
	}
	if (c.Auth.HMACSecret == "") == (c.Auth.Ed25519PublicKey == "") {
		return fmt.Errorf("exactly one of AUTH_HMAC_SECRET and AUTH_ED25519_PUBLIC_KEY must be set")
	}
	return nil
}
