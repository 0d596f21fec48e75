// Package config loads the bridgeauth-server settings from BRIDGEAUTH_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/bridgeAuth"
	"github.com/caarlos0/env/v11"
)

// Config is the server process configuration.
type Config struct {
	Addr            string        `env:"BRIDGEAUTH_ADDR"             envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"BRIDGEAUTH_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	LogLevel        string        `env:"BRIDGEAUTH_LOG_LEVEL"        envDefault:"info"`
	TrustProxy      bool          `env:"BRIDGEAUTH_TRUST_PROXY"`
	MaxBodyBytes    int64         `env:"BRIDGEAUTH_MAX_BODY_BYTES"   envDefault:"1048576"`
	Registration    bool          `env:"BRIDGEAUTH_REGISTRATION"     envDefault:"true"`

	RedisAddr     string `env:"BRIDGEAUTH_REDIS_ADDR"     envDefault:"127.0.0.1:6379"`
	RedisPassword string `env:"BRIDGEAUTH_REDIS_PASSWORD"`
	RedisDB       int    `env:"BRIDGEAUTH_REDIS_DB"`
	RedisPrefix   string `env:"BRIDGEAUTH_REDIS_PREFIX"   envDefault:"bs"`

	PrimaryDSN    string `env:"BRIDGEAUTH_PRIMARY_DSN"`
	SecondaryPath string `env:"BRIDGEAUTH_SECONDARY_PATH" envDefault:"bridgeauth.db"`

	AccessSecret    string `env:"BRIDGEAUTH_ACCESS_SECRET"`
	PrimarySecret   string `env:"BRIDGEAUTH_PRIMARY_SECRET"`
	SecondarySecret string `env:"BRIDGEAUTH_SECONDARY_SECRET"`
	EncryptionKey   string `env:"BRIDGEAUTH_ENCRYPTION_KEY"`
	EncryptionSalt  string `env:"BRIDGEAUTH_ENCRYPTION_SALT" envDefault:"bridgeauth"`
	Issuer          string `env:"BRIDGEAUTH_ISSUER"`

	ProductionMode bool `env:"BRIDGEAUTH_PRODUCTION"`
	DevBypass      bool `env:"BRIDGEAUTH_DEV_BYPASS"`

	LoginThrottle    bool          `env:"BRIDGEAUTH_LOGIN_THROTTLE"     envDefault:"true"`
	MaxLoginAttempts int           `env:"BRIDGEAUTH_MAX_LOGIN_ATTEMPTS" envDefault:"5"`
	LoginCooldown    time.Duration `env:"BRIDGEAUTH_LOGIN_COOLDOWN"     envDefault:"15m"`

	AuditLog bool `env:"BRIDGEAUTH_AUDIT_LOG" envDefault:"true"`
}

// Load parses the environment and checks the fields the process cannot start
// without.
func Load() (Config, error) {
	cfg, err := Parse()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse reads the environment without validating it. Tools that only touch the
// stores use it and check the settings they need themselves.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate reports missing or contradictory settings.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("BRIDGEAUTH_ADDR is required")
	}
	if strings.TrimSpace(c.PrimaryDSN) == "" {
		return errors.New("BRIDGEAUTH_PRIMARY_DSN is required")
	}
	if strings.TrimSpace(c.SecondaryPath) == "" {
		return errors.New("BRIDGEAUTH_SECONDARY_PATH is required")
	}
	if c.DevBypass && c.ProductionMode {
		return errors.New("BRIDGEAUTH_DEV_BYPASS cannot be combined with BRIDGEAUTH_PRODUCTION")
	}
	if c.AccessSecret == "" && !c.DevBypass {
		return errors.New("BRIDGEAUTH_ACCESS_SECRET is required")
	}
	if c.AccessSecret != "" && c.EncryptionKey == "" {
		return errors.New("BRIDGEAUTH_ENCRYPTION_KEY is required with an access secret")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("BRIDGEAUTH_SHUTDOWN_TIMEOUT must be > 0")
	}
	return nil
}

// Engine maps the process settings onto an engine Config built from the defaults.
func (c Config) Engine() bridgeAuth.Config {
	cfg := bridgeAuth.DefaultConfig()

	cfg.Token.AccessSecret = c.AccessSecret
	cfg.Token.Issuer = c.Issuer
	cfg.Token.SharedPair = bridgeAuth.SharedPair{Primary: c.PrimarySecret, Secondary: c.SecondarySecret}
	cfg.Token.EncryptionKey = c.EncryptionKey
	cfg.Token.EncryptionSalt = c.EncryptionSalt

	cfg.Session.RedisPrefix = c.RedisPrefix

	cfg.Security.ProductionMode = c.ProductionMode
	cfg.Security.DevBypass = c.DevBypass
	cfg.Security.EnableLoginThrottle = c.LoginThrottle
	cfg.Security.MaxLoginAttempts = c.MaxLoginAttempts
	cfg.Security.LoginCooldownDuration = c.LoginCooldown

	cfg.Audit.Enabled = c.AuditLog
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	return cfg
}
