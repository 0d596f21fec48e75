package bridgeAuth

import (
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/bridgeAuth/jwt"
	"github.com/MrEthical07/bridgeAuth/session"
)

// Config is the engine configuration. Start from DefaultConfig and override fields.
type Config struct {
	Token    TokenConfig
	Session  SessionConfig
	Password PasswordConfig
	TOTP     TOTPConfig
	Security SecurityConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig configures access and step-up tokens and the proof claim.
type TokenConfig struct {
	// AccessSecret is the single HMAC secret shared by both platforms' verifiers.
	AccessSecret string
	AccessTTL    time.Duration
	StepUpTTL    time.Duration
	Issuer       string
	Leeway       time.Duration

	// SharedPair is sealed into every access token as the "p" claim.
	SharedPair SharedPair

	// EncryptionKey and EncryptionSalt derive the proof cipher key when no Encrypter
	// is injected through the Builder.
	EncryptionKey  string
	EncryptionSalt string
}

// SharedPair holds the two platforms' shared secrets.
type SharedPair struct {
	Primary   string
	Secondary string
}

func (p SharedPair) String() string {
	return p.Primary + ":" + p.Secondary
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig configures the Redis session store built when no session store is
// injected.
type SessionConfig struct {
	RedisPrefix string
	TTL         time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds the registration length policy and Argon2id cost.
type PasswordConfig struct {
	MinLength   int
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

/*
====================================
TOTP CONFIG
====================================
*/

// TOTPConfig configures the default TOTP verifier.
type TOTPConfig struct {
	Issuer    string
	Digits    int
	Period    int
	Algorithm string
	Skew      int
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig holds deployment-mode switches and the login throttle.
type SecurityConfig struct {
	ProductionMode bool
	// DevBypass lets the Required gate pass every request without a token, acting as
	// a placeholder admin. It is refused when ProductionMode is set.
	DevBypass bool

	EnableLoginThrottle   bool
	EnableIPThrottle      bool
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig configures the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig enables in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns a Config with every default applied. AccessSecret,
// SharedPair and EncryptionKey are left empty and must be supplied.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL: jwt.DefaultAccessTTL,
			StepUpTTL: jwt.DefaultStepUpTTL,
		},
		Session: SessionConfig{
			RedisPrefix: "bs",
			TTL:         session.DefaultTTL,
		},
		Password: PasswordConfig{
			MinLength:   8,
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		TOTP: TOTPConfig{
			Issuer:    "bridgeAuth",
			Digits:    6,
			Period:    30,
			Algorithm: "SHA1",
			Skew:      1,
		},
		Security: SecurityConfig{
			EnableLoginThrottle:   false,
			EnableIPThrottle:      true,
			MaxLoginAttempts:      5,
			LoginCooldownDuration: 15 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// TokensEnabled reports whether an access secret is configured.
func (c *Config) TokensEnabled() bool {
	return strings.TrimSpace(c.Token.AccessSecret) != ""
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks the configuration for contradictions. It does not check
// collaborators; Build does that.
func (c *Config) Validate() error {
	if c.Security.DevBypass && c.Security.ProductionMode {
		return errors.New("DevBypass is not allowed in ProductionMode")
	}
	if !c.TokensEnabled() && !c.Security.DevBypass {
		return errors.New("Token.AccessSecret is required")
	}

	if c.TokensEnabled() {
		if c.Security.ProductionMode && len(c.Token.AccessSecret) < 32 {
			return errors.New("Token.AccessSecret must be at least 32 bytes in ProductionMode")
		}
		if c.Token.AccessTTL <= 0 {
			return errors.New("Token.AccessTTL must be > 0")
		}
		if c.Token.StepUpTTL <= 0 || c.Token.StepUpTTL > time.Hour {
			return errors.New("Token.StepUpTTL must be > 0 and <= 1h")
		}
		if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
			return errors.New("Token.Leeway must be between 0 and 2m")
		}
		if c.Token.SharedPair.Primary == "" || c.Token.SharedPair.Secondary == "" {
			return errors.New("Token.SharedPair requires both secrets")
		}
	}

	if c.Session.TTL <= 0 {
		return errors.New("Session.TTL must be > 0")
	}
	if c.Password.MinLength < 1 {
		return errors.New("Password.MinLength must be >= 1")
	}

	if c.Security.EnableLoginThrottle {
		if c.Security.MaxLoginAttempts <= 0 {
			return errors.New("Security.MaxLoginAttempts must be > 0")
		}
		if c.Security.LoginCooldownDuration <= 0 {
			return errors.New("Security.LoginCooldownDuration must be > 0")
		}
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit.BufferSize must be > 0")
	}

	return nil
}
