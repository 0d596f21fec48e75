package bridgeAuth

import (
	"errors"
	"log/slog"
	"time"

	"github.com/MrEthical07/bridgeAuth/encryption"
	"github.com/MrEthical07/bridgeAuth/internal/rate"
	"github.com/MrEthical07/bridgeAuth/jwt"
	"github.com/MrEthical07/bridgeAuth/password"
	"github.com/MrEthical07/bridgeAuth/session"
	"github.com/MrEthical07/bridgeAuth/totp"
	"github.com/redis/go-redis/v9"
)

// Builder collects configuration and collaborators and produces an [Engine]. Every
// dependency is injected here once; the engine never looks collaborators up later.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	logger *slog.Logger

	primaryUsers   PrimaryUserStore
	multiUserMode  MultiUserModeFlag
	apiKeys        PrimaryAPIKeyStore
	secondaryUsers SecondaryUserStore
	sessions       SecondarySessionStore
	hasher         PasswordHasher
	totp           TOTPVerifier
	encrypter      Encrypter
	auditSink      AuditSink

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis supplies the client used for the default session store and the login
// throttle.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithLogger sets the structured logger. The default discards everything.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

func (b *Builder) WithPrimaryUsers(store PrimaryUserStore) *Builder {
	b.primaryUsers = store
	return b
}

func (b *Builder) WithMultiUserMode(flag MultiUserModeFlag) *Builder {
	b.multiUserMode = flag
	return b
}

func (b *Builder) WithAPIKeys(store PrimaryAPIKeyStore) *Builder {
	b.apiKeys = store
	return b
}

func (b *Builder) WithSecondaryUsers(store SecondaryUserStore) *Builder {
	b.secondaryUsers = store
	return b
}

// WithSessions overrides the Redis session store built from WithRedis.
func (b *Builder) WithSessions(store SecondarySessionStore) *Builder {
	b.sessions = store
	return b
}

// WithPasswordHasher overrides the Argon2id hasher built from Config.Password.
func (b *Builder) WithPasswordHasher(h PasswordHasher) *Builder {
	b.hasher = h
	return b
}

// WithTOTPVerifier overrides the verifier built from Config.TOTP.
func (b *Builder) WithTOTPVerifier(v TOTPVerifier) *Builder {
	b.totp = v
	return b
}

// WithEncrypter overrides the AES-GCM cipher derived from Config.Token.EncryptionKey.
func (b *Builder) WithEncrypter(enc Encrypter) *Builder {
	b.encrypter = enc
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, resolves defaults for optional collaborators and
// returns a ready Engine. A Builder can be used once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.secondaryUsers == nil {
		return nil, errors.New("secondary user store required")
	}
	if b.primaryUsers == nil {
		return nil, errors.New("primary user store required")
	}
	if b.multiUserMode == nil {
		return nil, errors.New("multi-user mode flag required")
	}

	logger := b.logger
	if logger == nil {
		logger = discardLogger()
	}

	// -------- SESSION STORE --------
	sessions := b.sessions
	if sessions == nil {
		if b.redis == nil {
			return nil, errors.New("redis client or session store required")
		}
		sessions = session.NewStore(b.redis, cfg.Session.RedisPrefix, cfg.Session.TTL)
	}

	engine := &Engine{
		config:         cfg,
		logger:         logger,
		primaryUsers:   b.primaryUsers,
		multiUserMode:  b.multiUserMode,
		apiKeys:        b.apiKeys,
		secondaryUsers: b.secondaryUsers,
		sessions:       sessions,
		now:            time.Now,
	}

	// -------- TOKENS --------
	if cfg.TokensEnabled() {
		signer, err := jwt.NewManager(jwt.Config{
			Secret:    []byte(cfg.Token.AccessSecret),
			AccessTTL: cfg.Token.AccessTTL,
			StepUpTTL: cfg.Token.StepUpTTL,
			Issuer:    cfg.Token.Issuer,
			Leeway:    cfg.Token.Leeway,
		})
		if err != nil {
			return nil, err
		}
		engine.signer = signer

		enc := b.encrypter
		if enc == nil {
			if cfg.Token.EncryptionKey == "" {
				return nil, errors.New("Token.EncryptionKey or an Encrypter is required")
			}
			enc, err = encryption.New(cfg.Token.EncryptionKey, cfg.Token.EncryptionSalt)
			if err != nil {
				return nil, err
			}
		}
		engine.encrypter = enc
	}

	// -------- CREDENTIALS --------
	engine.hasher = b.hasher
	if engine.hasher == nil {
		ph, err := password.NewHasher(password.Config{
			Memory:      cfg.Password.Memory,
			Time:        cfg.Password.Time,
			Parallelism: cfg.Password.Parallelism,
			SaltLength:  cfg.Password.SaltLength,
			KeyLength:   cfg.Password.KeyLength,
		})
		if err != nil {
			return nil, err
		}
		engine.hasher = ph
	}

	engine.totp = b.totp
	if engine.totp == nil {
		tv, err := totp.New(totp.Config{
			Issuer:    cfg.TOTP.Issuer,
			Digits:    cfg.TOTP.Digits,
			Period:    cfg.TOTP.Period,
			Algorithm: cfg.TOTP.Algorithm,
			Skew:      cfg.TOTP.Skew,
		})
		if err != nil {
			return nil, err
		}
		engine.totp = tv
	}

	// -------- THROTTLE --------
	if cfg.Security.EnableLoginThrottle {
		if b.redis == nil {
			return nil, errors.New("login throttle requires redis client")
		}
		engine.rateLimiter = rate.New(b.redis, rate.Config{
			EnableIPThrottle:      cfg.Security.EnableIPThrottle,
			MaxLoginAttempts:      cfg.Security.MaxLoginAttempts,
			LoginCooldownDuration: cfg.Security.LoginCooldownDuration,
		})
	}

	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink, logger)
	engine.metrics = NewMetrics(cfg.Metrics)

	if cfg.Security.DevBypass {
		logger.Warn("development bypass enabled: protected routes accept unauthenticated requests",
			slog.Bool("tokens_enabled", cfg.TokensEnabled()))
	}

	b.built = true

	return engine, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
