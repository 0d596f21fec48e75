package bridgeAuth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrEthical07/bridgeAuth/internal/rate"
)

// Engine is the authentication bridge. Build it with [Builder]; it is safe for
// concurrent use and holds no per-request state.
type Engine struct {
	config         Config
	logger         *slog.Logger
	signer         TokenSigner
	encrypter      Encrypter
	primaryUsers   PrimaryUserStore
	multiUserMode  MultiUserModeFlag
	apiKeys        PrimaryAPIKeyStore
	secondaryUsers SecondaryUserStore
	sessions       SecondarySessionStore
	hasher         PasswordHasher
	totp           TOTPVerifier
	rateLimiter    *rate.Limiter
	audit          *auditDispatcher
	metrics        *Metrics
	now            func() time.Time
}

// Close stops the audit dispatcher after draining it.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// DevBypass reports whether protected routes should skip authentication.
func (e *Engine) DevBypass() bool {
	return e != nil && e.config.Security.DevBypass
}

// ProductionMode reports whether cookies must be marked Secure.
func (e *Engine) ProductionMode() bool {
	return e != nil && e.config.Security.ProductionMode
}

// Logger returns the engine logger so HTTP adapters log through the same handler.
func (e *Engine) Logger() *slog.Logger {
	if e == nil || e.logger == nil {
		return discardLogger()
	}
	return e.logger
}

// IsMultiUserMode asks the primary platform whether it runs in multi-user mode.
func (e *Engine) IsMultiUserMode(ctx context.Context) (bool, error) {
	if e == nil || e.multiUserMode == nil {
		return false, ErrEngineNotReady
	}
	enabled, err := e.multiUserMode.IsMultiUserMode(ctx)
	if err != nil {
		return false, e.internal(ctx, "multi-user mode lookup failed", err)
	}
	return enabled, nil
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// completeLogin is the shared tail of Login and VerifyStepUp: mirror, session, token.
func (e *Engine) completeLogin(ctx context.Context, user *SecondaryUser) (*LoginResult, error) {
	e.ensureMirroredBestEffort(ctx, user)

	token, err := e.mintAccess(user)
	if err != nil {
		return nil, err
	}

	rec, refreshToken, err := e.sessions.CreateSession(ctx, user.ID)
	if err != nil {
		return nil, e.internal(ctx, "session creation failed", err)
	}
	e.metricInc(MetricSessionCreated)

	return &LoginResult{
		Token:        token,
		RefreshToken: refreshToken,
		Session:      rec,
		User:         publicFromSecondary(user),
	}, nil
}

// internal logs err and returns it wrapped in ErrInternal. The detail never reaches
// the client.
func (e *Engine) internal(ctx context.Context, msg string, err error) error {
	e.logger.ErrorContext(ctx, msg, slog.Any("error", err))
	return fmt.Errorf("%w: %v", ErrInternal, err)
}
