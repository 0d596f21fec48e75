package bridgeAuth

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/MrEthical07/bridgeAuth/internal/rate"
)

// Login verifies email and password against the secondary store.
//
// Users with two-factor enabled get a TwoFAPending result carrying a short-lived step-up
// token and no session. Everyone else is mirrored into the primary store (best effort),
// given a refresh session and a 24h access token. An unknown email and a wrong
// password both yield ErrInvalidCredentials.
func (e *Engine) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if e == nil || e.secondaryUsers == nil {
		return nil, ErrEngineNotReady
	}

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrValidation
	}

	ip := clientIPFromContext(ctx)
	if err := e.checkLoginThrottle(ctx, email, ip); err != nil {
		return nil, err
	}

	user, err := e.secondaryUsers.FindUser(ctx, UserQuery{Email: email}, Projection{Password: true})
	if err != nil {
		return nil, e.internal(ctx, "secondary user lookup failed", err)
	}

	if user == nil || !e.passwordMatches(password, user.Password) {
		attempts := e.recordLoginFailure(ctx, email, ip)
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", "", ErrInvalidCredentials, func() map[string]string {
			if attempts == 0 {
				return nil
			}
			return map[string]string{"attempts": strconv.Itoa(attempts)}
		})
		return nil, ErrInvalidCredentials
	}

	e.resetLoginThrottle(ctx, email, ip)
	e.upgradePasswordHash(ctx, user.ID, password, user.Password)

	if user.TwoFactorEnabled {
		temp, err := e.mintStepUp(user.ID)
		if err != nil {
			return nil, err
		}
		e.metricInc(MetricStepUpRequired)
		e.emitAudit(ctx, auditEventStepUpRequired, true, user.ID, "", nil, nil)
		return &LoginResult{
			TwoFAPending: true,
			TempToken:    temp,
			User:         PublicUser{ID: user.ID, Email: user.Email},
		}, nil
	}

	result, err := e.completeLogin(ctx, user)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, user.ID, result.Session.ID, nil, nil)

	return result, nil
}

func (e *Engine) passwordMatches(password, hash string) bool {
	if hash == "" {
		return false
	}
	ok, err := e.hasher.Compare(password, hash)
	if err != nil {
		e.logger.Warn("stored password hash could not be compared", "error", err)
		return false
	}
	return ok
}

func (e *Engine) checkLoginThrottle(ctx context.Context, email, ip string) error {
	if e.rateLimiter == nil {
		return nil
	}
	err := e.rateLimiter.CheckLogin(ctx, email, ip)
	if err == nil {
		return nil
	}
	if errors.Is(err, rate.ErrRateLimited) {
		e.metricInc(MetricLoginRateLimited)
		e.emitAudit(ctx, auditEventLoginRateLimited, false, "", "", ErrLoginRateLimited, func() map[string]string {
			return map[string]string{"identifier": email}
		})
		e.emitRateLimit(ctx, "login", email)
		return ErrLoginRateLimited
	}
	return e.internal(ctx, "login throttle unavailable", err)
}

// upgradePasswordHash rewrites a stored hash the hasher considers outdated, such as a
// legacy bcrypt hash. Failures are logged and never fail the login.
func (e *Engine) upgradePasswordHash(ctx context.Context, userID, password, hash string) {
	rehasher, ok := e.hasher.(PasswordRehasher)
	if !ok || !rehasher.NeedsRehash(hash) {
		return
	}
	updater, ok := e.secondaryUsers.(SecondaryPasswordUpdater)
	if !ok {
		return
	}

	fresh, err := e.hasher.Hash(password)
	if err != nil {
		e.logger.WarnContext(ctx, "password rehash failed", "error", err)
		return
	}
	if err := updater.UpdatePassword(ctx, userID, fresh); err != nil {
		e.logger.WarnContext(ctx, "password hash upgrade failed", "error", err)
		return
	}
	e.logger.DebugContext(ctx, "password hash upgraded", "user_id", userID)
}

// recordLoginFailure bumps the throttle counters and returns the failure count for
// email, or zero when throttling is off or the count cannot be read.
func (e *Engine) recordLoginFailure(ctx context.Context, email, ip string) int {
	if e.rateLimiter == nil {
		return 0
	}
	if err := e.rateLimiter.IncrementLogin(ctx, email, ip); err != nil && !errors.Is(err, rate.ErrRateLimited) {
		e.logger.WarnContext(ctx, "login throttle increment failed", "error", err)
		return 0
	}
	attempts, err := e.rateLimiter.LoginAttempts(ctx, email)
	if err != nil {
		e.logger.WarnContext(ctx, "login attempt count unavailable", "error", err)
		return 0
	}
	return attempts
}

func (e *Engine) resetLoginThrottle(ctx context.Context, email, ip string) {
	if e.rateLimiter == nil {
		return
	}
	if err := e.rateLimiter.ResetLogin(ctx, email, ip); err != nil {
		e.logger.WarnContext(ctx, "login throttle reset failed", "error", err)
	}
}
