package bridgeAuth

import (
	"context"
	"errors"
	"strings"

	"github.com/MrEthical07/bridgeAuth/jwt"
)

// VerifyStepUp completes a login that stopped at the second factor. tempToken must be
// a step-up token from Login and code a current TOTP code for the same user. Every
// rejection (bad token, unknown user, no enrolled secret, wrong code) is the same
// ErrUnauthorized and leaves no session behind.
func (e *Engine) VerifyStepUp(ctx context.Context, tempToken, code string) (*LoginResult, error) {
	if e == nil || e.secondaryUsers == nil {
		return nil, ErrEngineNotReady
	}

	tempToken = strings.TrimSpace(tempToken)
	code = strings.TrimSpace(code)
	if tempToken == "" || code == "" {
		return nil, ErrValidation
	}
	if e.signer == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.signer.ParseStepUp(tempToken)
	if err != nil {
		if errors.Is(err, jwt.ErrNotStepUpToken) {
			e.logger.DebugContext(ctx, "access token presented as step-up token")
		}
		return nil, e.stepUpFailed(ctx, "")
	}

	user, err := e.secondaryUsers.GetUserByID(ctx, claims.UserID, Projection{Password: true, TOTPSecret: true})
	if err != nil {
		return nil, e.internal(ctx, "secondary user lookup failed", err)
	}
	if user == nil || user.TOTPSecret == "" {
		return nil, e.stepUpFailed(ctx, claims.UserID)
	}

	ok, err := e.totp.Verify(user.TOTPSecret, code)
	if err != nil || !ok {
		return nil, e.stepUpFailed(ctx, user.ID)
	}

	result, err := e.completeLogin(ctx, user)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricStepUpSuccess)
	e.emitAudit(ctx, auditEventStepUpSuccess, true, user.ID, result.Session.ID, nil, nil)

	return result, nil
}

func (e *Engine) stepUpFailed(ctx context.Context, userID string) error {
	e.metricInc(MetricStepUpFailure)
	e.emitAudit(ctx, auditEventStepUpFailure, false, userID, "", ErrUnauthorized, nil)
	return ErrUnauthorized
}
