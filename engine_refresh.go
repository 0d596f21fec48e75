package bridgeAuth

import (
	"context"

	"github.com/MrEthical07/bridgeAuth/session"
)

// Refresh mints a new access token from a refresh token. The session is looked up,
// checked for expiry and left untouched; the refresh token is not rotated, so two
// concurrent refreshes with the same token both succeed.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	if e == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}
	if refreshToken == "" {
		return nil, ErrRefreshTokenMissing
	}

	rec, err := e.sessions.FindSession(ctx, session.Lookup{RefreshToken: refreshToken})
	if err != nil {
		return nil, e.internal(ctx, "session lookup failed", err)
	}
	if rec == nil || rec.Expired(e.now()) {
		return nil, e.refreshFailed(ctx, "")
	}

	user, err := e.secondaryUsers.GetUserByID(ctx, rec.UserID, Projection{Password: true})
	if err != nil {
		return nil, e.internal(ctx, "secondary user lookup failed", err)
	}
	if user == nil {
		return nil, e.refreshFailed(ctx, rec.UserID)
	}

	e.ensureMirroredBestEffort(ctx, user)

	token, err := e.mintAccess(user)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, user.ID, rec.ID, nil, nil)

	return &LoginResult{
		Token: token,
		User:  publicFromSecondary(user),
	}, nil
}

func (e *Engine) refreshFailed(ctx context.Context, userID string) error {
	e.metricInc(MetricRefreshFailure)
	e.emitAudit(ctx, auditEventRefreshInvalid, false, userID, "", ErrUnauthorized, nil)
	return ErrUnauthorized
}
