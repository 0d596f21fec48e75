package bridgeAuth

import (
	"context"

	"github.com/MrEthical07/bridgeAuth/session"
)

// Logout deletes the session identified by refreshToken if it belongs to userID. It
// reports whether a session was removed. A missing or foreign token removes nothing
// and is not an error; only store failures are.
func (e *Engine) Logout(ctx context.Context, userID, refreshToken string) (bool, error) {
	if e == nil || e.sessions == nil {
		return false, ErrEngineNotReady
	}
	if refreshToken == "" {
		return false, nil
	}

	rec, err := e.sessions.FindSession(ctx, session.Lookup{UserID: userID, RefreshToken: refreshToken})
	if err != nil {
		return false, e.internal(ctx, "session lookup failed", err)
	}
	if rec == nil {
		return false, nil
	}

	deleted, err := e.sessions.DeleteSession(ctx, rec.ID)
	if err != nil {
		return false, e.internal(ctx, "session delete failed", err)
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogoutSession, true, rec.UserID, rec.ID, nil, nil)

	return deleted, nil
}
