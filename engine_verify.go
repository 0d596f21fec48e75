package bridgeAuth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/bridgeAuth/jwt"
)

// VerifyToken validates an access token and builds the caller's UnifiedUser.
//
// The token must carry a valid signature, be unexpired, not be a step-up token and
// carry a proof claim that opens to the configured shared pair. The user is then
// loaded from the secondary store and the primary mirror is attached when present.
// Every rejection is ErrTokenInvalid.
func (e *Engine) VerifyToken(ctx context.Context, token string) (*UnifiedUser, error) {
	if e == nil || e.secondaryUsers == nil {
		return nil, ErrEngineNotReady
	}
	if e.signer == nil {
		return nil, ErrEngineNotReady
	}

	start := time.Now()
	defer func() {
		if e.metrics != nil {
			e.metrics.Observe(MetricVerifyLatency, time.Since(start))
		}
	}()

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, e.tokenRejected()
	}

	claims, err := e.signer.ParseAccess(token)
	if err != nil {
		if errors.Is(err, jwt.ErrStepUpToken) {
			e.logger.DebugContext(ctx, "step-up token presented as access token")
		}
		return nil, e.tokenRejected()
	}
	if !e.validProof(claims.P) {
		return nil, e.tokenRejected()
	}

	secondary, err := e.secondaryUsers.GetUserByID(ctx, claims.UserID, Projection{})
	if err != nil {
		e.logger.WarnContext(ctx, "secondary user lookup failed during token verification", "error", err)
		return nil, e.tokenRejected()
	}
	if secondary == nil {
		return nil, e.tokenRejected()
	}

	user := &UnifiedUser{
		ID:               secondary.ID,
		Email:            secondary.Email,
		Name:             secondary.Name,
		Username:         secondary.Username,
		Role:             secondary.Role,
		Provider:         secondary.Provider,
		EmailVerified:    secondary.EmailVerified,
		TwoFactorEnabled: secondary.TwoFactorEnabled,
		Secondary:        secondary,
	}

	if e.primaryUsers != nil {
		primary, err := e.primaryUsers.GetUser(ctx, secondary.Email)
		if err != nil {
			e.logger.DebugContext(ctx, "primary mirror lookup failed", "error", err)
		} else {
			user.Primary = primary
		}
	}

	return user, nil
}

func (e *Engine) tokenRejected() error {
	e.metricInc(MetricTokenRejected)
	return ErrTokenInvalid
}
