package bridgeAuth

import (
	"context"
	"strings"
)

// ValidateAPIKey resolves secret against the primary platform's key table. Keys held
// by the secondary platform are never consulted.
func (e *Engine) ValidateAPIKey(ctx context.Context, secret string) (*APIKey, error) {
	if e == nil || e.apiKeys == nil {
		return nil, ErrEngineNotReady
	}

	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, e.apiKeyRejected(ctx)
	}

	key, err := e.apiKeys.GetAPIKey(ctx, secret)
	if err != nil {
		e.logger.WarnContext(ctx, "api key lookup failed", "error", err)
		return nil, e.apiKeyRejected(ctx)
	}
	if key == nil {
		return nil, e.apiKeyRejected(ctx)
	}
	return key, nil
}

func (e *Engine) apiKeyRejected(ctx context.Context) error {
	e.metricInc(MetricAPIKeyRejected)
	e.emitAudit(ctx, auditEventAPIKeyRejected, false, "", "", ErrAPIKeyInvalid, nil)
	return ErrAPIKeyInvalid
}
