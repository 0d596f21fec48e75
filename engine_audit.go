package bridgeAuth

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventLoginSuccess       = "login_success"
	auditEventLoginFailure       = "login_failure"
	auditEventLoginRateLimited   = "login_rate_limited"
	auditEventStepUpRequired     = "stepup_required"
	auditEventStepUpSuccess      = "stepup_success"
	auditEventStepUpFailure      = "stepup_failure"
	auditEventRefreshSuccess     = "refresh_success"
	auditEventRefreshInvalid     = "refresh_invalid"
	auditEventRegisterSuccess    = "register_success"
	auditEventRegisterFailure    = "register_failure"
	auditEventMirrorCreated      = "mirror_created"
	auditEventMirrorFailure      = "mirror_failure"
	auditEventLogoutSession      = "logout_session"
	auditEventAPIKeyRejected     = "api_key_rejected"
	auditEventRateLimitTriggered = "rate_limit_triggered"
)

// AuditErrorCode is the coarse failure reason recorded on audit events.
type AuditErrorCode string

const (
	auditErrValidation         AuditErrorCode = "validation"
	auditErrPasswordPolicy     AuditErrorCode = "password_policy"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrUnauthorized       AuditErrorCode = "unauthorized"
	auditErrInvalidToken       AuditErrorCode = "invalid_token"
	auditErrSuspended          AuditErrorCode = "suspended"
	auditErrForbidden          AuditErrorCode = "forbidden"
	auditErrDuplicate          AuditErrorCode = "duplicate"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		SessionID: sessionID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func (e *Engine) emitRateLimit(ctx context.Context, scope, identifier string) {
	e.metricInc(MetricRateLimitHit)
	e.emitAudit(ctx, auditEventRateLimitTriggered, false, "", "", nil, func() map[string]string {
		return map[string]string{
			"scope":      scope,
			"identifier": identifier,
		}
	})
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrValidation):
		return auditErrValidation
	case errors.Is(err, ErrPasswordPolicy):
		return auditErrPasswordPolicy
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrRefreshTokenMissing):
		return auditErrUnauthorized
	case errors.Is(err, ErrTokenInvalid), errors.Is(err, ErrAPIKeyInvalid):
		return auditErrInvalidToken
	case errors.Is(err, ErrUserSuspended):
		return auditErrSuspended
	case errors.Is(err, ErrForbidden),
		errors.Is(err, ErrMultiUserModeDisabled),
		errors.Is(err, ErrRegistrationDisabled):
		return auditErrForbidden
	case errors.Is(err, ErrConflict):
		return auditErrDuplicate
	case errors.Is(err, ErrLoginRateLimited):
		return auditErrRateLimited
	default:
		return auditErrInternal
	}
}
