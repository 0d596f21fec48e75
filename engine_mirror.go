package bridgeAuth

import (
	"context"
	"errors"
	"log/slog"
)

var errMirrorNotConfigured = errors.New("primary user store not configured")

// EnsureMirrored returns the primary-platform record for user, creating it from the
// secondary record when it does not exist yet. Email and role are copied verbatim;
// later edits on either side are not reconciled. The caller owns the error; the
// engine itself never fails a flow because mirroring failed.
func (e *Engine) EnsureMirrored(ctx context.Context, user *SecondaryUser) (*PrimaryUser, error) {
	if e == nil || e.primaryUsers == nil {
		return nil, errMirrorNotConfigured
	}
	if user == nil || user.Email == "" {
		return nil, ErrValidation
	}

	existing, err := e.primaryUsers.GetUser(ctx, user.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	created, err := e.primaryUsers.CreateUser(ctx, NewPrimaryUser{
		Email:    user.Email,
		Username: user.Username,
		Name:     user.Name,
		Role:     user.Role,
		Password: user.Password,
	})
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricMirrorCreated)
	e.emitAudit(ctx, auditEventMirrorCreated, true, user.ID, "", nil, nil)

	return created, nil
}

// ensureMirroredBestEffort logs and counts a mirror failure and carries on.
func (e *Engine) ensureMirroredBestEffort(ctx context.Context, user *SecondaryUser) *PrimaryUser {
	primary, err := e.EnsureMirrored(ctx, user)
	if err == nil {
		return primary
	}

	e.logger.WarnContext(ctx, "primary mirror reconciliation failed",
		slog.String("user_id", user.ID),
		slog.Any("error", err),
	)
	e.metricInc(MetricMirrorFailure)
	e.emitAudit(ctx, auditEventMirrorFailure, false, user.ID, "", ErrInternal, nil)
	return nil
}
