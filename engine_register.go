package bridgeAuth

import (
	"context"
	"strings"
)

// Register creates a secondary-platform account and mirrors it onto the primary
// platform. The first account ever registered becomes admin.
//
// Registration is only open while the primary platform runs in multi-user mode.
// A mirror failure after the secondary record exists is logged and ignored; the
// account is healed by EnsureMirrored on the next login or refresh.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	if e == nil || e.secondaryUsers == nil {
		return nil, ErrEngineNotReady
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return nil, ErrValidation
	}
	if len(req.Password) < e.config.Password.MinLength {
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", "", ErrPasswordPolicy, nil)
		return nil, ErrPasswordPolicy
	}

	existing, err := e.secondaryUsers.FindUser(ctx, UserQuery{Email: req.Email}, Projection{})
	if err != nil {
		return nil, e.internal(ctx, "secondary user lookup failed", err)
	}
	if existing != nil {
		e.metricInc(MetricRegisterConflict)
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", "", ErrConflict, nil)
		return nil, ErrConflict
	}

	multi, err := e.IsMultiUserMode(ctx)
	if err != nil {
		return nil, err
	}
	if !multi {
		e.metricInc(MetricRegisterDisabled)
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", "", ErrMultiUserModeDisabled, nil)
		return nil, ErrMultiUserModeDisabled
	}

	count, err := e.secondaryUsers.CountUsers(ctx)
	if err != nil {
		return nil, e.internal(ctx, "secondary user count failed", err)
	}
	role := RoleUser
	if count == 0 {
		role = RoleAdmin
	}

	hash, err := e.hasher.Hash(req.Password)
	if err != nil {
		return nil, e.internal(ctx, "password hashing failed", err)
	}

	user, err := e.secondaryUsers.CreateUser(ctx, NewSecondaryUser{
		Email:    req.Email,
		Name:     strings.TrimSpace(req.Name),
		Username: strings.TrimSpace(req.Username),
		Role:     role,
		Password: hash,
	})
	if err != nil {
		return nil, e.internal(ctx, "secondary user create failed", err)
	}
	if user.Password == "" {
		user.Password = hash
	}

	e.ensureMirroredBestEffort(ctx, user)

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, user.ID, "", nil, func() map[string]string {
		return map[string]string{"role": user.Role}
	})

	return &RegisterResult{User: PublicUser{
		ID:       user.ID,
		Email:    user.Email,
		Name:     user.Name,
		Username: user.Username,
		Role:     user.Role,
	}}, nil
}
