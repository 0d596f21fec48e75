package bridgeAuth

import "context"

// ListUsers pages through the secondary platform's users with secrets stripped.
func (e *Engine) ListUsers(ctx context.Context, opts ListOptions) ([]PublicUser, error) {
	if e == nil || e.secondaryUsers == nil {
		return nil, ErrEngineNotReady
	}
	if opts.Limit < 0 || opts.Offset < 0 {
		return nil, ErrValidation
	}

	users, err := e.secondaryUsers.ListUsers(ctx, opts)
	if err != nil {
		return nil, e.internal(ctx, "secondary user listing failed", err)
	}

	out := make([]PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, publicFromSecondary(u))
	}
	return out, nil
}

// ListUserSessions returns the live refresh sessions of userID.
func (e *Engine) ListUserSessions(ctx context.Context, userID string) ([]SessionInfo, error) {
	if e == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}
	if userID == "" {
		return nil, ErrValidation
	}

	records, err := e.sessions.ListUserSessions(ctx, userID)
	if err != nil {
		return nil, e.internal(ctx, "session listing failed", err)
	}

	now := e.now()
	out := make([]SessionInfo, 0, len(records))
	for _, rec := range records {
		if rec.Expired(now) {
			continue
		}
		out = append(out, SessionInfo{
			ID:         rec.ID,
			UserID:     rec.UserID,
			CreatedAt:  rec.CreatedAt,
			Expiration: rec.Expiration,
		})
	}
	return out, nil
}
