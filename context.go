package bridgeAuth

import "context"

type clientIPContextKey struct{}
type userContextKey struct{}
type multiUserModeContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. The engine uses it for the
// per-IP login throttle and audit events.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithUser attaches the authenticated caller to ctx.
func WithUser(ctx context.Context, user *UnifiedUser) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext returns the caller attached by WithUser.
func UserFromContext(ctx context.Context) (*UnifiedUser, bool) {
	if ctx == nil {
		return nil, false
	}
	user, ok := ctx.Value(userContextKey{}).(*UnifiedUser)
	return user, ok && user != nil
}

// WithMultiUserMode records the primary platform's multi-user flag for downstream
// handlers.
func WithMultiUserMode(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, multiUserModeContextKey{}, enabled)
}

// MultiUserModeFromContext returns the flag stored by WithMultiUserMode. The second
// value is false when the gate never ran.
func MultiUserModeFromContext(ctx context.Context) (bool, bool) {
	if ctx == nil {
		return false, false
	}
	enabled, ok := ctx.Value(multiUserModeContextKey{}).(bool)
	return enabled, ok
}

// ClientIPFromContext returns the address stored by WithClientIP, or "".
func ClientIPFromContext(ctx context.Context) string {
	return clientIPFromContext(ctx)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}
