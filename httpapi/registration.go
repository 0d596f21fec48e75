package httpapi

import "sync/atomic"

// RegistrationGate is the runtime switch for POST /auth/register. It is checked
// before the engine sees the request. The zero value is closed.
type RegistrationGate struct {
	enabled atomic.Bool
}

// NewRegistrationGate returns a gate in the given state.
func NewRegistrationGate(enabled bool) *RegistrationGate {
	g := &RegistrationGate{}
	g.enabled.Store(enabled)
	return g
}

func (g *RegistrationGate) Enabled() bool {
	return g != nil && g.enabled.Load()
}

func (g *RegistrationGate) SetEnabled(enabled bool) {
	g.enabled.Store(enabled)
}
