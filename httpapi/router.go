package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/MrEthical07/bridgeAuth"
	"github.com/MrEthical07/bridgeAuth/middleware"
)

// Options tunes the route table.
type Options struct {
	// Registration gates POST /auth/register. Nil means registration is closed.
	Registration *RegistrationGate
	// TrustProxy makes the client IP come from X-Forwarded-For.
	TrustProxy bool
	// MaxBodyBytes caps JSON request bodies. Zero means 1 MiB.
	MaxBodyBytes int64
}

// Server holds the handlers of the route table.
type Server struct {
	engine       *bridgeAuth.Engine
	registration *RegistrationGate
	logger       *slog.Logger
	maxBody      int64
}

// NewServer wires handlers to engine.
func NewServer(engine *bridgeAuth.Engine, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	return &Server{
		engine:       engine,
		registration: opts.Registration,
		logger:       engine.Logger(),
		maxBody:      opts.MaxBodyBytes,
	}
}

// Routes registers every route on mux.
func (s *Server) Routes(mux *http.ServeMux) {
	required := middleware.Required(s.engine)
	admin := func(h http.HandlerFunc) http.Handler {
		return required(middleware.RequireAdmin(h))
	}

	// public
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/refresh-token", s.handleRefresh)
	mux.HandleFunc("POST /auth/verify-2fa", s.handleVerifyStepUp)
	mux.HandleFunc("GET /auth/verify-token", s.handleVerifyToken)

	// protected
	mux.Handle("POST /auth/logout", required(http.HandlerFunc(s.handleLogout)))
	mux.Handle("GET /auth/me", required(http.HandlerFunc(s.handleMe)))

	// admin
	mux.Handle("GET /auth/admin/users", admin(s.handleListUsers))
	mux.Handle("GET /auth/admin/users/{id}/sessions", admin(s.handleListSessions))

	// api key
	mux.Handle("GET /v1/auth", middleware.APIKey(s.engine)(http.HandlerFunc(s.handleAPIKeyCheck)))
}

// NewRouter returns a mux with every route registered behind the client IP
// middleware. The mux is returned so callers can add operational routes.
func NewRouter(engine *bridgeAuth.Engine, opts Options) (*http.ServeMux, http.Handler) {
	mux := http.NewServeMux()
	NewServer(engine, opts).Routes(mux)
	return mux, middleware.ClientIP(opts.TrustProxy)(mux)
}
