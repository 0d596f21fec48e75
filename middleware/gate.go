package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/MrEthical07/bridgeAuth"
)

const (
	msgUnauthorized = "Unauthorized"
	msgSuspended    = "User is suspended from system"
	msgForbidden    = "Forbidden"
	msgNoAPIKey     = "No valid api key found."
)

// rejections maps gate failures to responses. Anything not listed is a plain 401.
var rejections = []struct {
	err     error
	status  int
	message string
}{
	{bridgeAuth.ErrUserSuspended, http.StatusUnauthorized, msgSuspended},
	{bridgeAuth.ErrForbidden, http.StatusForbidden, msgForbidden},
	{bridgeAuth.ErrAPIKeyInvalid, http.StatusForbidden, msgNoAPIKey},
}

// Authenticator is the part of *bridgeAuth.Engine the token gates need.
type Authenticator interface {
	VerifyToken(ctx context.Context, token string) (*bridgeAuth.UnifiedUser, error)
	IsMultiUserMode(ctx context.Context) (bool, error)
	DevBypass() bool
	Logger() *slog.Logger
}

// APIKeyValidator is the part of *bridgeAuth.Engine the API key gate needs.
type APIKeyValidator interface {
	ValidateAPIKey(ctx context.Context, secret string) (*bridgeAuth.APIKey, error)
}

type apiKeyContextKey struct{}

// APIKeyFromContext returns the key accepted by [APIKey].
func APIKeyFromContext(ctx context.Context) (*bridgeAuth.APIKey, bool) {
	key, ok := ctx.Value(apiKeyContextKey{}).(*bridgeAuth.APIKey)
	return key, ok && key != nil
}

// Required rejects requests without a valid access token.
//
// The primary platform's multi-user flag is stored on the request context before any
// other check, so handlers can read it even on bypassed requests. With the engine in
// development bypass every request passes: a bearer token that still verifies attaches
// its user, anything else attaches the admin placeholder from devUser.
func Required(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth == nil {
				reject(w, bridgeAuth.ErrUnauthorized)
				return
			}
			logger := auth.Logger()
			ctx := withMultiUserMode(r.Context(), auth, logger)

			if auth.DevBypass() {
				user := bypassUser(ctx, auth, r)
				logger.DebugContext(ctx, "development bypass: request not authenticated",
					slog.String("path", r.URL.Path), slog.String("user_id", user.ID))
				next.ServeHTTP(w, r.WithContext(bridgeAuth.WithUser(ctx, user)))
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				reject(w, bridgeAuth.ErrUnauthorized)
				return
			}

			user, err := auth.VerifyToken(ctx, token)
			if err != nil {
				reject(w, err)
				return
			}
			if user.Suspended() {
				reject(w, bridgeAuth.ErrUserSuspended)
				return
			}

			next.ServeHTTP(w, r.WithContext(bridgeAuth.WithUser(ctx, user)))
		})
	}
}

// RequireAdmin rejects callers whose role is not admin with 403.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := bridgeAuth.UserFromContext(r.Context())
		if !ok || !user.IsAdmin() {
			reject(w, bridgeAuth.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// devUser is the caller seen by handlers behind a bypassed gate.
func devUser() *bridgeAuth.UnifiedUser {
	return &bridgeAuth.UnifiedUser{
		ID:       "dev",
		Email:    "dev@localhost",
		Name:     "Development",
		Role:     bridgeAuth.RoleAdmin,
		Provider: "dev-bypass",
	}
}

func bypassUser(ctx context.Context, auth Authenticator, r *http.Request) *bridgeAuth.UnifiedUser {
	token, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok {
		return devUser()
	}
	user, err := auth.VerifyToken(ctx, token)
	if err != nil || user.Suspended() {
		return devUser()
	}
	return user
}

// OptionalAuth attaches the caller when the request carries a valid, unsuspended
// token. It never rejects.
func OptionalAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth == nil || auth.DevBypass() {
				next.ServeHTTP(w, r)
				return
			}
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			user, err := auth.VerifyToken(r.Context(), token)
			if err != nil || user.Suspended() {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(bridgeAuth.WithUser(r.Context(), user)))
		})
	}
}

// APIKey accepts a bearer API key from the primary platform's key table. Missing and
// unknown keys are both 403.
func APIKey(keys APIKeyValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			secret, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok || keys == nil {
				reject(w, bridgeAuth.ErrAPIKeyInvalid)
				return
			}
			key, err := keys.ValidateAPIKey(r.Context(), secret)
			if err != nil {
				reject(w, bridgeAuth.ErrAPIKeyInvalid)
				return
			}
			ctx := context.WithValue(r.Context(), apiKeyContextKey{}, key)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func withMultiUserMode(ctx context.Context, auth Authenticator, logger *slog.Logger) context.Context {
	enabled, err := auth.IsMultiUserMode(ctx)
	if err != nil {
		logger.WarnContext(ctx, "multi-user mode lookup failed", slog.Any("error", err))
		enabled = false
	}
	return bridgeAuth.WithMultiUserMode(ctx, enabled)
}

// BearerToken extracts the token from the request's Authorization header.
func BearerToken(r *http.Request) (string, bool) {
	return bearerToken(r.Header.Get("Authorization"))
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}

func reject(w http.ResponseWriter, err error) {
	for _, r := range rejections {
		if errors.Is(err, r.err) {
			writeMessage(w, r.status, r.message)
			return
		}
	}
	writeMessage(w, http.StatusUnauthorized, msgUnauthorized)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
