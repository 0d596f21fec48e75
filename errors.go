package bridgeAuth

import "errors"

var (
	// ErrValidation is returned when required input is missing.
	ErrValidation = errors.New("validation failed")
	// ErrPasswordPolicy is returned when a new password is too short.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrInvalidCredentials is returned by Login for an unknown email or a wrong
	// password. Both cases are indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized is returned by step-up and refresh when the presented proof is
	// not accepted.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrTokenInvalid is returned by VerifyToken for any rejected access token.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrRefreshTokenMissing is returned by Refresh when no refresh token was presented.
	ErrRefreshTokenMissing = errors.New("refresh token not provided")
	// ErrUserSuspended is returned when the primary mirror marks the user suspended.
	ErrUserSuspended = errors.New("user is suspended from system")
	// ErrForbidden is returned for authenticated callers lacking the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrMultiUserModeDisabled is returned by Register while the primary platform is
	// in single-user mode.
	ErrMultiUserModeDisabled = errors.New("multi-user mode disabled")
	// ErrRegistrationDisabled is returned when the runtime registration gate is closed.
	ErrRegistrationDisabled = errors.New("registration is disabled")
	// ErrAPIKeyInvalid is returned when a bearer API key is missing or unknown.
	ErrAPIKeyInvalid = errors.New("no valid api key found")
	// ErrConflict is returned by Register when the email is already taken.
	ErrConflict = errors.New("user already exists")
	// ErrLoginRateLimited is returned when the login throttle budget is exhausted.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrInternal wraps unexpected store and signing failures.
	ErrInternal = errors.New("internal error")
	// ErrEngineNotReady is returned by token operations when no access secret is
	// configured (development bypass only).
	ErrEngineNotReady = errors.New("engine not ready")
)
