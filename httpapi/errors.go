package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/MrEthical07/bridgeAuth"
)

const msgInternal = "Internal server error"

type errorMapping struct {
	err     error
	status  int
	message string
}

// Order matters only for wrapped errors; the first match wins.
var errorTable = []errorMapping{
	{bridgeAuth.ErrValidation, http.StatusBadRequest, "Invalid request"},
	{bridgeAuth.ErrPasswordPolicy, http.StatusBadRequest, "Password must be at least 8 characters"},
	{bridgeAuth.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{bridgeAuth.ErrRefreshTokenMissing, http.StatusUnauthorized, "Refresh token not provided"},
	{bridgeAuth.ErrTokenInvalid, http.StatusUnauthorized, "Invalid token"},
	{bridgeAuth.ErrUserSuspended, http.StatusUnauthorized, "User is suspended from system"},
	{bridgeAuth.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	{bridgeAuth.ErrForbidden, http.StatusForbidden, "Forbidden"},
	{bridgeAuth.ErrMultiUserModeDisabled, http.StatusForbidden, "Multi-user mode is disabled"},
	{bridgeAuth.ErrRegistrationDisabled, http.StatusForbidden, "Registration is disabled"},
	{bridgeAuth.ErrAPIKeyInvalid, http.StatusForbidden, "No valid api key found."},
	{bridgeAuth.ErrConflict, http.StatusConflict, "User already exists"},
	{bridgeAuth.ErrLoginRateLimited, http.StatusTooManyRequests, "Too many login attempts, try again later"},
	{bridgeAuth.ErrEngineNotReady, http.StatusServiceUnavailable, "Authentication is not configured"},
}

// statusFor maps an engine error to a status code and client message. Anything not
// in the table is a 500 whose detail stays in the log.
func statusFor(err error) (int, string) {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			return m.status, m.message
		}
	}
	return http.StatusInternalServerError, msgInternal
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
	}
	writeJSON(w, status, messageBody{Message: message})
}

// writeValidation answers 400 with a route-specific message.
func writeValidation(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, messageBody{Message: message})
}
