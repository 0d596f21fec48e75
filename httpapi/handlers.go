package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/MrEthical07/bridgeAuth"
	"github.com/MrEthical07/bridgeAuth/middleware"
)

type messageBody struct {
	Message string `json:"message"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

type stepUpRequest struct {
	Token string `json:"token"`
	Code  string `json:"code"`
}

type tokenResponse struct {
	Token string                `json:"token"`
	User  bridgeAuth.PublicUser `json:"user"`
}

type pendingUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type stepUpPendingResponse struct {
	TwoFAPending bool        `json:"twoFAPending"`
	TempToken    string      `json:"tempToken"`
	User         pendingUser `json:"user"`
}

type registerResponse struct {
	Message string                `json:"message"`
	User    bridgeAuth.PublicUser `json:"user"`
}

type verifyResponse struct {
	Valid bool                   `json:"valid"`
	User  *bridgeAuth.PublicUser `json:"user,omitempty"`
}

const (
	msgCredentialsRequired = "Email and password are required"
	msgStepUpRequired      = "Token and code are required"
	msgBadBody             = "Invalid request body"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeValidation(w, msgCredentialsRequired)
		return
	}

	res, err := s.engine.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, bridgeAuth.ErrValidation) {
			writeValidation(w, msgCredentialsRequired)
			return
		}
		s.writeError(w, r, err)
		return
	}

	if res.TwoFAPending {
		writeJSON(w, http.StatusOK, stepUpPendingResponse{
			TwoFAPending: true,
			TempToken:    res.TempToken,
			User:         pendingUser{ID: res.User.ID, Email: res.User.Email},
		})
		return
	}

	s.setRefreshCookie(w, res.RefreshToken, res.Session.Expiration)
	writeJSON(w, http.StatusOK, tokenResponse{Token: res.Token, User: res.User})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !s.registration.Enabled() {
		s.writeError(w, r, bridgeAuth.ErrRegistrationDisabled)
		return
	}

	var req registerRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeValidation(w, msgCredentialsRequired)
		return
	}

	res, err := s.engine.Register(r.Context(), bridgeAuth.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Username: req.Username,
	})
	if err != nil {
		if errors.Is(err, bridgeAuth.ErrValidation) {
			writeValidation(w, msgCredentialsRequired)
			return
		}
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, registerResponse{Message: "User registered successfully", User: res.User})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.Refresh(r.Context(), refreshCookie(r))
	if err != nil {
		if errors.Is(err, bridgeAuth.ErrUnauthorized) {
			s.clearRefreshCookie(w)
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: res.Token, User: res.User})
}

func (s *Server) handleVerifyStepUp(w http.ResponseWriter, r *http.Request) {
	var req stepUpRequest
	if !s.decode(w, r, &req) {
		return
	}

	res, err := s.engine.VerifyStepUp(r.Context(), req.Token, req.Code)
	if err != nil {
		if errors.Is(err, bridgeAuth.ErrValidation) {
			writeValidation(w, msgStepUpRequired)
			return
		}
		s.writeError(w, r, err)
		return
	}

	s.setRefreshCookie(w, res.RefreshToken, res.Session.Expiration)
	writeJSON(w, http.StatusOK, tokenResponse{Token: res.Token, User: res.User})
}

// handleVerifyToken answers {valid:false} instead of the gate's message body, so it
// verifies the bearer token itself.
func (s *Server) handleVerifyToken(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, verifyResponse{Valid: false})
		return
	}
	user, err := s.engine.VerifyToken(r.Context(), token)
	if err != nil || user.Suspended() {
		writeJSON(w, http.StatusUnauthorized, verifyResponse{Valid: false})
		return
	}
	pub := user.Public()
	writeJSON(w, http.StatusOK, verifyResponse{Valid: true, User: &pub})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var userID string
	if user, ok := bridgeAuth.UserFromContext(r.Context()); ok {
		userID = user.ID
	}

	if _, err := s.engine.Logout(r.Context(), userID, refreshCookie(r)); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.clearRefreshCookie(w)
	writeJSON(w, http.StatusOK, messageBody{Message: "Logged out successfully"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := bridgeAuth.UserFromContext(r.Context())
	if !ok {
		s.writeError(w, r, bridgeAuth.ErrUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, user.Public())
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	opts, ok := listOptions(r)
	if !ok {
		writeValidation(w, "limit and offset must be non-negative integers")
		return
	}
	users, err := s.engine.ListUsers(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.engine.ListUserSessions(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (s *Server) handleAPIKeyCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": true})
}

func listOptions(r *http.Request) (bridgeAuth.ListOptions, bool) {
	var opts bridgeAuth.ListOptions
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, false
		}
		opts.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, false
		}
		opts.Offset = n
	}
	return opts, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeValidation(w, msgBadBody)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
