package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

const (
	sessionIDSize     = 16
	refreshSecretSize = 32
)

// errMalformedRefreshToken marks a refresh token that does not decode to a session id
// followed by a secret. FindSession treats it as an unknown token.
var errMalformedRefreshToken = errors.New("malformed refresh token")

// refreshToken is the value handed to clients: base64url without padding over the
// 16-byte session id followed by the 32-byte secret. Redis only sees the secret's
// SHA-256.
type refreshToken struct {
	sessionID [sessionIDSize]byte
	secret    [refreshSecretSize]byte
}

func newRefreshToken() (refreshToken, error) {
	var t refreshToken
	if _, err := rand.Read(t.sessionID[:]); err != nil {
		return t, fmt.Errorf("generate session id: %w", err)
	}
	if _, err := rand.Read(t.secret[:]); err != nil {
		return t, fmt.Errorf("generate refresh secret: %w", err)
	}
	return t, nil
}

func parseRefreshToken(s string) (refreshToken, error) {
	var t refreshToken
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return t, fmt.Errorf("%w: %v", errMalformedRefreshToken, err)
	}
	if len(raw) != sessionIDSize+refreshSecretSize {
		return t, fmt.Errorf("%w: %d bytes", errMalformedRefreshToken, len(raw))
	}
	copy(t.sessionID[:], raw[:sessionIDSize])
	copy(t.secret[:], raw[sessionIDSize:])
	return t, nil
}

// SessionID is the Redis key suffix of the session.
func (t refreshToken) SessionID() string {
	return base64.RawURLEncoding.EncodeToString(t.sessionID[:])
}

func (t refreshToken) String() string {
	raw := make([]byte, 0, sessionIDSize+refreshSecretSize)
	raw = append(raw, t.sessionID[:]...)
	raw = append(raw, t.secret[:]...)
	return base64.RawURLEncoding.EncodeToString(raw)
}

func (t refreshToken) secretHash() [32]byte {
	return sha256.Sum256(t.secret[:])
}
