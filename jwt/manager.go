package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultAccessTTL is the lifetime of a full access token.
	DefaultAccessTTL = 24 * time.Hour
	// DefaultStepUpTTL is the lifetime of a temporary second-factor token.
	DefaultStepUpTTL = 5 * time.Minute
)

var (
	// ErrStepUpToken is returned by ParseAccess when handed a temporary step-up token.
	ErrStepUpToken = errors.New("step-up token not accepted as access token")
	// ErrNotStepUpToken is returned by ParseStepUp for tokens without temp=true.
	ErrNotStepUpToken = errors.New("token is not a step-up token")
)

// Config holds signing parameters. Secret is shared by every verifier.
type Config struct {
	Secret    []byte
	AccessTTL time.Duration
	StepUpTTL time.Duration
	Issuer    string
	Leeway    time.Duration
}

// Manager signs and parses tokens with one HMAC secret.
type Manager struct {
	config Config
}

// Claims is the payload carried by both token kinds.
//
// Access tokens populate UserID, Email, Role and P. Step-up tokens populate only
// UserID and Temp.
type Claims struct {
	UserID string `json:"id"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
	P      string `json:"p,omitempty"`
	Temp   bool   `json:"temp,omitempty"`
	jwt.RegisteredClaims
}

// NewManager validates cfg and fills zero TTLs with the defaults.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("jwt secret is required")
	}
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.StepUpTTL == 0 {
		cfg.StepUpTTL = DefaultStepUpTTL
	}
	if cfg.AccessTTL < 0 || cfg.StepUpTTL < 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	cfg.Issuer = strings.TrimSpace(cfg.Issuer)

	return &Manager{config: cfg}, nil
}

// AccessTTL reports the configured access-token lifetime.
func (m *Manager) AccessTTL() time.Duration {
	return m.config.AccessTTL
}

// CreateAccess signs a full access token for the given identity. p is the opaque
// cross-platform proof built by the caller.
func (m *Manager) CreateAccess(userID, email, role, p string) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	now := time.Now()
	claims := Claims{
		UserID:           userID,
		Email:            email,
		Role:             role,
		P:                p,
		RegisteredClaims: m.registered(now, m.config.AccessTTL),
	}
	return m.sign(claims)
}

// CreateStepUp signs a short-lived token that only grants the right to finish a
// pending second factor.
func (m *Manager) CreateStepUp(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	claims := Claims{
		UserID:           userID,
		Temp:             true,
		RegisteredClaims: m.registered(time.Now(), m.config.StepUpTTL),
	}
	return m.sign(claims)
}

// Parse verifies signature, algorithm and expiry and returns the claims of either
// token kind. Callers decide which kind they accept.
func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return m.config.Secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.UserID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return claims, nil
}

// ParseAccess is Parse restricted to full access tokens.
func (m *Manager) ParseAccess(tokenStr string) (*Claims, error) {
	claims, err := m.Parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Temp {
		return nil, ErrStepUpToken
	}
	return claims, nil
}

// ParseStepUp is Parse restricted to temporary step-up tokens.
func (m *Manager) ParseStepUp(tokenStr string) (*Claims, error) {
	claims, err := m.Parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if !claims.Temp {
		return nil, ErrNotStepUpToken
	}
	return claims, nil
}

func (m *Manager) registered(now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    m.config.Issuer,
	}
}

func (m *Manager) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.config.Secret)
}
