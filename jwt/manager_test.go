package jwt

import (
	"errors"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{Secret: []byte("access-secret-access-secret")})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestNewManagerRequiresSecret(t *testing.T) {
	if _, err := NewManager(Config{}); err == nil {
		t.Fatal("expected missing secret to fail")
	}
}

func TestNewManagerDefaultsTTL(t *testing.T) {
	m := newTestManager(t)
	if m.AccessTTL() != 24*time.Hour {
		t.Fatalf("expected 24h access TTL, got %v", m.AccessTTL())
	}
	if m.config.StepUpTTL != 5*time.Minute {
		t.Fatalf("expected 5m step-up TTL, got %v", m.config.StepUpTTL)
	}
}

func TestCreateAccessRoundTrip(t *testing.T) {
	m := newTestManager(t)

	token, err := m.CreateAccess("u1", "a@b.com", "admin", "opaque")
	if err != nil {
		t.Fatalf("create access: %v", err)
	}
	claims, err := m.ParseAccess(token)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if claims.UserID != "u1" || claims.Email != "a@b.com" || claims.Role != "admin" || claims.P != "opaque" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Temp {
		t.Fatal("access token must not carry temp")
	}
	ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if ttl != 24*time.Hour {
		t.Fatalf("expected 24h lifetime, got %v", ttl)
	}
}

func TestStepUpTokenIsolation(t *testing.T) {
	m := newTestManager(t)

	temp, err := m.CreateStepUp("u1")
	if err != nil {
		t.Fatalf("create step-up: %v", err)
	}
	if _, err := m.ParseAccess(temp); !errors.Is(err, ErrStepUpToken) {
		t.Fatalf("expected ErrStepUpToken, got %v", err)
	}
	claims, err := m.ParseStepUp(temp)
	if err != nil {
		t.Fatalf("parse step-up: %v", err)
	}
	if !claims.Temp || claims.UserID != "u1" {
		t.Fatalf("unexpected step-up claims: %+v", claims)
	}
	if ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time); ttl != 5*time.Minute {
		t.Fatalf("expected 5m lifetime, got %v", ttl)
	}

	access, _ := m.CreateAccess("u1", "a@b.com", "user", "p")
	if _, err := m.ParseStepUp(access); !errors.Is(err, ErrNotStepUpToken) {
		t.Fatalf("expected ErrNotStepUpToken, got %v", err)
	}
}

func TestParseRejectsWrongSecretAndAlgorithm(t *testing.T) {
	m := newTestManager(t)

	other, _ := NewManager(Config{Secret: []byte("some-other-secret")})
	foreign, _ := other.CreateAccess("u1", "a@b.com", "user", "p")
	if _, err := m.Parse(foreign); err == nil {
		t.Fatal("expected token signed with another secret to fail")
	}

	claims := Claims{UserID: "u1", RegisteredClaims: gjwt.RegisteredClaims{ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute))}}
	tok := gjwt.NewWithClaims(gjwt.SigningMethodHS512, claims)
	signed, err := tok.SignedString([]byte("access-secret-access-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := m.Parse(signed); err == nil {
		t.Fatal("expected HS512 token to be rejected")
	}
}

func TestParseRejectsExpiredAndMissingExpiry(t *testing.T) {
	m := newTestManager(t)
	secret := []byte("access-secret-access-secret")

	expired := Claims{UserID: "u1", RegisteredClaims: gjwt.RegisteredClaims{
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(-time.Minute)),
		IssuedAt:  gjwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}}
	tok, _ := gjwt.NewWithClaims(gjwt.SigningMethodHS256, expired).SignedString(secret)
	if _, err := m.Parse(tok); err == nil {
		t.Fatal("expected expired token to fail")
	}

	noExp := Claims{UserID: "u1"}
	tok, _ = gjwt.NewWithClaims(gjwt.SigningMethodHS256, noExp).SignedString(secret)
	if _, err := m.Parse(tok); err == nil {
		t.Fatal("expected token without exp to fail")
	}
}

func TestParseRejectsEmptyUserID(t *testing.T) {
	m := newTestManager(t)
	claims := Claims{RegisteredClaims: gjwt.RegisteredClaims{ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute))}}
	tok, _ := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString([]byte("access-secret-access-secret"))
	if _, err := m.Parse(tok); err == nil {
		t.Fatal("expected token without id to fail")
	}
}

func TestParseIssuer(t *testing.T) {
	m, err := NewManager(Config{Secret: []byte("s3cr3t-s3cr3t"), Issuer: "bridge"})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	good, _ := m.CreateAccess("u1", "", "user", "")
	if _, err := m.Parse(good); err != nil {
		t.Fatalf("expected matching issuer to pass: %v", err)
	}

	other, _ := NewManager(Config{Secret: []byte("s3cr3t-s3cr3t"), Issuer: "elsewhere"})
	bad, _ := other.CreateAccess("u1", "", "user", "")
	if _, err := m.Parse(bad); err == nil {
		t.Fatal("expected wrong issuer to fail")
	}
}

func FuzzParse(f *testing.F) {
	m, err := NewManager(Config{Secret: []byte("fuzz-secret-fuzz-secret")})
	if err != nil {
		f.Fatal(err)
	}
	valid, err := m.CreateAccess("u1", "a@b.com", "user", "p")
	if err != nil {
		f.Fatal(err)
	}
	f.Add(valid)
	f.Add("")
	f.Add("a.b.c")
	f.Fuzz(func(t *testing.T, token string) {
		claims, err := m.Parse(token)
		if err == nil && claims == nil {
			t.Fatal("nil claims without error")
		}
	})
}
