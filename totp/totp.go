package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const secretBytes = 20

var (
	// ErrEmptySecret is returned when no secret is enrolled.
	ErrEmptySecret = errors.New("empty totp secret")
	// ErrInvalidSecret is returned when the stored secret is not valid base32.
	ErrInvalidSecret = errors.New("invalid totp secret encoding")
)

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// Config controls code generation. Zero fields take the authenticator-app defaults.
type Config struct {
	Issuer    string
	Digits    int
	Period    int
	Algorithm string
	Skew      int
}

// Verifier checks codes. It holds no per-user state and is safe for concurrent use.
type Verifier struct {
	config Config
	now    func() time.Time
}

// New returns a Verifier. Defaults: 6 digits, 30 second period, SHA1, one step of skew
// either side.
func New(cfg Config) (*Verifier, error) {
	if cfg.Digits == 0 {
		cfg.Digits = 6
	}
	if cfg.Period == 0 {
		cfg.Period = 30
	}
	if cfg.Algorithm == "" {
		cfg.Algorithm = "SHA1"
	}
	if cfg.Skew == 0 {
		cfg.Skew = 1
	}
	if cfg.Digits < 6 || cfg.Digits > 10 {
		return nil, errors.New("totp digits must be between 6 and 10")
	}
	if cfg.Period <= 0 || cfg.Skew < 0 || cfg.Skew > 10 {
		return nil, errors.New("invalid totp period or skew")
	}
	if _, err := hmacFunc(cfg.Algorithm); err != nil {
		return nil, err
	}
	return &Verifier{config: cfg, now: time.Now}, nil
}

// Verify reports whether code is valid for the base32 secret at the current time.
func (v *Verifier) Verify(secret, code string) (bool, error) {
	return v.VerifyAt(secret, code, v.now())
}

// VerifyAt is Verify at an explicit instant.
func (v *Verifier) VerifyAt(secret, code string, now time.Time) (bool, error) {
	raw, err := decodeSecret(secret)
	if err != nil {
		return false, err
	}
	ok, _, err := v.verifyRaw(raw, code, now)
	return ok, err
}

func (v *Verifier) verifyRaw(secret []byte, code string, now time.Time) (bool, int64, error) {
	trimmed := strings.TrimSpace(code)
	if len(trimmed) != v.config.Digits || !isNumeric(trimmed) {
		return false, 0, nil
	}
	if len(secret) == 0 {
		return false, 0, ErrEmptySecret
	}

	base := now.Unix() / int64(v.config.Period)
	for step := -v.config.Skew; step <= v.config.Skew; step++ {
		counter := base + int64(step)
		if counter < 0 {
			continue
		}
		generated, err := hotpCode(secret, counter, v.config.Digits, v.config.Algorithm)
		if err != nil {
			return false, 0, err
		}
		if subtle.ConstantTimeCompare([]byte(generated), []byte(trimmed)) == 1 {
			return true, counter, nil
		}
	}

	return false, 0, nil
}

// Code returns the code for secret at now. Used by enrolment flows and tests.
func (v *Verifier) Code(secret string, now time.Time) (string, error) {
	raw, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}
	return hotpCode(raw, now.Unix()/int64(v.config.Period), v.config.Digits, v.config.Algorithm)
}

// GenerateSecret returns a fresh 160-bit secret, base32 without padding.
func GenerateSecret() (string, error) {
	raw := make([]byte, secretBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return b32.EncodeToString(raw), nil
}

// ProvisionURI renders the otpauth:// URI an authenticator app scans.
func (v *Verifier) ProvisionURI(secret, account string) string {
	issuer := v.config.Issuer
	label := url.PathEscape(issuer + ":" + account)

	q := url.Values{}
	q.Set("secret", secret)
	q.Set("issuer", issuer)
	q.Set("period", strconv.Itoa(v.config.Period))
	q.Set("digits", strconv.Itoa(v.config.Digits))
	q.Set("algorithm", strings.ToUpper(v.config.Algorithm))

	return "otpauth://totp/" + label + "?" + q.Encode()
}

func decodeSecret(secret string) ([]byte, error) {
	s := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(secret), " ", ""))
	s = strings.TrimRight(s, "=")
	if s == "" {
		return nil, ErrEmptySecret
	}
	raw, err := b32.DecodeString(s)
	if err != nil {
		return nil, ErrInvalidSecret
	}
	return raw, nil
}

func hotpCode(secret []byte, counter int64, digits int, algorithm string) (string, error) {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))

	hf, err := hmacFunc(algorithm)
	if err != nil {
		return "", err
	}
	mac := hmac.New(hf, secret)
	_, _ = mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	bin := (int(sum[offset])&0x7f)<<24 |
		(int(sum[offset+1])&0xff)<<16 |
		(int(sum[offset+2])&0xff)<<8 |
		(int(sum[offset+3]) & 0xff)

	mod := 1
	for i := 0; i < digits; i++ {
		mod *= 10
	}

	return fmt.Sprintf("%0*d", digits, bin%mod), nil
}

func hmacFunc(algorithm string) (func() hash.Hash, error) {
	switch strings.ToUpper(algorithm) {
	case "", "SHA1":
		return sha1.New, nil
	case "SHA256":
		return sha256.New, nil
	case "SHA512":
		return sha512.New, nil
	default:
		return nil, errors.New("unsupported totp algorithm")
	}
}

func isNumeric(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
