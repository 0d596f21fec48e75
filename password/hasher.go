package password

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrUnsupportedHash is returned by Compare for hashes in an unknown format.
var ErrUnsupportedHash = errors.New("unsupported password hash format")

// Hasher creates Argon2id hashes and verifies Argon2id or legacy bcrypt hashes.
// It is safe for concurrent use.
type Hasher struct {
	argon argon2Hasher
}

// NewHasher validates cfg and returns a Hasher.
func NewHasher(cfg Config) (*Hasher, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return &Hasher{argon: argon2Hasher{config: cfg}}, nil
}

// Hash returns a PHC-encoded Argon2id hash. Password bytes are used as given, without
// Unicode normalization.
func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is required")
	}
	return h.argon.hash(password)
}

// Compare reports whether password matches hash. A mismatch is (false, nil); a hash
// that cannot be parsed is (false, err).
func (h *Hasher) Compare(password, hash string) (bool, error) {
	switch {
	case strings.HasPrefix(hash, "$"+algorithmID+"$"):
		return h.argon.verify(password, hash)
	case isBcrypt(hash):
		err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, ErrUnsupportedHash
	}
}

// NeedsRehash reports whether hash should be replaced with a fresh Argon2id hash under
// the current parameters. Legacy bcrypt hashes always qualify.
func (h *Hasher) NeedsRehash(hash string) bool {
	if isBcrypt(hash) {
		return true
	}
	return h.argon.needsUpgrade(hash)
}

func isBcrypt(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}
