package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/argon2"
)

const (
	keyLength   = 32
	kdfTime     = 1
	kdfMemoryKB = 64 * 1024
	kdfThreads  = 4
)

var (
	// ErrMalformed is returned when a sealed value cannot be decoded or opened.
	ErrMalformed = errors.New("malformed ciphertext")
	// ErrEmptyPassphrase is returned by New when no passphrase is configured.
	ErrEmptyPassphrase = errors.New("encryption passphrase is required")
)

// AESGCM encrypts with a fixed key and a fresh random nonce per call. Output is
// base64url(nonce || ciphertext).
type AESGCM struct {
	aead cipher.AEAD
}

// New derives a 256-bit key from passphrase and salt with argon2id.
func New(passphrase, salt string) (*AESGCM, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	key := DeriveKey([]byte(passphrase), []byte(salt))
	return NewWithKey(key)
}

// NewWithKey builds an AESGCM from a raw 16, 24 or 32 byte key.
func NewWithKey(key []byte) (*AESGCM, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &AESGCM{aead: aead}, nil
}

// DeriveKey stretches a passphrase into a 32-byte AES key.
func DeriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, kdfTime, kdfMemoryKB, kdfThreads, keyLength)
}

// Encrypt seals plaintext.
func (a *AESGCM) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, a.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := a.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt.
func (a *AESGCM) Decrypt(encoded string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrMalformed
	}
	ns := a.aead.NonceSize()
	if len(raw) < ns+a.aead.Overhead() {
		return "", ErrMalformed
	}
	plaintext, err := a.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", ErrMalformed
	}
	return string(plaintext), nil
}
