package bridgeAuth

import (
	"context"

	"github.com/MrEthical07/bridgeAuth/jwt"
	"github.com/MrEthical07/bridgeAuth/password"
	"github.com/MrEthical07/bridgeAuth/session"
)

// PrimaryUserStore reads and creates mirror records on the primary platform.
// GetUser returns nil, nil when no record exists for email.
type PrimaryUserStore interface {
	GetUser(ctx context.Context, email string) (*PrimaryUser, error)
	CreateUser(ctx context.Context, user NewPrimaryUser) (*PrimaryUser, error)
}

// MultiUserModeFlag reports the primary platform's multi-user setting.
type MultiUserModeFlag interface {
	IsMultiUserMode(ctx context.Context) (bool, error)
}

// PrimaryAPIKeyStore resolves API keys from the primary key table. GetAPIKey returns
// nil, nil for an unknown secret.
type PrimaryAPIKeyStore interface {
	GetAPIKey(ctx context.Context, secret string) (*APIKey, error)
}

// SecondaryUserStore is the canonical user store. Lookups return nil, nil when the
// user does not exist.
type SecondaryUserStore interface {
	FindUser(ctx context.Context, query UserQuery, projection Projection) (*SecondaryUser, error)
	CreateUser(ctx context.Context, user NewSecondaryUser) (*SecondaryUser, error)
	GetUserByID(ctx context.Context, id string, projection Projection) (*SecondaryUser, error)
	CountUsers(ctx context.Context) (int, error)
	ListUsers(ctx context.Context, opts ListOptions) ([]*SecondaryUser, error)
}

// SecondarySessionStore persists refresh sessions. *session.Store implements it.
type SecondarySessionStore interface {
	CreateSession(ctx context.Context, userID string) (*session.Record, string, error)
	FindSession(ctx context.Context, lookup session.Lookup) (*session.Record, error)
	DeleteSession(ctx context.Context, sessionID string) (bool, error)
	ListUserSessions(ctx context.Context, userID string) ([]*session.Record, error)
}

// PasswordHasher hashes new passwords and compares candidates against stored hashes.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(password, hash string) (bool, error)
}

// PasswordRehasher is an optional PasswordHasher extension. Login replaces a stored
// hash for which NeedsRehash reports true.
type PasswordRehasher interface {
	NeedsRehash(hash string) bool
}

// SecondaryPasswordUpdater is an optional SecondaryUserStore extension used to write
// upgraded password hashes back.
type SecondaryPasswordUpdater interface {
	UpdatePassword(ctx context.Context, id, hash string) error
}

// TOTPVerifier checks a one-time code against a stored secret.
type TOTPVerifier interface {
	Verify(secret, code string) (bool, error)
}

// Encrypter seals and opens the proof claim.
type Encrypter interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// TokenSigner mints and parses access and step-up tokens. *jwt.Manager implements it.
// ParseAccess must reject step-up tokens and ParseStepUp must reject access tokens.
type TokenSigner interface {
	CreateAccess(userID, email, role, p string) (string, error)
	CreateStepUp(userID string) (string, error)
	ParseAccess(token string) (*jwt.Claims, error)
	ParseStepUp(token string) (*jwt.Claims, error)
}

var (
	_ SecondarySessionStore = (*session.Store)(nil)
	_ TokenSigner           = (*jwt.Manager)(nil)
	_ PasswordRehasher      = (*password.Hasher)(nil)
)
