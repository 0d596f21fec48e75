package bridgeAuth

import (
	"time"

	"github.com/MrEthical07/bridgeAuth/session"
)

const (
	// RoleAdmin is granted to the first registered user.
	RoleAdmin = "admin"
	// RoleUser is granted to every later user.
	RoleUser = "user"
)

// SecondaryUser is a user record of the secondary platform, which is canonical for
// identity and credentials. Password and TOTPSecret are only populated when the
// lookup asked for them through a Projection.
type SecondaryUser struct {
	ID               string
	Email            string
	Name             string
	Username         string
	Role             string
	Provider         string
	EmailVerified    bool
	TwoFactorEnabled bool
	Password         string
	TOTPSecret       string
	CreatedAt        time.Time
}

// PrimaryUser is the mirrored record on the primary platform.
type PrimaryUser struct {
	ID        string
	Email     string
	Username  string
	Name      string
	Role      string
	Password  string
	Suspended bool
	CreatedAt time.Time
}

// UnifiedUser is the per-request view of an authenticated caller. It is built by
// VerifyToken and never persisted. Primary is nil when no mirror exists yet.
type UnifiedUser struct {
	ID               string
	Email            string
	Name             string
	Username         string
	Role             string
	Provider         string
	EmailVerified    bool
	TwoFactorEnabled bool

	Secondary *SecondaryUser
	Primary   *PrimaryUser
}

// IsAdmin reports whether the user holds the admin role.
func (u *UnifiedUser) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Suspended reports whether the primary mirror has the user suspended.
func (u *UnifiedUser) Suspended() bool {
	return u != nil && u.Primary != nil && u.Primary.Suspended
}

// Public strips the store records.
func (u *UnifiedUser) Public() PublicUser {
	if u == nil {
		return PublicUser{}
	}
	return PublicUser{
		ID:               u.ID,
		Email:            u.Email,
		Name:             u.Name,
		Username:         u.Username,
		Role:             u.Role,
		Provider:         u.Provider,
		EmailVerified:    u.EmailVerified,
		TwoFactorEnabled: u.TwoFactorEnabled,
	}
}

// PublicUser is the user shape returned to clients. It never carries credentials.
type PublicUser struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	Name             string `json:"name,omitempty"`
	Username         string `json:"username,omitempty"`
	Role             string `json:"role,omitempty"`
	Provider         string `json:"provider,omitempty"`
	EmailVerified    bool   `json:"emailVerified,omitempty"`
	TwoFactorEnabled bool   `json:"twoFactorEnabled,omitempty"`
}

func publicFromSecondary(u *SecondaryUser) PublicUser {
	if u == nil {
		return PublicUser{}
	}
	return PublicUser{
		ID:               u.ID,
		Email:            u.Email,
		Name:             u.Name,
		Username:         u.Username,
		Role:             u.Role,
		Provider:         u.Provider,
		EmailVerified:    u.EmailVerified,
		TwoFactorEnabled: u.TwoFactorEnabled,
	}
}

// Projection selects which secret fields a secondary lookup returns.
type Projection struct {
	Password   bool
	TOTPSecret bool
}

// UserQuery selects a secondary user by email.
type UserQuery struct {
	Email string
}

// NewSecondaryUser is the input to SecondaryUserStore.CreateUser. Password is already
// hashed.
type NewSecondaryUser struct {
	Email    string
	Name     string
	Username string
	Role     string
	Password string
}

// NewPrimaryUser is the input to PrimaryUserStore.CreateUser. Password is already
// hashed.
type NewPrimaryUser struct {
	Email    string
	Username string
	Name     string
	Role     string
	Password string
}

// APIKey is a key from the primary platform's key table.
type APIKey struct {
	ID        string
	Secret    string
	CreatedBy string
	CreatedAt time.Time
}

// ListOptions pages admin listings. Zero Limit means the store default.
type ListOptions struct {
	Limit  int
	Offset int
}

// LoginResult is returned by Login, VerifyStepUp and Refresh.
//
// When TwoFAPending is set only TempToken and User.ID/User.Email are populated.
// RefreshToken is meant for the refresh cookie and must never be written to a
// response body. Refresh leaves RefreshToken and Session empty.
type LoginResult struct {
	Token        string
	RefreshToken string
	Session      *session.Record
	User         PublicUser

	TwoFAPending bool
	TempToken    string
}

// RegisterRequest is the input to Register.
type RegisterRequest struct {
	Email    string
	Password string
	Name     string
	Username string
}

// RegisterResult is the sanitized outcome of Register.
type RegisterResult struct {
	User PublicUser
}

// SessionInfo is the admin view of a refresh session.
type SessionInfo struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	CreatedAt  time.Time `json:"createdAt"`
	Expiration time.Time `json:"expiration"`
}
