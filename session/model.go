package session

import "time"

// Record is one refresh session owned by a secondary-store user.
type Record struct {
	ID          string
	UserID      string
	RefreshHash [32]byte
	CreatedAt   time.Time
	Expiration  time.Time
}

// Expired reports whether the record is past its expiration at now.
func (r *Record) Expired(now time.Time) bool {
	return r.Expiration.Before(now)
}

// Lookup selects a session by refresh token, optionally restricted to one owner.
type Lookup struct {
	UserID       string
	RefreshToken string
}
