// Package session persists refresh sessions in Redis.
//
// A session is created at login, looked up by the opaque refresh token handed to the
// client, and removed at logout. Records otherwise expire passively through the Redis
// key TTL, which always equals the record's Expiration.
//
// # Refresh tokens
//
// The refresh token is base64url(session id || 32-byte secret). Only the SHA-256 of the
// secret is stored, so a leaked Redis snapshot cannot be replayed as a cookie.
//
// # Key layout
//
//	<prefix>:<sessionID>   binary Record, TTL = Expiration
//	<prefix>u:<userID>     set of session ids owned by the user
//
// This package does not interpret access tokens or make authorization decisions.
package session
