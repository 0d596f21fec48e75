// Package secondary is the SQLite adapter for the secondary platform's user table,
// the canonical store for identity and credentials. It implements
// bridgeAuth.SecondaryUserStore with modernc.org/sqlite. Password hashes and TOTP
// secrets are only returned when the caller's Projection asks for them.
package secondary
