// Package totp verifies RFC 6238 time-based one-time codes against base32 secrets as
// stored by the secondary platform.
package totp
