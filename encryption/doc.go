// Package encryption seals short strings with AES-256-GCM under a key derived from an
// operator passphrase. The engine uses it to build the opaque cross-platform proof
// carried in access tokens.
package encryption
