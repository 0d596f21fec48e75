// Package bridgeAuth authenticates users of two independently owned chat platforms
// behind one login, one bearer token and one session lifecycle.
//
// The secondary platform's user store is canonical for identity and passwords. The
// primary platform keeps a best-effort mirror of each user, created lazily by
// [Engine.EnsureMirrored] on login, registration and refresh. Access tokens carry an
// encrypted proof claim ("p") derived from both platforms' shared secrets so that one
// signed token satisfies both verifiers.
//
// Engine methods are safe to call from multiple goroutines after [Builder.Build].
//
// # Architecture boundaries
//
// bridgeAuth is the public surface: [Engine], [Builder], [Config], the user value types
// and the collaborator interfaces the engine is wired with. Token signing lives in jwt/,
// refresh sessions in session/, hashing in password/ and totp/. HTTP concerns live in
// middleware/ and httpapi/.
//
// # What this package must NOT do
//
//   - Write HTTP responses or cookies.
//   - Roll back a half-created user across the two stores; EnsureMirrored heals instead.
//   - Return refresh tokens anywhere other than LoginResult.RefreshToken.
package bridgeAuth
