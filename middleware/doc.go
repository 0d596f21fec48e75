// Package middleware is the HTTP gate in front of every protected route.
//
// # Gates
//
//   - [Required] verifies the bearer access token and attaches the caller.
//   - [RequireAdmin] allows only callers with the admin role. Chain it after Required.
//   - [OptionalAuth] attaches the caller when a valid token is present and never rejects.
//   - [APIKey] accepts a bearer API key from the primary platform's key table.
//   - [ClientIP] records the caller address for throttling and audit.
//
// All token decisions are delegated to the engine's VerifyToken; this package only
// translates HTTP to engine calls and engine errors to status codes. Rejections are
// written as {"message": "..."} JSON bodies.
package middleware
