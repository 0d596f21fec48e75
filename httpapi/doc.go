// Package httpapi is the HTTP route table of the authentication bridge.
//
// Routes are tiered: public auth routes, routes behind [middleware.Required], admin
// routes that add [middleware.RequireAdmin], and one API-key route. Engine errors are
// mapped to status codes in a single place (errors.go) and rendered as
// {"message": "..."} bodies. The refresh token only ever travels in the
// refreshToken cookie.
package httpapi
