// Package migrations contains embedded SQL migrations for the primary store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
