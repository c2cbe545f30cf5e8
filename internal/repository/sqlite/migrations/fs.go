// Package migrations holds the SQLite schema migrations and a minimal
// runner that applies them in filename order.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
