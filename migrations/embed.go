// Package migrations embeds the SQL schema migrations so the goose
// programmatic API can apply them at server bootstrap and in tests.
package migrations

import "embed"

// FS holds all *.sql migration files embedded at compile time, so the
// running binary never depends on a migrations directory on disk.
//
//go:embed *.sql
var FS embed.FS
