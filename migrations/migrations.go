// Package migrations embeds the schema migration files so the migrate binary
// ships them without needing the source tree on disk.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
