// Package migrations embeds the numbered SQL schema files (NNN_description.sql).
package migrations

import "embed"

// Files holds every *.sql migration in this directory.
//
//go:embed *.sql
var Files embed.FS
