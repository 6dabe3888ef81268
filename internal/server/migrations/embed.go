// Package migrations embeds the server's SQL schema migrations so the binary
// needs no migration files on disk.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
