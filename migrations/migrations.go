// Package migrations embeds the SQL schema files so the binary carries
// its own migrations.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
