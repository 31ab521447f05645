// Package migrations embeds the schema migration files so the server and the
// tests always apply the same schema, regardless of working directory.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
