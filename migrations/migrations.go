// Package migrations embeds the SQL migration files so the server binary can
// apply them regardless of its working directory.
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS
