// Package migrations embeds the SQL schema applied by repository.RunMigrations.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
