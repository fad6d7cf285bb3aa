// Package migrations embeds the SQL schema so the API binary can migrate on startup.
package migrations

import "embed"

// FS holds every *.sql migration
//
//go:embed *.sql
var FS embed.FS
