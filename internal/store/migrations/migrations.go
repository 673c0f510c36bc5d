// Package migrations embeds the SQL schema for the local hangouts.db.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
