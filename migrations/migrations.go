// Package migrations embeds the SQL migrations of the table store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
