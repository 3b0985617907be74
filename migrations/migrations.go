// Package migrations embeds the SQL schema for the automation engine's
// own tables and the collaborator tables used in local development.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
