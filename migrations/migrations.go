// Package migrations embeds the Postgres schema for the user service.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
