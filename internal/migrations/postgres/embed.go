// Package postgres embeds the goose migrations of the primary store.
package postgres

import "embed"

//go:embed *.sql
var Migrations embed.FS
