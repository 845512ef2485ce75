// Package sqlite embeds the goose migrations of the fallback store.
package sqlite

import "embed"

//go:embed *.sql
var Migrations embed.FS
