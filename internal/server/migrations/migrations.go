// Package migrations embeds the goose SQL migrations of the lifecycle schema.
package migrations

import "embed"

// Migrations holds every *.sql file of this directory.
//
//go:embed *.sql
var Migrations embed.FS
