// Package db embeds the PostgreSQL migrations of the kasir store.
package db

import "embed"

// Migrations holds the numbered *.sql files, applied in lexical order. Every
// statement is idempotent so the set can run on each startup.
//
//go:embed migrations/*.sql
var Migrations embed.FS
