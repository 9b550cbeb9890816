// Package migrations embeds the SQLite schema for the directory store so the
// binary can create its tables without SQL files on disk.
package migrations

import "embed"

// FS holds every *.sql file in this directory at the root of the filesystem.
//
//go:embed *.sql
var FS embed.FS
