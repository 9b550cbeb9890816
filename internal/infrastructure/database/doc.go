// Package database provides SQLite connectivity for the directory store.
//
// The registry can persist its document in a single-row SQLite table instead
// of a JSON file. This package owns the connection and the schema:
//   - WAL mode and busy timeout configured on the connection string
//   - a single open connection, matching SQLite's single writer
//   - forward-only migrations tracked in schema_migrations
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{
//	    Path:        cfg.Registry.Database.Path,
//	    WALMode:     true,
//	    BusyTimeout: 5,
//	    Migrations:  migrations.FS,
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql. Each runs in
// its own transaction; a failed migration is rolled back and the ones before
// it stay applied. Files are never edited after release, only added.
package database
