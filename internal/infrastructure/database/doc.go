// Package database provides SQLite connectivity for PlevenLab Core.
//
// This package manages:
//   - Opening the database file with WAL mode and a busy timeout
//   - Applying versioned SQL migrations from an fs.FS
//   - Health checks used by the /health endpoint
//
// SQLite allows a single writer, so the pool is capped at one open
// connection. All queries in the repositories use parameterised statements.
//
// Usage:
//
//	db, err := database.Open(ctx, cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if _, err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql with an
// optional matching .down.sql. Each one runs in its own transaction and is
// recorded in schema_migrations.
package database
