// Package database selects and connects a metadata backend.
//
// Two backends are supported: SQLite (modernc.org/sqlite, no cgo) for single
// node deployments, and PostgreSQL (pgx/v5) for everything else. Both
// implement cabinet.MetadataRepo over the same two tables, folders and files,
// with configurable table names.
//
// Connect opens the backend named in Config, runs migrations, and returns the
// repo together with a cleanup function that closes the underlying
// connection.
package database
