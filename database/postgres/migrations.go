package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/cabinet"
)

func createFoldersTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	indexParent := pgx.Identifier{fmt.Sprintf("idx_%s_parent_uuid", tableName)}.Sanitize()

	// parent_uuid cascades on delete as a backstop only; the service deletes
	// children explicitly before the parent row.
	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			uuid TEXT NOT NULL UNIQUE,
			display_name TEXT NOT NULL,
			parent_uuid TEXT REFERENCES %s (uuid) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (parent_uuid)
		WHERE (parent_uuid IS NOT NULL);
	`,
		quotedTable, quotedTable,
		indexParent, quotedTable,
	)

	_, err := pool.Exec(ctx, sql)
	if err != nil {
		return fmt.Errorf("create folders table: %w", err)
	}
	return nil
}

func createFilesTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	indexFolder := pgx.Identifier{fmt.Sprintf("idx_%s_folder_uuid", tableName)}.Sanitize()

	// folder_uuid carries the 'root' sentinel for top-level files, so it has
	// no foreign key into the folders table.
	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			object_key TEXT NOT NULL,
			original_name TEXT NOT NULL,
			mime_type TEXT NOT NULL,
			size_bytes BIGINT NOT NULL,
			bucket TEXT NOT NULL,
			folder_uuid TEXT NOT NULL DEFAULT 'root',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (folder_uuid, id DESC);
	`,
		quotedTable,
		indexFolder, quotedTable,
	)

	_, err := pool.Exec(ctx, sql)
	if err != nil {
		return fmt.Errorf("create files table: %w", err)
	}
	return nil
}

// Migrate creates the folders and files tables if they do not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables cabinet.Tables) error {
	if err := createFoldersTable(ctx, pool, tables.Folders); err != nil {
		return fmt.Errorf("migrate %s: %w", tables.Folders, err)
	}

	if err := createFilesTable(ctx, pool, tables.Files); err != nil {
		return fmt.Errorf("migrate %s: %w", tables.Files, err)
	}

	return nil
}

// DropTables removes the metadata tables. Intended for tests.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables cabinet.Tables) error {
	for _, tableName := range []string{tables.Files, tables.Folders} {
		quotedTable := pgx.Identifier{tableName}.Sanitize()
		if _, err := pool.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s CASCADE`, quotedTable)); err != nil {
			return fmt.Errorf("drop table %s: %w", tableName, err)
		}
	}
	return nil
}
