package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/cabinet"
)

// quoteIdentifier safely quotes a SQLite identifier
func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

func createFoldersTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		quoted := quoteIdentifier(tableName)
		index := quoteIdentifier(fmt.Sprintf("idx_%s_parent_uuid", tableName))

		query := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				uuid TEXT NOT NULL UNIQUE,
				display_name TEXT NOT NULL,
				parent_uuid TEXT DEFAULT NULL REFERENCES %s (uuid) ON DELETE CASCADE,
				created_at TEXT NOT NULL
			);

			CREATE INDEX IF NOT EXISTS %s ON %s (parent_uuid);
		`, quoted, quoted, index, quoted)

		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("create folders table: %w", err)
		}
		return nil
	}
}

func createFilesTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		quoted := quoteIdentifier(tableName)
		index := quoteIdentifier(fmt.Sprintf("idx_%s_folder_uuid", tableName))

		query := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				object_key TEXT NOT NULL,
				original_name TEXT NOT NULL,
				mime_type TEXT NOT NULL,
				size_bytes INTEGER NOT NULL,
				bucket TEXT NOT NULL,
				folder_uuid TEXT NOT NULL DEFAULT 'root',
				created_at TEXT NOT NULL
			);

			CREATE INDEX IF NOT EXISTS %s ON %s (folder_uuid, id DESC);
		`, quoted, index, quoted)

		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("create files table: %w", err)
		}
		return nil
	}
}

func dropTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		query := fmt.Sprintf(`DROP TABLE IF EXISTS %s`, quoteIdentifier(tableName))
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("drop table %s: %w", tableName, err)
		}
		return nil
	}
}

type TableMigration struct {
	TableName string
	Up        func(ctx context.Context, db *sql.DB) error
	Down      func(ctx context.Context, db *sql.DB) error
}

// getTableMigrations returns all table migrations for the app
func getTableMigrations(tables cabinet.Tables) []TableMigration {
	return []TableMigration{
		{
			TableName: tables.Folders,
			Up:        createFoldersTable(tables.Folders),
			Down:      dropTable(tables.Folders),
		},
		{
			TableName: tables.Files,
			Up:        createFilesTable(tables.Files),
			Down:      dropTable(tables.Files),
		},
	}
}

func Migrate(ctx context.Context, db *sql.DB, tables cabinet.Tables) error {
	migrations := getTableMigrations(tables)

	for _, migration := range migrations {
		if err := migration.Up(ctx, db); err != nil {
			return fmt.Errorf("migrate up %s: %w", migration.TableName, err)
		}
	}

	return nil
}

func DropTables(ctx context.Context, db *sql.DB, tables cabinet.Tables) error {
	migrations := getTableMigrations(tables)

	for i := len(migrations) - 1; i >= 0; i-- {
		migration := migrations[i]
		if err := migration.Down(ctx, db); err != nil {
			return fmt.Errorf("migrate down %s: %w", migration.TableName, err)
		}
	}

	return nil
}
