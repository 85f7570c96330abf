// Package postgres implements cabinet.MetadataRepo on PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/cabinet"
)

type Repo struct {
	pool    *pgxpool.Pool
	folders string
	files   string
}

func NewRepo(pool *pgxpool.Pool, tables cabinet.Tables) (*Repo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &Repo{pool: pool, folders: tables.Folders, files: tables.Files}, nil
}

// Ping verifies database connectivity
func (r *Repo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repo) CreateFolder(ctx context.Context, uuid, displayName string, parentUUID *string) (cabinet.Folder, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (uuid, display_name, parent_uuid)
		VALUES ($1, $2, $3)
		RETURNING id, uuid, display_name, parent_uuid, created_at
	`, r.folders)

	var f cabinet.Folder
	err := r.pool.QueryRow(ctx, query, uuid, displayName, parentUUID).Scan(
		&f.ID, &f.UUID, &f.DisplayName, &f.ParentUUID, &f.CreatedAt,
	)
	if err != nil {
		return cabinet.Folder{}, fmt.Errorf("create folder: %w", err)
	}

	return f, nil
}

func (r *Repo) GetFolder(ctx context.Context, uuid string) (cabinet.Folder, error) {
	query := fmt.Sprintf(`
		SELECT id, uuid, display_name, parent_uuid, created_at
		FROM %s
		WHERE uuid = $1
	`, r.folders)

	var f cabinet.Folder
	err := r.pool.QueryRow(ctx, query, uuid).Scan(
		&f.ID, &f.UUID, &f.DisplayName, &f.ParentUUID, &f.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return cabinet.Folder{}, cabinet.ErrNotFound
		}
		return cabinet.Folder{}, fmt.Errorf("get folder: %w", err)
	}

	return f, nil
}

func (r *Repo) ListChildFolders(ctx context.Context, parentUUID *string) ([]cabinet.Folder, error) {
	var query string
	var args []any

	if parentUUID == nil {
		query = fmt.Sprintf(`
			SELECT id, uuid, display_name, parent_uuid, created_at
			FROM %s
			WHERE parent_uuid IS NULL
			ORDER BY display_name ASC
		`, r.folders)
	} else {
		query = fmt.Sprintf(`
			SELECT id, uuid, display_name, parent_uuid, created_at
			FROM %s
			WHERE parent_uuid = $1
			ORDER BY display_name ASC
		`, r.folders)
		args = []any{*parentUUID}
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list child folders: %w", err)
	}
	defer rows.Close()

	folders := make([]cabinet.Folder, 0)
	for rows.Next() {
		var f cabinet.Folder
		if err := rows.Scan(&f.ID, &f.UUID, &f.DisplayName, &f.ParentUUID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("list child folders: scan: %w", err)
		}
		folders = append(folders, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list child folders: rows: %w", err)
	}

	return folders, nil
}

func (r *Repo) DeleteFolder(ctx context.Context, uuid string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE uuid = $1`, r.folders)

	if _, err := r.pool.Exec(ctx, query, uuid); err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}

	return nil
}

func (r *Repo) InsertFile(ctx context.Context, entry cabinet.NewFileEntry) (cabinet.FileRecord, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (object_key, original_name, mime_type, size_bytes, bucket, folder_uuid)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, object_key, original_name, mime_type, size_bytes, bucket, folder_uuid, created_at
	`, r.files)

	var f cabinet.FileRecord
	err := r.pool.QueryRow(ctx, query,
		entry.ObjectKey, entry.OriginalName, entry.MimeType, entry.SizeBytes, entry.Bucket, entry.FolderUUID,
	).Scan(
		&f.ID, &f.ObjectKey, &f.OriginalName, &f.MimeType, &f.SizeBytes, &f.Bucket, &f.FolderUUID, &f.CreatedAt,
	)
	if err != nil {
		return cabinet.FileRecord{}, fmt.Errorf("insert file: %w", err)
	}

	return f, nil
}

func (r *Repo) GetFile(ctx context.Context, id int64) (cabinet.FileRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, object_key, original_name, mime_type, size_bytes, bucket, folder_uuid, created_at
		FROM %s
		WHERE id = $1
	`, r.files)

	var f cabinet.FileRecord
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&f.ID, &f.ObjectKey, &f.OriginalName, &f.MimeType, &f.SizeBytes, &f.Bucket, &f.FolderUUID, &f.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return cabinet.FileRecord{}, cabinet.ErrNotFound
		}
		return cabinet.FileRecord{}, fmt.Errorf("get file: %w", err)
	}

	return f, nil
}

func (r *Repo) ListFilesByFolder(ctx context.Context, folderUUID string) ([]cabinet.FileRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, object_key, original_name, mime_type, size_bytes, bucket, folder_uuid, created_at
		FROM %s
		WHERE folder_uuid = $1
		ORDER BY id DESC
	`, r.files)

	return r.queryFiles(ctx, "list files by folder", query, folderUUID)
}

func (r *Repo) ListAllFiles(ctx context.Context) ([]cabinet.FileRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, object_key, original_name, mime_type, size_bytes, bucket, folder_uuid, created_at
		FROM %s
		ORDER BY id DESC
	`, r.files)

	return r.queryFiles(ctx, "list all files", query)
}

func (r *Repo) queryFiles(ctx context.Context, opName, query string, args ...any) ([]cabinet.FileRecord, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opName, err)
	}
	defer rows.Close()

	files := make([]cabinet.FileRecord, 0)
	for rows.Next() {
		var f cabinet.FileRecord
		if err := rows.Scan(&f.ID, &f.ObjectKey, &f.OriginalName, &f.MimeType, &f.SizeBytes, &f.Bucket, &f.FolderUUID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", opName, err)
		}
		files = append(files, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", opName, err)
	}

	return files, nil
}

func (r *Repo) DeleteFile(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.files)

	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}

	return nil
}
