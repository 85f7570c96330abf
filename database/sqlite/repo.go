// Package sqlite implements cabinet.MetadataRepo using SQLite
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sagarc03/cabinet"
)

type repo struct {
	db      *sql.DB
	folders string
	files   string
}

func NewRepo(db *sql.DB, tables cabinet.Tables) (cabinet.MetadataRepo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &repo{db: db, folders: tables.Folders, files: tables.Files}, nil
}

func (r *repo) CreateFolder(ctx context.Context, uuid, displayName string, parentUUID *string) (cabinet.Folder, error) {
	now := time.Now().UTC()

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (uuid, display_name, parent_uuid, created_at)
		VALUES (?, ?, ?, ?)`, r.folders)

	result, err := r.db.ExecContext(ctx, query, uuid, displayName, parentUUID, now.Format(time.RFC3339Nano))
	if err != nil {
		return cabinet.Folder{}, fmt.Errorf("create folder: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return cabinet.Folder{}, fmt.Errorf("create folder: last insert id: %w", err)
	}

	return cabinet.Folder{
		ID:          id,
		UUID:        uuid,
		DisplayName: displayName,
		ParentUUID:  parentUUID,
		CreatedAt:   now,
	}, nil
}

func (r *repo) GetFolder(ctx context.Context, uuid string) (cabinet.Folder, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, uuid, display_name, parent_uuid, created_at
		FROM %s
		WHERE uuid = ?`, r.folders)

	f, err := scanFolder(r.db.QueryRowContext(ctx, query, uuid))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return cabinet.Folder{}, cabinet.ErrNotFound
		}
		return cabinet.Folder{}, fmt.Errorf("get folder: %w", err)
	}

	return f, nil
}

func (r *repo) ListChildFolders(ctx context.Context, parentUUID *string) ([]cabinet.Folder, error) {
	var query string
	var args []any

	if parentUUID == nil {
		query = fmt.Sprintf( //nolint:gosec // G201: table name is validated
			`SELECT id, uuid, display_name, parent_uuid, created_at
			FROM %s
			WHERE parent_uuid IS NULL
			ORDER BY display_name ASC`, r.folders)
	} else {
		query = fmt.Sprintf( //nolint:gosec // G201: table name is validated
			`SELECT id, uuid, display_name, parent_uuid, created_at
			FROM %s
			WHERE parent_uuid = ?
			ORDER BY display_name ASC`, r.folders)
		args = []any{*parentUUID}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list child folders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	folders := make([]cabinet.Folder, 0)
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("list child folders: %w", err)
		}
		folders = append(folders, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list child folders: rows: %w", err)
	}

	return folders, nil
}

func (r *repo) DeleteFolder(ctx context.Context, uuid string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE uuid = ?`, r.folders) //nolint:gosec // table name is validated

	if _, err := r.db.ExecContext(ctx, query, uuid); err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}

	return nil
}

func (r *repo) InsertFile(ctx context.Context, entry cabinet.NewFileEntry) (cabinet.FileRecord, error) {
	now := time.Now().UTC()

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (object_key, original_name, mime_type, size_bytes, bucket, folder_uuid, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, r.files)

	result, err := r.db.ExecContext(ctx, query,
		entry.ObjectKey, entry.OriginalName, entry.MimeType, entry.SizeBytes,
		entry.Bucket, entry.FolderUUID, now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return cabinet.FileRecord{}, fmt.Errorf("insert file: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return cabinet.FileRecord{}, fmt.Errorf("insert file: last insert id: %w", err)
	}

	return cabinet.FileRecord{
		ID:           id,
		ObjectKey:    entry.ObjectKey,
		OriginalName: entry.OriginalName,
		MimeType:     entry.MimeType,
		SizeBytes:    entry.SizeBytes,
		Bucket:       entry.Bucket,
		FolderUUID:   entry.FolderUUID,
		CreatedAt:    now,
	}, nil
}

func (r *repo) GetFile(ctx context.Context, id int64) (cabinet.FileRecord, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, object_key, original_name, mime_type, size_bytes, bucket, folder_uuid, created_at
		FROM %s
		WHERE id = ?`, r.files)

	f, err := scanFile(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return cabinet.FileRecord{}, cabinet.ErrNotFound
		}
		return cabinet.FileRecord{}, fmt.Errorf("get file: %w", err)
	}

	return f, nil
}

func (r *repo) ListFilesByFolder(ctx context.Context, folderUUID string) ([]cabinet.FileRecord, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, object_key, original_name, mime_type, size_bytes, bucket, folder_uuid, created_at
		FROM %s
		WHERE folder_uuid = ?
		ORDER BY id DESC`, r.files)

	return r.queryFiles(ctx, "list files by folder", query, folderUUID)
}

func (r *repo) ListAllFiles(ctx context.Context) ([]cabinet.FileRecord, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, object_key, original_name, mime_type, size_bytes, bucket, folder_uuid, created_at
		FROM %s
		ORDER BY id DESC`, r.files)

	return r.queryFiles(ctx, "list all files", query)
}

func (r *repo) queryFiles(ctx context.Context, opName, query string, args ...any) ([]cabinet.FileRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opName, err)
	}
	defer func() { _ = rows.Close() }()

	files := make([]cabinet.FileRecord, 0)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", opName, err)
		}
		files = append(files, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", opName, err)
	}

	return files, nil
}

func (r *repo) DeleteFile(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, r.files) //nolint:gosec // table name is validated

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}

	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanFolder(s scanner) (cabinet.Folder, error) {
	var f cabinet.Folder
	var createdAt string

	if err := s.Scan(&f.ID, &f.UUID, &f.DisplayName, &f.ParentUUID, &createdAt); err != nil {
		return cabinet.Folder{}, err
	}

	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return cabinet.Folder{}, fmt.Errorf("parse created_at: %w", err)
	}
	f.CreatedAt = t

	return f, nil
}

func scanFile(s scanner) (cabinet.FileRecord, error) {
	var f cabinet.FileRecord
	var createdAt string

	if err := s.Scan(&f.ID, &f.ObjectKey, &f.OriginalName, &f.MimeType, &f.SizeBytes, &f.Bucket, &f.FolderUUID, &createdAt); err != nil {
		return cabinet.FileRecord{}, err
	}

	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return cabinet.FileRecord{}, fmt.Errorf("parse created_at: %w", err)
	}
	f.CreatedAt = t

	return f, nil
}
