package cabinet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Service is the consistency layer between the metadata store and the object
// store. It owns every mutation of Folder and FileRecord rows and decides the
// ordering of cross-store writes so that no committed record claims bytes that
// were never stored, and no object delete leaves a record silently pointing at
// nothing without the failure being surfaced.
type Service struct {
	repo        MetadataRepo
	storage     ObjectStorage
	uploadTTL   time.Duration
	downloadTTL time.Duration
}

// ServiceConfig holds configuration options for Service.
type ServiceConfig struct {
	UploadURLTTL   time.Duration // validity of presigned upload URLs (default: 10m)
	DownloadURLTTL time.Duration // validity of presigned download URLs (default: 1h)
}

func NewService(repo MetadataRepo, storage ObjectStorage, cfg ServiceConfig) (*Service, error) {
	if repo == nil {
		return nil, errors.New("new service: metadata repo is required")
	}
	if storage == nil {
		return nil, errors.New("new service: object storage is required")
	}

	uploadTTL := cfg.UploadURLTTL
	if uploadTTL <= 0 {
		uploadTTL = 10 * time.Minute
	}
	downloadTTL := cfg.DownloadURLTTL
	if downloadTTL <= 0 {
		downloadTTL = time.Hour
	}

	return &Service{
		repo:        repo,
		storage:     storage,
		uploadTTL:   uploadTTL,
		downloadTTL: downloadTTL,
	}, nil
}

// InitBucket ensures the backing bucket exists. Call once at startup; an
// already-existing bucket is not an error.
func (s *Service) InitBucket(ctx context.Context) error {
	if err := s.storage.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("init bucket: %w", err)
	}
	return nil
}

// CreateFolder creates a folder with a freshly generated uuid. An absent,
// "null", or "root" parent places the folder at the top level. Display names
// are not unique; two siblings may share one.
func (s *Service) CreateFolder(ctx context.Context, displayName, parentUUID string) (Folder, error) {
	if err := ctx.Err(); err != nil {
		return Folder{}, fmt.Errorf("create folder: %w", err)
	}

	if displayName == "" {
		return Folder{}, fmt.Errorf("create folder: %w: display name cannot be empty", ErrInvalidInput)
	}

	var parent *string
	if !IsRootFolder(parentUUID) {
		parent = &parentUUID
	}

	folder, err := s.repo.CreateFolder(ctx, uuid.NewString(), displayName, parent)
	if err != nil {
		return Folder{}, fmt.Errorf("create folder %q: %w", displayName, err)
	}

	return folder, nil
}

// GetContent returns the immediate children of a folder: sub-folders ordered
// alphabetically, files most recent first. The root sentinel (or an absent
// value) addresses the top level. A uuid that matches no folder yields empty
// lists rather than an error; existence is not validated here.
func (s *Service) GetContent(ctx context.Context, folderUUID string) (FolderContent, error) {
	if err := ctx.Err(); err != nil {
		return FolderContent{}, fmt.Errorf("get content: %w", err)
	}

	canon := NormalizeFolderUUID(folderUUID)

	var parent *string
	if canon != RootFolder {
		parent = &canon
	}

	folders, err := s.repo.ListChildFolders(ctx, parent)
	if err != nil {
		return FolderContent{}, fmt.Errorf("get content %s: %w", canon, err)
	}

	files, err := s.repo.ListFilesByFolder(ctx, canon)
	if err != nil {
		return FolderContent{}, fmt.Errorf("get content %s: %w", canon, err)
	}

	return FolderContent{Folders: folders, Files: files}, nil
}

// GetBreadcrumbs resolves the ancestor chain of a folder for display,
// root-to-leaf, with a synthetic root entry prepended. The root sentinel
// short-circuits to the single root entry without touching the store. A
// dangling or cyclic parent reference terminates the walk early instead of
// erroring; breadcrumb display degrades gracefully.
func (s *Service) GetBreadcrumbs(ctx context.Context, folderUUID string) ([]Breadcrumb, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("get breadcrumbs: %w", err)
	}

	root := Breadcrumb{UUID: RootFolder, DisplayName: RootDisplayName}

	if IsRootFolder(folderUUID) {
		return []Breadcrumb{root}, nil
	}

	var chain []Breadcrumb
	seen := make(map[string]bool)

	current := folderUUID
	for current != "" && current != RootFolder {
		if seen[current] {
			break
		}
		seen[current] = true

		folder, err := s.repo.GetFolder(ctx, current)
		if errors.Is(err, ErrNotFound) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("get breadcrumbs %s: %w", folderUUID, err)
		}

		chain = append(chain, Breadcrumb{UUID: folder.UUID, DisplayName: folder.DisplayName})

		if folder.ParentUUID == nil {
			break
		}
		current = *folder.ParentUUID
	}

	crumbs := make([]Breadcrumb, 0, len(chain)+1)
	crumbs = append(crumbs, root)
	for i := len(chain) - 1; i >= 0; i-- {
		crumbs = append(crumbs, chain[i])
	}

	return crumbs, nil
}

// UploadViaServer stores content under a freshly generated object key, then
// commits the file record. The ordering is strict: bytes first, metadata only
// after the write is confirmed. A failed object write surfaces as
// ErrStorageWrite with no metadata written. If the metadata insert fails after
// the bytes landed, the object is orphaned in the store with nothing
// referencing it; that window is accepted and logged rather than closed with a
// distributed transaction.
func (s *Service) UploadViaServer(ctx context.Context, content io.Reader, originalName, mimeType string, sizeBytes int64, folderUUID string) (FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return FileRecord{}, fmt.Errorf("upload via server: %w", err)
	}

	if originalName == "" {
		return FileRecord{}, fmt.Errorf("upload via server: %w: original name cannot be empty", ErrInvalidInput)
	}

	if mimeType == "" {
		return FileRecord{}, fmt.Errorf("upload via server: %w: mime type cannot be empty", ErrInvalidInput)
	}

	key := NewObjectKey(originalName)

	if err := s.storage.Put(ctx, key, mimeType, content, sizeBytes); err != nil {
		return FileRecord{}, fmt.Errorf("upload via server %s: %w: %w", key, ErrStorageWrite, err)
	}

	record, err := s.repo.InsertFile(ctx, NewFileEntry{
		ObjectKey:    key,
		OriginalName: originalName,
		MimeType:     mimeType,
		SizeBytes:    sizeBytes,
		Bucket:       s.storage.Bucket(),
		FolderUUID:   NormalizeFolderUUID(folderUUID),
	})
	if err != nil {
		slog.Error("orphaned object: bytes stored but metadata insert failed",
			"object_key", key, "bucket", s.storage.Bucket(), "err", err)
		return FileRecord{}, fmt.Errorf("upload via server %s: metadata insert failed: %w", key, err)
	}

	return record, nil
}

// RequestUploadURL is phase 1 of the direct upload protocol: it generates an
// object key and returns a signed PUT URL scoped to that key and content type.
// No metadata is written; the caller transfers the bytes out of band and then
// calls ConfirmUpload.
func (s *Service) RequestUploadURL(ctx context.Context, filename, mimeType, folderUUID string) (PresignedUpload, error) {
	if err := ctx.Err(); err != nil {
		return PresignedUpload{}, fmt.Errorf("request upload url: %w", err)
	}

	if filename == "" {
		return PresignedUpload{}, fmt.Errorf("request upload url: %w: filename cannot be empty", ErrInvalidInput)
	}

	if mimeType == "" {
		return PresignedUpload{}, fmt.Errorf("request upload url: %w: mime type cannot be empty", ErrInvalidInput)
	}

	key := NewObjectKey(filename)

	url, err := s.storage.PresignPut(ctx, key, mimeType, s.uploadTTL)
	if err != nil {
		return PresignedUpload{}, fmt.Errorf("request upload url %s: %w", key, err)
	}

	return PresignedUpload{UploadURL: url, ObjectKey: key, FolderUUID: NormalizeFolderUUID(folderUUID)}, nil
}

// ConfirmUpload is phase 2 of the direct upload protocol: it commits the file
// record for an object key issued by RequestUploadURL. The caller's claim that
// the transfer succeeded is trusted; object existence is not verified here. A
// false claim leaves a record with no backing bytes, detected lazily at
// download time as ErrObjectMissing.
func (s *Service) ConfirmUpload(ctx context.Context, objectKey, originalName, mimeType string, sizeBytes int64, folderUUID string) (FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return FileRecord{}, fmt.Errorf("confirm upload: %w", err)
	}

	if objectKey == "" {
		return FileRecord{}, fmt.Errorf("confirm upload: %w: object key cannot be empty", ErrInvalidInput)
	}

	record, err := s.repo.InsertFile(ctx, NewFileEntry{
		ObjectKey:    objectKey,
		OriginalName: originalName,
		MimeType:     mimeType,
		SizeBytes:    sizeBytes,
		Bucket:       s.storage.Bucket(),
		FolderUUID:   NormalizeFolderUUID(folderUUID),
	})
	if err != nil {
		return FileRecord{}, fmt.Errorf("confirm upload %s: %w", objectKey, err)
	}

	return record, nil
}

// StreamDownload resolves a file record and opens a read stream for its
// bytes. A missing record yields ErrNotFound; a record whose bytes are gone
// from the object store yields ErrObjectMissing, so callers can tell "never
// existed" from "metadata says it exists but the bytes are gone".
func (s *Service) StreamDownload(ctx context.Context, fileID int64) (io.ReadCloser, FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, FileRecord{}, fmt.Errorf("stream download: %w", err)
	}

	record, err := s.repo.GetFile(ctx, fileID)
	if err != nil {
		return nil, FileRecord{}, fmt.Errorf("stream download %d: %w", fileID, err)
	}

	content, err := s.storage.Get(ctx, record.ObjectKey)
	if err != nil {
		if errors.Is(err, ErrObjectMissing) {
			slog.Error("dangling file record: metadata exists but object is gone",
				"file_id", record.ID, "object_key", record.ObjectKey, "bucket", record.Bucket)
		}
		return nil, FileRecord{}, fmt.Errorf("stream download %d: %w", fileID, err)
	}

	return content, record, nil
}

// PresignDownload resolves a file record and returns a signed GET URL that
// forces Content-Disposition to an attachment carrying the original name
// (percent-encoded per RFC 5987 for non-ASCII) and Content-Type to the stored
// mime type, correcting any drift from what the store natively reports.
func (s *Service) PresignDownload(ctx context.Context, fileID int64) (PresignedDownload, error) {
	if err := ctx.Err(); err != nil {
		return PresignedDownload{}, fmt.Errorf("presign download: %w", err)
	}

	record, err := s.repo.GetFile(ctx, fileID)
	if err != nil {
		return PresignedDownload{}, fmt.Errorf("presign download %d: %w", fileID, err)
	}

	url, err := s.storage.PresignGet(ctx, record.ObjectKey, record.MimeType, AttachmentDisposition(record.OriginalName), s.downloadTTL)
	if err != nil {
		return PresignedDownload{}, fmt.Errorf("presign download %d: %w", fileID, err)
	}

	return PresignedDownload{URL: url, Filename: record.OriginalName}, nil
}

// DeleteFile removes a file's bytes and then its record, in that order. The
// object delete is idempotent, so two concurrent deletes of the same id may
// both reach the store harmlessly. If the object delete fails the record is
// left intact and the call fails with ErrStorageDelete; a record is never
// deleted while its bytes might still need deleting.
func (s *Service) DeleteFile(ctx context.Context, fileID int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("delete file: %w", err)
	}

	record, err := s.repo.GetFile(ctx, fileID)
	if err != nil {
		return 0, fmt.Errorf("delete file %d: %w", fileID, err)
	}

	if err := s.storage.Delete(ctx, record.ObjectKey); err != nil {
		return 0, fmt.Errorf("delete file %d: %w: %w", fileID, ErrStorageDelete, err)
	}

	if err := s.repo.DeleteFile(ctx, fileID); err != nil {
		// The bytes are gone but the record survived. Surfaced here, detected
		// again at the next download attempt as ErrObjectMissing.
		slog.Error("stale file record: object deleted but metadata delete failed",
			"file_id", fileID, "object_key", record.ObjectKey, "err", err)
		return 0, fmt.Errorf("delete file %d: metadata delete failed: %w", fileID, err)
	}

	return fileID, nil
}

// DeleteFolder recursively deletes a folder: depth-first into sub-folders,
// then this folder's files (object bytes before record, fail-fast on the
// first object-store failure), and the folder's own row only once every
// descendant is gone. A crash or abort mid-recursion leaves a smaller forest
// that is still internally consistent, and a retry resumes from where the
// previous attempt stopped.
func (s *Service) DeleteFolder(ctx context.Context, folderUUID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("delete folder: %w", err)
	}

	if IsRootFolder(folderUUID) {
		return "", fmt.Errorf("delete folder: %w: cannot delete the root folder", ErrInvalidInput)
	}

	if _, err := s.repo.GetFolder(ctx, folderUUID); err != nil {
		return "", fmt.Errorf("delete folder %s: %w", folderUUID, err)
	}

	if err := s.deleteFolderTree(ctx, folderUUID); err != nil {
		return "", fmt.Errorf("delete folder %s: %w", folderUUID, err)
	}

	return folderUUID, nil
}

func (s *Service) deleteFolderTree(ctx context.Context, folderUUID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	subFolders, err := s.repo.ListChildFolders(ctx, &folderUUID)
	if err != nil {
		return err
	}

	for _, sub := range subFolders {
		if err := s.deleteFolderTree(ctx, sub.UUID); err != nil {
			return err
		}
	}

	files, err := s.repo.ListFilesByFolder(ctx, folderUUID)
	if err != nil {
		return err
	}

	for _, file := range files {
		if err := s.storage.Delete(ctx, file.ObjectKey); err != nil {
			return fmt.Errorf("file %d (%s): %w: %w", file.ID, file.ObjectKey, ErrStorageDelete, err)
		}
		if err := s.repo.DeleteFile(ctx, file.ID); err != nil {
			slog.Error("stale file record during folder delete",
				"file_id", file.ID, "object_key", file.ObjectKey, "err", err)
			return fmt.Errorf("file %d: metadata delete failed: %w", file.ID, err)
		}
	}

	// Children are all gone; the folder row goes last so the forest invariant
	// holds at every intermediate state.
	return s.repo.DeleteFolder(ctx, folderUUID)
}

// ListAllFiles returns every file record across all folders, most recent
// first.
func (s *Service) ListAllFiles(ctx context.Context) ([]FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list all files: %w", err)
	}

	files, err := s.repo.ListAllFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all files: %w", err)
	}

	return files, nil
}
