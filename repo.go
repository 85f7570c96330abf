package cabinet

import (
	"context"
	"io"
	"time"
)

// FolderRepo defines the interface for folder hierarchy persistence.
// Implementations must handle concurrent access safely.
//
// All methods accept a context for cancellation and timeout control.
// Lookups return ErrNotFound when no matching row exists.
type FolderRepo interface {
	// CreateFolder inserts a new folder row. ParentUUID is nil for root-level
	// folders. Display names are not unique; siblings may share a name.
	CreateFolder(ctx context.Context, uuid, displayName string, parentUUID *string) (Folder, error)

	// GetFolder retrieves a folder by its uuid.
	GetFolder(ctx context.Context, uuid string) (Folder, error)

	// ListChildFolders returns the immediate sub-folders of the given parent,
	// ordered by display name ascending. A nil parent lists root-level folders.
	ListChildFolders(ctx context.Context, parentUUID *string) ([]Folder, error)

	// DeleteFolder removes a single folder row by uuid. Deleting a folder that
	// does not exist is a no-op.
	DeleteFolder(ctx context.Context, uuid string) error
}

// FileRepo defines the interface for file record persistence.
type FileRepo interface {
	// InsertFile inserts a new file record and returns it with the assigned id.
	InsertFile(ctx context.Context, entry NewFileEntry) (FileRecord, error)

	// GetFile retrieves a file record by id.
	GetFile(ctx context.Context, id int64) (FileRecord, error)

	// ListFilesByFolder returns the files directly inside the given folder
	// (RootFolder for root-resident files), ordered by id descending.
	ListFilesByFolder(ctx context.Context, folderUUID string) ([]FileRecord, error)

	// ListAllFiles returns every file record, ordered by id descending.
	ListAllFiles(ctx context.Context) ([]FileRecord, error)

	// DeleteFile removes a single file record by id. Deleting a record that
	// does not exist is a no-op.
	DeleteFile(ctx context.Context, id int64) error
}

// MetadataRepo combines folder and file persistence. Both entity sets live in
// the same relational store and are mutated exclusively through the Service.
type MetadataRepo interface {
	FolderRepo
	FileRepo
}

// ObjectStorage defines the capability interface over the S3-compatible
// backend. Implementations wrap the store's native error signaling into the
// package sentinels where the contract requires it.
type ObjectStorage interface {
	// Put stores content under key. The write is atomic from the caller's
	// point of view: on error no partial object is observable.
	Put(ctx context.Context, key, contentType string, content io.Reader, size int64) error

	// Get returns a reader for the object's bytes. Returns ErrObjectMissing
	// (wrapped) when the key does not exist, distinguishable from transport
	// failures. The caller is responsible for closing the returned reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object under key. Deleting an absent key is not an
	// error; the operation is idempotent.
	Delete(ctx context.Context, key string) error

	// PresignPut returns a time-bounded signed URL allowing one PUT of the
	// given content type to key.
	PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)

	// PresignGet returns a time-bounded signed URL for downloading key. The
	// response content type and disposition headers are forced to the given
	// values, overriding whatever the object store would natively report.
	PresignGet(ctx context.Context, key, responseContentType, responseDisposition string, ttl time.Duration) (string, error)

	// EnsureBucket creates the backing bucket if it does not already exist.
	// An already-existing bucket is not an error.
	EnsureBucket(ctx context.Context) error

	// Bucket returns the name of the backing bucket.
	Bucket() string
}
