package cabinet

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// RootFolder is the canonical identifier for the top-level folder. It has no
// backing row in the folders table; files that live at the root carry it as
// their FolderUUID.
const RootFolder = "root"

// RootDisplayName is the display name reported for the synthetic root
// breadcrumb entry.
const RootDisplayName = "All Files"

// Folder is a node in the folder hierarchy. The parent graph over UUID is a
// forest: ParentUUID is nil for root-level folders and otherwise references an
// existing folder's UUID.
type Folder struct {
	ID          int64     `json:"id"`
	UUID        string    `json:"uuid"`
	DisplayName string    `json:"display_name"`
	ParentUUID  *string   `json:"parent_uuid"`
	CreatedAt   time.Time `json:"created_at"`
}

// FileRecord is the metadata row for one stored object. Once a record is
// durably committed its ObjectKey must correspond to an object in Bucket; the
// service preserves that invariant by ordering writes (bytes before metadata)
// and deletes (bytes before metadata).
type FileRecord struct {
	ID           int64     `json:"id"`
	ObjectKey    string    `json:"object_key"`
	OriginalName string    `json:"original_name"`
	MimeType     string    `json:"mime_type"`
	SizeBytes    int64     `json:"size_bytes"`
	Bucket       string    `json:"bucket"`
	FolderUUID   string    `json:"folder_uuid"`
	CreatedAt    time.Time `json:"created_at"`
}

// FolderContent holds the immediate children of a folder: sub-folders ordered
// by display name, files ordered by descending id.
type FolderContent struct {
	Folders []Folder     `json:"folders"`
	Files   []FileRecord `json:"files"`
}

// Breadcrumb is one entry of a root-to-leaf ancestor chain.
type Breadcrumb struct {
	UUID        string `json:"uuid"`
	DisplayName string `json:"display_name"`
}

// PresignedUpload is the phase-1 result of the direct upload protocol. The
// caller PUTs the bytes to UploadURL, then confirms with ObjectKey. The
// folder uuid is echoed back canonicalized so the caller can hand it to the
// confirm call unchanged.
type PresignedUpload struct {
	UploadURL  string `json:"upload_url"`
	ObjectKey  string `json:"object_key"`
	FolderUUID string `json:"folder_uuid"`
}

// PresignedDownload is a time-bounded direct download link for one file.
type PresignedDownload struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// NewFileEntry carries the fields of a file record about to be inserted.
type NewFileEntry struct {
	ObjectKey    string
	OriginalName string
	MimeType     string
	SizeBytes    int64
	Bucket       string
	FolderUUID   string
}

// Tables holds configurable table names for metadata storage.
// This allows multi-tenant deployments to use different table names.
type Tables struct {
	Folders string `mapstructure:"folders"`
	Files   string `mapstructure:"files"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Folders == "" {
		return errors.New("validate tables: folders table name cannot be empty")
	}

	if t.Files == "" {
		return errors.New("validate tables: files table name cannot be empty")
	}

	for _, name := range []string{t.Folders, t.Files} {
		if !IsValidTableName(name) {
			return fmt.Errorf("validate tables: invalid table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", name)
		}
	}

	if t.Folders == t.Files {
		return fmt.Errorf("validate tables: folders and files cannot share table name: %s", t.Folders)
	}

	return nil
}
