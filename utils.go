package cabinet

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// NewObjectKey generates a fresh object-store key for a file with the given
// display name: a random uuid plus the original extension. Keys are never
// derived from client-controlled paths, so collisions and traversal are not a
// concern.
func NewObjectKey(originalName string) string {
	return uuid.NewString() + filepath.Ext(originalName)
}

// NormalizeFolderUUID collapses the accepted spellings of "root" ("", "null",
// "root") to the RootFolder sentinel. Any other value is passed through as a
// folder uuid.
func NormalizeFolderUUID(folderUUID string) string {
	switch folderUUID {
	case "", "null", RootFolder:
		return RootFolder
	default:
		return folderUUID
	}
}

// IsRootFolder reports whether the given value names the root folder.
func IsRootFolder(folderUUID string) bool {
	return NormalizeFolderUUID(folderUUID) == RootFolder
}

// AttachmentDisposition builds a Content-Disposition header value that forces
// a download under the given filename. Non-ASCII names are carried in the
// RFC 5987 filename* parameter as percent-encoded UTF-8, which survives
// round-tripping through browsers and S3 response header overrides.
func AttachmentDisposition(filename string) string {
	return `attachment; filename*=UTF-8''` + PercentEncode(filename)
}

// PercentEncode percent-encodes a string per RFC 5987 attr-char rules: ASCII
// letters, digits, and a small set of marks pass through, every other byte of
// the UTF-8 encoding is escaped.
func PercentEncode(s string) string {
	const upperhex = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isAttrChar(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0xf])
	}
	return b.String()
}

// isAttrChar reports whether c is an attr-char per RFC 5987 section 3.2.1.
func isAttrChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	switch c {
	case '!', '#', '$', '&', '+', '-', '.', '^', '_', '`', '|', '~':
		return true
	}
	return false
}
