package filestorage

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

// CertificateFolder is the folder every supporting document is stored under
const CertificateFolder = "certificates"

// StoredFile describes an uploaded object
type StoredFile struct {
	URL      string // Publicly reachable address of the object
	PublicID string // Storage key, used to delete the object later
	FileSize int64
	MimeType string
}

// Uploader is an object-storage style collaborator keyed by public id
type Uploader interface {
	// Upload stores the file under publicID; the stored object keeps the original extension.
	Upload(ctx context.Context, fileHeader *multipart.FileHeader, publicID string) (*StoredFile, error)

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, publicID string) error
}

// BuildPublicID returns "certificates/<studentID>_<unixMillis>_<basename>" where
// basename is the original file name without directory or extension.
func BuildPublicID(studentID, originalName string, at time.Time) string {
	base := filepath.Base(strings.ReplaceAll(originalName, "\\", "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return fmt.Sprintf("%s/%s_%d_%s", CertificateFolder, sanitize(studentID), at.UnixMilli(), sanitize(base))
}

func sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_', r == '.':
			return r
		case unicode.IsSpace(r):
			return '_'
		default:
			return -1
		}
	}, s)
	s = strings.Trim(s, ".")
	if s == "" {
		return "file"
	}
	return s
}
