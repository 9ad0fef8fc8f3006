package filestorage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// LocalStorage implements Uploader on the local filesystem.
type LocalStorage struct {
	basePath string // The root directory where files will be stored
	baseURL  string // The URL prefix the root directory is served under
	log      zerolog.Logger
}

// NewLocalStorage creates a new LocalStorage instance, creating basePath if needed.
func NewLocalStorage(basePath, baseURL string, log zerolog.Logger) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	log.Info().Str("path", basePath).Msg("Local storage directory ensured")

	return &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
		log:      log,
	}, nil
}

// Upload copies the multipart file to <basePath>/<publicID><ext>.
func (ls *LocalStorage) Upload(ctx context.Context, fileHeader *multipart.FileHeader, publicID string) (*StoredFile, error) {
	if fileHeader == nil {
		return nil, fmt.Errorf("no file to upload")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	relPath, err := ls.objectPath(publicID + strings.ToLower(filepath.Ext(fileHeader.Filename)))
	if err != nil {
		return nil, err
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dstPath := filepath.Join(ls.basePath, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	dst, err := os.Create(dstPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create destination file: %w", err)
	}

	written, err := io.Copy(dst, src)
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dstPath)
		return nil, fmt.Errorf("failed to save file content: %w", err)
	}

	ls.log.Info().
		Str("filename", fileHeader.Filename).
		Str("publicID", publicID).
		Int64("bytes", written).
		Msg("File stored")

	return &StoredFile{
		URL:      ls.baseURL + "/" + relPath,
		PublicID: relPath,
		FileSize: written,
		MimeType: fileHeader.Header.Get("Content-Type"),
	}, nil
}

// Delete removes the object stored under publicID.
func (ls *LocalStorage) Delete(_ context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	relPath, err := ls.objectPath(publicID)
	if err != nil {
		return err
	}

	physicalPath := filepath.Join(ls.basePath, filepath.FromSlash(relPath))
	if err := os.Remove(physicalPath); err != nil {
		if os.IsNotExist(err) {
			ls.log.Warn().Str("path", physicalPath).Msg("File to delete does not exist")
			return nil
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}

	ls.log.Info().Str("path", physicalPath).Msg("File deleted")
	return nil
}

// objectPath cleans a public id into a slash-separated path that stays inside basePath.
func (ls *LocalStorage) objectPath(publicID string) (string, error) {
	cleaned := path.Clean("/" + strings.ReplaceAll(publicID, "\\", "/"))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." {
		return "", fmt.Errorf("invalid public id: %q", publicID)
	}
	return cleaned, nil
}
