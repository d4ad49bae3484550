package services

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"idea-portal-api/utils"
)

// Attachment MIME types accepted for ideas.
var allowedAttachmentTypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
}

// DefaultMaxAttachmentBytes bounds attachment size unless overridden.
const DefaultMaxAttachmentBytes = int64(500) * 1024 * 1024

// AttachmentStore is durable byte storage addressed by path.
type AttachmentStore interface {
	Save(filename, mimeType string, size int64, r io.Reader) (*AttachmentMeta, error)
	Open(path string) (io.ReadCloser, error)
}

type diskAttachmentStore struct {
	baseDir string
}

// NewDiskAttachmentStore stores attachment blobs as files under baseDir.
func NewDiskAttachmentStore(baseDir string) (AttachmentStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create attachment directory: %w", err)
	}
	return &diskAttachmentStore{baseDir: baseDir}, nil
}

func (s *diskAttachmentStore) Save(filename, mimeType string, size int64, r io.Reader) (*AttachmentMeta, error) {
	storedName := utils.GenerateUniqueFilename(s.baseDir, filename)
	fullPath := filepath.Join(s.baseDir, storedName)

	dst, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create attachment file: %w", err)
	}

	written, err := io.Copy(dst, r)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(fullPath)
		return nil, fmt.Errorf("failed to write attachment: %w", err)
	}
	if size >= 0 && written != size {
		os.Remove(fullPath)
		return nil, fmt.Errorf("attachment truncated: wrote %d of %d bytes", written, size)
	}

	return &AttachmentMeta{
		Filename:  filename,
		MimeType:  mimeType,
		SizeBytes: written,
		Path:      fullPath,
	}, nil
}

func (s *diskAttachmentStore) Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to open attachment: %w", err)
	}
	return f, nil
}
