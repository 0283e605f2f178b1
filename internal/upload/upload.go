package upload

import (
	"errors"
	"fmt"
	"math/rand"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	ErrInvalidFileType = errors.New("invalid file type, only jpg, jpeg, png and webp are allowed")
	ErrFileTooLarge    = errors.New("file exceeds the upload size limit")
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// Saver validates uploaded plate photos and stores them under the upload dir.
type Saver struct {
	dir      string
	maxBytes int64
}

func NewSaver(dir string, maxBytes int64) *Saver {
	return &Saver{dir: dir, maxBytes: maxBytes}
}

// Save writes the uploaded image to a uniquely named file and returns its
// path. The stored file is transient: the scan handler deletes it as soon as
// the OCR call resolves.
func (s *Saver) Save(c *gin.Context, header *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		return "", ErrInvalidFileType
	}
	if !strings.HasPrefix(header.Header.Get("Content-Type"), "image/") {
		return "", ErrInvalidFileType
	}
	if header.Size > s.maxBytes {
		return "", ErrFileTooLarge
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := fmt.Sprintf("platePhoto-%d-%d%s", time.Now().UnixNano(), rand.Intn(1_000_000_000), ext)
	path := filepath.Join(s.dir, name)

	if err := c.SaveUploadedFile(header, path); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}

	return path, nil
}

// Remove deletes a transient upload. Best effort: a missing file is fine.
func Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
