// Package storage persists uploaded images on local disk and serves them under /uploads.
package storage

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"agora/internal/middleware"
	"agora/internal/models"
	"agora/internal/observability"

	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	// PublicPrefix is the URL path uploaded files are served under.
	PublicPrefix = "/uploads/"

	DefaultUploadDir      = "uploads"
	DefaultMaxUploadBytes = 5 * 1024 * 1024

	// ProfilePrefix names uploaded profile pictures.
	ProfilePrefix = "profile-"
)

// ErrNotImage is returned for uploads that are not a decodable image.
var ErrNotImage = models.NewValidationError("Only image files are allowed")

// UploadInput is an uploaded file read into memory.
type UploadInput struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Store writes validated images into a single directory.
type Store struct {
	dir      string
	maxBytes int64
	now      func() time.Time
}

// NewStore creates the upload directory if needed.
func NewStore(dir string, maxBytes int64) (*Store, error) {
	if dir == "" {
		dir = DefaultUploadDir
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir, maxBytes: maxBytes, now: time.Now}, nil
}

// Dir returns the directory files are written to.
func (s *Store) Dir() string {
	return s.dir
}

// ReadMultipart loads a multipart file header into an UploadInput, enforcing the size cap.
func (s *Store) ReadMultipart(fh *multipart.FileHeader) (*UploadInput, error) {
	if fh.Size > s.maxBytes {
		return nil, s.tooLarge()
	}
	f, err := fh.Open()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, s.maxBytes+1))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &UploadInput{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}

// SaveImage validates in as an image and writes it as <prefix><unixmillis>-<random><ext>.
// It returns the public reference /uploads/<name>.
func (s *Store) SaveImage(ctx context.Context, in *UploadInput, prefix string) (string, error) {
	if in == nil || len(in.Content) == 0 {
		return "", models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxBytes {
		return "", s.tooLarge()
	}

	detected := http.DetectContentType(in.Content)
	if !isAllowedImageMIME(detected) {
		return "", ErrNotImage
	}
	if provided := normalizeContentType(in.ContentType); provided != "" && !strings.HasPrefix(provided, "image/") {
		return "", ErrNotImage
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(in.Content))
	if err != nil {
		return "", ErrNotImage
	}

	suffix, err := randomHex(6)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	name := fmt.Sprintf("%s%d-%s%s", prefix, s.now().UnixMilli(), suffix, extensionFor(in.Filename, format))

	if err := writeNew(filepath.Join(s.dir, name), in.Content); err != nil {
		return "", models.NewInternalError(err)
	}

	kind := "post"
	if prefix == ProfilePrefix {
		kind = "profile"
	}
	observability.UploadBytes.WithLabelValues(kind).Observe(float64(len(in.Content)))
	middleware.Logger.InfoContext(ctx, "stored upload",
		slog.String("file", name),
		slog.String("format", format),
		slog.Int("bytes", len(in.Content)),
	)

	return PublicPrefix + name, nil
}

func (s *Store) tooLarge() error {
	return models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxBytes/(1024*1024)))
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/png", "image/gif", "image/webp", "image/bmp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

var formatExtensions = map[string][]string{
	"jpeg": {".jpg", ".jpeg", ".jfif"},
	"png":  {".png"},
	"gif":  {".gif"},
	"webp": {".webp"},
	"bmp":  {".bmp"},
}

// extensionFor keeps the client's extension when it matches the decoded format.
func extensionFor(filename, format string) string {
	exts := formatExtensions[format]
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range exts {
		if e == ext {
			return ext
		}
	}
	if len(exts) > 0 {
		return exts[0]
	}
	return ""
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func writeNew(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Join(err, os.Remove(path))
	}
	return nil
}
