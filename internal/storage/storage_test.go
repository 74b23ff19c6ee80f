package storage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"agora/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSaveImage(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, 1024*1024)
	require.NoError(t, err)

	ref, err := store.SaveImage(context.Background(), &UploadInput{
		Filename:    "Cat.PNG",
		ContentType: "image/png",
		Content:     pngBytes(t),
	}, "")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^/uploads/\d+-[0-9a-f]{12}\.png$`), ref)

	written, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(ref, PublicPrefix)))
	require.NoError(t, err)
	assert.Equal(t, pngBytes(t), written)
}

func TestSaveImage_ProfilePrefixAndExtensionFallback(t *testing.T) {
	store, err := NewStore(t.TempDir(), 0)
	require.NoError(t, err)

	ref, err := store.SaveImage(context.Background(), &UploadInput{Filename: "avatar.exe", Content: pngBytes(t)}, ProfilePrefix)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "/uploads/profile-"))
	assert.True(t, strings.HasSuffix(ref, ".png"))
}

func TestSaveImage_Rejections(t *testing.T) {
	store, err := NewStore(t.TempDir(), 64)
	require.NoError(t, err)

	tests := []struct {
		name string
		in   *UploadInput
		msg  string
	}{
		{"empty", &UploadInput{Filename: "a.png"}, "No file uploaded"},
		{"too large", &UploadInput{Filename: "a.png", Content: bytes.Repeat([]byte{1}, 65)}, "File too large"},
		{"text file", &UploadInput{Filename: "a.png", Content: []byte("hello")}, "Only image files are allowed"},
		{"truncated png", &UploadInput{Filename: "a.png", Content: append([]byte("\x89PNG\r\n\x1a\n"), 0, 0)}, "Only image files are allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.SaveImage(context.Background(), tt.in, "")
			require.Error(t, err)
			assert.True(t, models.IsCode(err, models.CodeValidation))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestSaveImage_RejectsMismatchedDeclaredType(t *testing.T) {
	store, err := NewStore(t.TempDir(), 0)
	require.NoError(t, err)

	_, err = store.SaveImage(context.Background(), &UploadInput{
		Filename:    "a.png",
		ContentType: "application/pdf",
		Content:     pngBytes(t),
	}, "")
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestExtensionFor(t *testing.T) {
	assert.Equal(t, ".jpeg", extensionFor("x.JPEG", "jpeg"))
	assert.Equal(t, ".jpg", extensionFor("x", "jpeg"))
	assert.Equal(t, ".webp", extensionFor("x.png", "webp"))
}
