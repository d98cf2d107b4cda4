// Package imaging validates uploaded images and turns them into the pixel
// tensors the encoder consumes.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// allowedExtensions are the upload extensions accepted by ingestion.
var allowedExtensions = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
}

// Extension returns the lower-cased extension of filename without the dot,
// or "" when there is none.
func Extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// ValidateExtension checks filename against jpg/jpeg/png and returns the
// normalized extension.
func ValidateExtension(filename string) (string, error) {
	ext := Extension(filename)
	if _, ok := allowedExtensions[ext]; !ok {
		return "", fmt.Errorf("unsupported extension %q", ext)
	}
	return ext, nil
}

// ContentType returns the MIME type for an accepted extension, falling back
// to application/octet-stream.
func ContentType(ext string) string {
	if ct, ok := allowedExtensions[strings.ToLower(ext)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// MaxPixels bounds width*height of an accepted image so a small payload
// with a forged header cannot force a huge allocation.
const MaxPixels = 8192 * 8192

// Decode parses data as any registered image format. The header is checked
// against MaxPixels before any pixel data is allocated. The whole payload
// must decode; a valid header followed by truncated pixel data is rejected.
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty payload")
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, "", fmt.Errorf("invalid image dimensions %dx%d", cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, "", fmt.Errorf("image dimensions %dx%d exceed %d pixels", cfg.Width, cfg.Height, MaxPixels)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}
