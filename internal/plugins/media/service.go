package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	// Register decoders for image formats.
	_ "golang.org/x/image/webp"

	"github.com/google/uuid"
	"golang.org/x/image/draw"

	"github.com/foodgram/foodgram/internal/apperror"
	"github.com/foodgram/foodgram/internal/config"
)

// ImageStore persists recipe images. Names returned by SaveDataURL are
// relative to the media root ("recipes/<uuid>.png") and are what the
// recipes table stores.
type ImageStore interface {
	// SaveDataURL decodes a "data:image/<type>;base64,<payload>" string and
	// writes it to disk. Validation failures are field errors on "image".
	SaveDataURL(ctx context.Context, dataURL string) (string, error)

	// Delete removes a stored image. Missing files are ignored.
	Delete(name string)

	// URL returns the public URL for a stored name, or "" for no image.
	URL(name string) string
}

type imageStore struct {
	mediaPath    string
	mediaURL     string
	maxSize      int64
	maxDimension int
}

// NewImageStore creates an ImageStore rooted at cfg.MediaPath.
func NewImageStore(cfg config.UploadConfig) ImageStore {
	return &imageStore{
		mediaPath:    cfg.MediaPath,
		mediaURL:     strings.TrimRight(cfg.MediaURL, "/"),
		maxSize:      cfg.MaxSize,
		maxDimension: cfg.MaxDimension,
	}
}

func (s *imageStore) SaveDataURL(_ context.Context, dataURL string) (string, error) {
	mimeType, data, err := s.decodeDataURL(dataURL)
	if err != nil {
		return "", err
	}

	// Validate magic bytes match declared MIME type.
	if !validateMagicBytes(data, mimeType) {
		return "", imageError("Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", imageError("Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}

	ext := MimeToExtension[mimeType]
	if s.maxDimension > 0 && (cfg.Width > s.maxDimension || cfg.Height > s.maxDimension) && mimeType != "image/gif" {
		data, ext, err = s.downscale(data, ext)
		if err != nil {
			return "", apperror.NewInternal(fmt.Errorf("downscaling image: %w", err))
		}
	}

	dir := filepath.Join(s.mediaPath, recipeDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", apperror.NewInternal(fmt.Errorf("creating media directory: %w", err))
	}

	filename := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0644); err != nil {
		return "", apperror.NewInternal(fmt.Errorf("writing media file: %w", err))
	}

	slog.Info("recipe image stored",
		slog.String("file", filename),
		slog.String("mime_type", mimeType),
		slog.Int("size", len(data)),
	)
	return path.Join(recipeDir, filename), nil
}

func (s *imageStore) Delete(name string) {
	full, ok := s.localPath(name)
	if !ok {
		return
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to delete recipe image", slog.String("file", name), slog.Any("error", err))
	}
}

func (s *imageStore) URL(name string) string {
	if name == "" {
		return ""
	}
	return s.mediaURL + "/" + name
}

// localPath maps a stored name to a path on disk. Only names of the form
// "recipes/<file>" are accepted.
func (s *imageStore) localPath(name string) (string, bool) {
	dir, file := path.Split(name)
	if dir != recipeDir+"/" || file == "" || file != filepath.Base(file) || strings.HasPrefix(file, ".") {
		return "", false
	}
	return filepath.Join(s.mediaPath, recipeDir, file), true
}

// decodeDataURL splits and decodes a base64 data URL, enforcing the allowed
// MIME types and the size limit.
func (s *imageStore) decodeDataURL(dataURL string) (string, []byte, error) {
	header, payload, ok := strings.Cut(dataURL, ",")
	if !ok || !strings.HasPrefix(header, "data:") {
		return "", nil, imageError("Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}

	mimeType, encoding, _ := strings.Cut(strings.TrimPrefix(header, "data:"), ";")
	if encoding != "base64" {
		return "", nil, imageError("Image data must be base64 encoded.")
	}
	mimeType = strings.ToLower(mimeType)
	if !AllowedMimeTypes[mimeType] {
		return "", nil, imageError("Unsupported image type: " + mimeType)
	}

	if s.maxSize > 0 && int64(base64.StdEncoding.DecodedLen(len(payload))) > s.maxSize+2 {
		return "", nil, imageError(fmt.Sprintf("Image too large; maximum size is %d MB.", s.maxSize/(1024*1024)))
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return "", nil, imageError("Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}
	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return "", nil, imageError(fmt.Sprintf("Image too large; maximum size is %d MB.", s.maxSize/(1024*1024)))
	}
	return mimeType, data, nil
}

// downscale resizes the image so its longest edge equals maxDimension and
// re-encodes it. WebP has no encoder in x/image, so WebP input is written
// back as JPEG.
func (s *imageStore) downscale(data []byte, ext string) ([]byte, string, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decoding image: %w", err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	maxDim := s.maxDimension

	// Calculate new dimensions maintaining aspect ratio.
	newW, newH := maxDim, maxDim
	if w > h {
		newH = max(1, h*maxDim/w)
	} else {
		newW = max(1, w*maxDim/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	switch ext {
	case ".png":
		err = png.Encode(&buf, dst)
	case ".gif":
		err = gif.Encode(&buf, dst, nil)
	default:
		ext = ".jpg"
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 85})
	}
	if err != nil {
		return nil, "", fmt.Errorf("encoding image: %w", err)
	}
	return buf.Bytes(), ext, nil
}

func imageError(msg string) error {
	return apperror.NewFieldError("image", msg)
}

// validateMagicBytes checks that the file content's magic bytes match the
// declared MIME type so a mislabeled payload is rejected before decoding.
func validateMagicBytes(data []byte, declaredMIME string) bool {
	if len(data) < 4 {
		return false
	}
	switch declaredMIME {
	case "image/jpeg":
		return data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF
	case "image/png":
		return len(data) >= 8 && bytes.Equal(data[:8], []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A})
	case "image/gif":
		return len(data) >= 6 && string(data[:3]) == "GIF"
	case "image/webp":
		return len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP"
	default:
		return false
	}
}
