package storage

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"mediastore/internal/logging"
)

// ThumbnailSuffix is appended (before the extension) to the generated
// filename of the single companion thumbnail.
const ThumbnailSuffix = "_thumb"

// RawStore persists original upload bytes and the optional companion
// thumbnail.
type RawStore struct {
	logger *slog.Logger

	thumbnailBox     int
	thumbnailQuality int
}

// NewRawStore constructs a raw store. box bounds the companion thumbnail;
// quality is its JPEG quality factor.
func NewRawStore(logger *slog.Logger, box, quality int) *RawStore {
	return &RawStore{
		logger:           logging.NewComponentLogger(logger, "raw-store"),
		thumbnailBox:     box,
		thumbnailQuality: quality,
	}
}

// Save writes the whole buffer to absPath through a temp file and rename, so
// a failed write never leaves a partial file at the final location.
func (s *RawStore) Save(data []byte, absPath string) error {
	dir := filepath.Dir(absPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".mediastore-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write %q: %w", absPath, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync %q: %w", absPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close %q: %w", absPath, err)
	}
	if err := os.Rename(tmpPath, absPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// Delete removes a stored file. Deleting a path that does not exist is not an
// error: cleanup can run more than once or against state lost to a prior
// partial failure.
func (s *RawStore) Delete(absPath string) error {
	if strings.TrimSpace(absPath) == "" {
		return nil
	}
	if err := os.Remove(absPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %q: %w", absPath, err)
	}
	return nil
}

// ThumbnailPath derives the companion thumbnail location for a stored
// original: same directory, `_thumb` suffix, always JPEG.
func ThumbnailPath(absPath string) string {
	ext := filepath.Ext(absPath)
	return strings.TrimSuffix(absPath, ext) + ThumbnailSuffix + ".jpg"
}

// SaveThumbnail decodes the original bytes, scales them down to fit the
// configured bounding box without upscaling, and writes a JPEG companion next
// to the original. It returns the thumbnail path on success.
func (s *RawStore) SaveThumbnail(data []byte, originalPath string) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > s.thumbnailBox || bounds.Dy() > s.thumbnailBox {
		img = imaging.Fit(img, s.thumbnailBox, s.thumbnailBox, imaging.Lanczos)
	}

	thumbPath := ThumbnailPath(originalPath)
	if err := imaging.Save(img, thumbPath, imaging.JPEGQuality(s.thumbnailQuality)); err != nil {
		return "", fmt.Errorf("encode thumbnail: %w", err)
	}

	s.logger.Debug("thumbnail written",
		logging.String("path", thumbPath),
		logging.Int("box", s.thumbnailBox),
	)
	return thumbPath, nil
}
