package upload

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"mediastore/internal/services"
)

// allowedMimeTypes is the fixed set of declared content types the pipeline
// accepts: raster images plus PDF documents.
var allowedMimeTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"image/gif":       {},
	"image/webp":      {},
	"application/pdf": {},
}

// allowedExtensions parallels allowedMimeTypes. Both checks are mandatory and
// independent: a renamed executable can claim an image MIME type, and an
// image payload can carry an executable extension.
var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
	".pdf":  {},
}

// imageMimeTypes marks the subset of allowed types that go through the
// thumbnail and variant pipelines.
var imageMimeTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

// Validator is the pure-logic upload gate. Root is the storage root that
// folder arguments must resolve underneath; MaxBytes is the payload ceiling.
type Validator struct {
	Root     string
	MaxBytes int64
}

// New constructs a validator for the given storage root and size ceiling.
func New(root string, maxBytes int64) Validator {
	return Validator{Root: root, MaxBytes: maxBytes}
}

// Validate runs every check against a declared upload. It returns the first
// failure, ordered so the cheap header-level checks reject before the size
// check is consulted.
func (v Validator) Validate(mimeType, filename string, size int64, folder string) error {
	if err := v.ValidateType(mimeType, filename); err != nil {
		return err
	}
	if err := v.ValidateSize(size); err != nil {
		return err
	}
	if _, err := v.NormalizeFolder(folder); err != nil {
		return err
	}
	return nil
}

// ValidateType checks the declared MIME type and the filename extension
// against their allowlists. Both must pass; neither is sufficient alone.
func (v Validator) ValidateType(mimeType, filename string) error {
	normalized := strings.ToLower(strings.TrimSpace(mimeType))
	if _, ok := allowedMimeTypes[normalized]; !ok {
		return services.Wrap(services.ErrInvalidMimeType, "upload", "validate", fmt.Sprintf("type %q is not allowed", mimeType), nil)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return services.Wrap(services.ErrInvalidExtension, "upload", "validate", fmt.Sprintf("extension %q is not allowed", ext), nil)
	}
	return nil
}

// ValidateSize enforces 0 < size <= MaxBytes. Zero-length files are rejected,
// not persisted empty.
func (v Validator) ValidateSize(size int64) error {
	if size <= 0 {
		return services.Wrap(services.ErrValidation, "upload", "validate", "file is empty", nil)
	}
	if v.MaxBytes > 0 && size > v.MaxBytes {
		return services.Wrap(services.ErrPayloadTooLarge, "upload", "validate", fmt.Sprintf("%d bytes exceeds limit of %d", size, v.MaxBytes), nil)
	}
	return nil
}

// NormalizeFolder lexically normalizes a logical folder and verifies the
// result stays inside the storage root. The returned value is a clean
// slash-separated relative path, or "" when no folder was supplied.
func (v Validator) NormalizeFolder(folder string) (string, error) {
	trimmed := strings.TrimSpace(folder)
	if trimmed == "" {
		return "", nil
	}
	if strings.ContainsRune(trimmed, 0) {
		return "", services.Wrap(services.ErrPathTraversal, "upload", "folder", "folder contains NUL byte", nil)
	}

	cleaned := path.Clean(filepath.ToSlash(trimmed))
	if cleaned == "." {
		return "", nil
	}
	if path.IsAbs(cleaned) {
		return "", services.Wrap(services.ErrPathTraversal, "upload", "folder", fmt.Sprintf("folder %q is not relative to the storage root", folder), nil)
	}

	resolved := filepath.Join(v.Root, filepath.FromSlash(cleaned))
	rel, err := filepath.Rel(v.Root, resolved)
	if err != nil {
		return "", services.Wrap(services.ErrPathTraversal, "upload", "folder", "folder cannot be resolved", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", services.Wrap(services.ErrPathTraversal, "upload", "folder", fmt.Sprintf("folder %q escapes the storage root", folder), nil)
	}
	if resolved != filepath.Join(v.Root, rel) {
		return "", services.Wrap(services.ErrPathTraversal, "upload", "folder", fmt.Sprintf("folder %q escapes the storage root", folder), nil)
	}

	return filepath.ToSlash(rel), nil
}

// IsImage reports whether a declared MIME type belongs to the raster image
// subset that supports derivation.
func IsImage(mimeType string) bool {
	_, ok := imageMimeTypes[strings.ToLower(strings.TrimSpace(mimeType))]
	return ok
}

// AllowedMimeTypes returns the accepted MIME types in no particular order.
func AllowedMimeTypes() []string {
	out := make([]string, 0, len(allowedMimeTypes))
	for m := range allowedMimeTypes {
		out = append(out, m)
	}
	return out
}
