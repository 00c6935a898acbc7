package storage

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"mediastore/internal/services"
)

// Layout maps logical folders and filenames to physical locations under the
// storage root.
type Layout struct {
	Root string
}

// NewLayout constructs a layout rooted at root.
func NewLayout(root string) Layout {
	return Layout{Root: root}
}

// GenerateFilename produces the on-disk name for an upload: 128 random bits in
// hex plus the lowercased original extension. Names are unguessable and
// collision-free without coordination; a collision is not treated as an error
// path at expected scale.
func GenerateFilename(originalName string) string {
	return RandomToken() + strings.ToLower(filepath.Ext(originalName))
}

// RandomToken returns a 128-bit hex token used for filenames and variant
// subfolders.
func RandomToken() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failure means the platform RNG is broken; nothing
		// sensible to fall back to.
		panic(fmt.Sprintf("storage: read random bytes: %v", err))
	}
	return hex.EncodeToString(buf)
}

// Resolve returns the absolute path for a filename inside an optional logical
// folder, guaranteeing the result stays under the root.
func (l Layout) Resolve(folder, filename string) (string, error) {
	if strings.TrimSpace(filename) == "" {
		return "", services.Wrap(services.ErrValidation, "storage", "resolve", "filename is empty", nil)
	}
	resolved := filepath.Join(l.Root, filepath.FromSlash(folder), filename)
	rel, err := filepath.Rel(l.Root, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", services.Wrap(services.ErrPathTraversal, "storage", "resolve", fmt.Sprintf("path %q escapes the storage root", filepath.Join(folder, filename)), err)
	}
	return resolved, nil
}

// EnsureDir creates the directory tree for a logical folder on demand.
func (l Layout) EnsureDir(folder string) error {
	dir := filepath.Join(l.Root, filepath.FromSlash(folder))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}

// PublicURL builds the public path a stored file is served under.
func PublicURL(prefix, folder, filename string) string {
	parts := []string{prefix}
	if folder != "" {
		parts = append(parts, folder)
	}
	parts = append(parts, filename)
	return path.Join(parts...)
}
