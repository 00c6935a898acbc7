package storage_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"

	"mediastore/internal/logging"
	"mediastore/internal/storage"
	"mediastore/internal/testsupport"
)

func newRawStore() *storage.RawStore {
	return storage.NewRawStore(logging.NewNop(), 300, 75)
}

func TestSaveWritesExactBytes(t *testing.T) {
	store := newRawStore()
	path := filepath.Join(t.TempDir(), "nested", "file.bin")
	data := []byte("hello media")

	if err := store.Save(data, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("round-trip mismatch: %q", got)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".mediastore-tmp-") {
			t.Fatalf("temp file left behind: %s", entry.Name())
		}
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := newRawStore()
	path := filepath.Join(t.TempDir(), "file.bin")
	if err := store.Save([]byte("x"), path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := store.Delete(path); err != nil {
		t.Fatalf("first Delete failed: %v", err)
	}
	if err := store.Delete(path); err != nil {
		t.Fatalf("second Delete should be a no-op: %v", err)
	}
	if err := store.Delete(""); err != nil {
		t.Fatalf("empty path Delete should be a no-op: %v", err)
	}
}

func TestThumbnailPath(t *testing.T) {
	got := storage.ThumbnailPath("/root/gallery/abc123.png")
	if got != "/root/gallery/abc123_thumb.jpg" {
		t.Fatalf("ThumbnailPath = %q", got)
	}
}

func TestSaveThumbnailFitsWithoutUpscaling(t *testing.T) {
	store := newRawStore()
	dir := t.TempDir()
	original := filepath.Join(dir, "photo.png")

	large := testsupport.MakePNG(t, 900, 600)
	if err := store.Save(large, original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	thumbPath, err := store.SaveThumbnail(large, original)
	if err != nil {
		t.Fatalf("SaveThumbnail failed: %v", err)
	}
	if !strings.HasSuffix(thumbPath, "_thumb.jpg") {
		t.Fatalf("unexpected thumbnail path: %q", thumbPath)
	}

	img, err := imaging.Open(thumbPath)
	if err != nil {
		t.Fatalf("open thumbnail: %v", err)
	}
	if w := img.Bounds().Dx(); w != 300 {
		t.Fatalf("expected width 300, got %d", w)
	}

	// A source already inside the box keeps its dimensions.
	small := testsupport.MakePNG(t, 120, 80)
	smallPath := filepath.Join(dir, "small.png")
	if err := store.Save(small, smallPath); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	smallThumb, err := store.SaveThumbnail(small, smallPath)
	if err != nil {
		t.Fatalf("SaveThumbnail failed: %v", err)
	}
	simg, err := imaging.Open(smallThumb)
	if err != nil {
		t.Fatalf("open small thumbnail: %v", err)
	}
	if simg.Bounds().Dx() != 120 || simg.Bounds().Dy() != 80 {
		t.Fatalf("small image was rescaled: %v", simg.Bounds())
	}
}

func TestSaveThumbnailRejectsNonImages(t *testing.T) {
	store := newRawStore()
	path := filepath.Join(t.TempDir(), "doc.pdf")
	if _, err := store.SaveThumbnail([]byte("%PDF-1.4 not an image"), path); err == nil {
		t.Fatal("expected decode error for non-image bytes")
	}
}
