package media_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mediastore/internal/catalog"
	"mediastore/internal/config"
	"mediastore/internal/logging"
	"mediastore/internal/media"
	"mediastore/internal/services"
	"mediastore/internal/storage"
	"mediastore/internal/testsupport"
)

func newService(t *testing.T, opts ...testsupport.ConfigOption) (*media.Service, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenCatalog(t, cfg)
	return media.NewService(cfg, store, logging.NewNop()), cfg
}

func assetPath(cfg *config.Config, asset *catalog.Asset) string {
	return filepath.Join(cfg.Paths.StorageRoot, filepath.FromSlash(asset.Folder), asset.Filename)
}

func TestUploadStoresImageWithThumbnail(t *testing.T) {
	svc, cfg := newService(t)
	data := testsupport.MakePNG(t, 500, 500)

	asset, err := svc.Upload(context.Background(), media.UploadRequest{
		Data:     data,
		Filename: "photo.png",
		MimeType: "image/png",
		Folder:   "gallery",
	})
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if asset.OriginalName != "photo.png" || asset.Folder != "gallery" {
		t.Fatalf("unexpected asset: %+v", asset)
	}
	if asset.Filename == "photo.png" {
		t.Fatal("stored filename must be randomized")
	}
	if !strings.HasSuffix(asset.Filename, ".png") {
		t.Fatalf("stored filename lost its extension: %q", asset.Filename)
	}
	if asset.Size != int64(len(data)) {
		t.Fatalf("size mismatch: %d != %d", asset.Size, len(data))
	}
	if asset.URL != "/media/gallery/"+asset.Filename {
		t.Fatalf("unexpected url: %q", asset.URL)
	}
	if asset.ThumbnailURL == "" || !strings.Contains(asset.ThumbnailURL, "_thumb.jpg") {
		t.Fatalf("expected thumbnail url, got %q", asset.ThumbnailURL)
	}

	stored, err := os.ReadFile(assetPath(cfg, asset))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if !bytes.Equal(stored, data) {
		t.Fatal("stored bytes differ from upload")
	}
	if _, err := os.Stat(storage.ThumbnailPath(assetPath(cfg, asset))); err != nil {
		t.Fatalf("thumbnail missing: %v", err)
	}
}

func TestUploadPDFHasNoThumbnail(t *testing.T) {
	svc, cfg := newService(t)

	asset, err := svc.Upload(context.Background(), media.UploadRequest{
		Data:     []byte("%PDF-1.4 fake document body"),
		Filename: "manual.pdf",
		MimeType: "application/pdf",
	})
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if asset.ThumbnailURL != "" {
		t.Fatalf("expected no thumbnail for pdf, got %q", asset.ThumbnailURL)
	}
	if asset.Folder != "" {
		t.Fatalf("expected root folder, got %q", asset.Folder)
	}
	if _, err := os.Stat(assetPath(cfg, asset)); err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
}

func TestUploadCorruptImageStillStored(t *testing.T) {
	// An allowed type whose bytes do not decode keeps the original but gets
	// no companion thumbnail.
	svc, cfg := newService(t)

	asset, err := svc.Upload(context.Background(), media.UploadRequest{
		Data:     []byte("not really a png"),
		Filename: "broken.png",
		MimeType: "image/png",
	})
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if asset.ThumbnailURL != "" {
		t.Fatalf("expected no thumbnail, got %q", asset.ThumbnailURL)
	}
	if _, err := os.Stat(assetPath(cfg, asset)); err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
}

func TestUploadRejectionsLeaveNoFiles(t *testing.T) {
	svc, cfg := newService(t, testsupport.WithMaxUploadBytes(64))
	ctx := context.Background()

	cases := []struct {
		name   string
		req    media.UploadRequest
		marker error
	}{
		{"bad mime", media.UploadRequest{Data: []byte("x"), Filename: "a.png", MimeType: "application/zip"}, services.ErrInvalidMimeType},
		{"bad extension", media.UploadRequest{Data: []byte("x"), Filename: "a.exe", MimeType: "image/png"}, services.ErrInvalidExtension},
		{"empty payload", media.UploadRequest{Data: nil, Filename: "a.png", MimeType: "image/png"}, services.ErrValidation},
		{"oversize", media.UploadRequest{Data: make([]byte, 65), Filename: "a.png", MimeType: "image/png"}, services.ErrPayloadTooLarge},
		{"traversal folder", media.UploadRequest{Data: []byte("x"), Filename: "a.png", MimeType: "image/png", Folder: "../../etc"}, services.ErrPathTraversal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Upload(ctx, tc.req); !errors.Is(err, tc.marker) {
				t.Fatalf("expected %v, got %v", tc.marker, err)
			}
		})
	}

	// No rejected upload may have touched the storage root.
	if entries, err := os.ReadDir(cfg.Paths.StorageRoot); err == nil && len(entries) > 0 {
		t.Fatalf("storage root not empty after rejections: %v", entries)
	}
}

func TestGetMissingAsset(t *testing.T) {
	svc, _ := newService(t)
	if _, err := svc.Get(context.Background(), 42); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteCascades(t *testing.T) {
	svc, cfg := newService(t)
	ctx := context.Background()

	asset, err := svc.Upload(ctx, media.UploadRequest{
		Data:     testsupport.MakePNG(t, 300, 200),
		Filename: "photo.png",
		MimeType: "image/png",
		Folder:   "gallery",
	})
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	path := assetPath(cfg, asset)

	if err := svc.Delete(ctx, asset.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("stored file survived delete: %v", err)
	}
	if _, err := os.Stat(storage.ThumbnailPath(path)); !os.IsNotExist(err) {
		t.Fatalf("thumbnail survived delete: %v", err)
	}
	if _, err := svc.Get(ctx, asset.ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := svc.Delete(ctx, asset.ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestDeleteSurvivesMissingFile(t *testing.T) {
	svc, cfg := newService(t)
	ctx := context.Background()

	asset, err := svc.Upload(ctx, media.UploadRequest{
		Data:     []byte("%PDF-1.4 body"),
		Filename: "doc.pdf",
		MimeType: "application/pdf",
	})
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if err := os.Remove(assetPath(cfg, asset)); err != nil {
		t.Fatalf("remove stored file: %v", err)
	}

	if err := svc.Delete(ctx, asset.ID); err != nil {
		t.Fatalf("Delete should tolerate a missing file: %v", err)
	}
}

func TestListScopesToFolder(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	for _, folder := range []string{"gallery", "gallery", "docs"} {
		if _, err := svc.Upload(ctx, media.UploadRequest{
			Data:     []byte("%PDF-1.4 body"),
			Filename: "doc.pdf",
			MimeType: "application/pdf",
			Folder:   folder,
		}); err != nil {
			t.Fatalf("Upload failed: %v", err)
		}
	}

	assets, page, err := svc.List(ctx, "gallery", 1, 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(assets) != 2 || page.Total != 2 {
		t.Fatalf("expected 2 gallery assets, got %d (total %d)", len(assets), page.Total)
	}

	if _, _, err := svc.List(ctx, "../outside", 1, 10); !errors.Is(err, services.ErrPathTraversal) {
		t.Fatalf("expected ErrPathTraversal, got %v", err)
	}
}
