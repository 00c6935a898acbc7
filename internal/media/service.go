package media

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"mediastore/internal/catalog"
	"mediastore/internal/config"
	"mediastore/internal/logging"
	"mediastore/internal/services"
	"mediastore/internal/storage"
	"mediastore/internal/upload"
)

// UploadRequest carries one declared upload into the pipeline.
type UploadRequest struct {
	Data     []byte
	Filename string
	MimeType string
	Folder   string
}

// Service runs the ingestion pipeline over a catalog store and the storage
// root.
type Service struct {
	validator    upload.Validator
	layout       storage.Layout
	raw          *storage.RawStore
	store        *catalog.Store
	publicPrefix string
	logger       *slog.Logger
}

// NewService wires the pipeline components from configuration.
func NewService(cfg *config.Config, store *catalog.Store, logger *slog.Logger) *Service {
	return &Service{
		validator:    upload.New(cfg.Paths.StorageRoot, cfg.Storage.MaxUploadBytes),
		layout:       storage.NewLayout(cfg.Paths.StorageRoot),
		raw:          storage.NewRawStore(logger, cfg.Storage.ThumbnailBox, cfg.Storage.ThumbnailQuality),
		store:        store,
		publicPrefix: cfg.Storage.PublicPrefix,
		logger:       logging.NewComponentLogger(logger, "media"),
	}
}

// Upload validates the declared upload, stores the bytes under a random
// filename, derives the companion thumbnail for images, and records the
// asset in the catalog. Validation failures reject before any byte reaches
// disk; a catalog failure rolls the stored files back.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*catalog.Asset, error) {
	if err := s.validator.ValidateType(req.MimeType, req.Filename); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateSize(int64(len(req.Data))); err != nil {
		return nil, err
	}
	folder, err := s.validator.NormalizeFolder(req.Folder)
	if err != nil {
		return nil, err
	}

	filename := storage.GenerateFilename(req.Filename)
	target, err := s.layout.Resolve(folder, filename)
	if err != nil {
		return nil, err
	}
	if err := s.layout.EnsureDir(folder); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "media", "upload", "", err)
	}
	if err := s.raw.Save(req.Data, target); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	// The thumbnail is best effort: a corrupt-but-allowed image still gets
	// stored and catalogued, just without a companion.
	thumbnailURL := ""
	if upload.IsImage(req.MimeType) {
		if thumbPath, thumbErr := s.raw.SaveThumbnail(req.Data, target); thumbErr != nil {
			s.logger.Warn("thumbnail generation failed",
				logging.String("filename", filename),
				logging.Error(thumbErr),
			)
		} else {
			thumbnailURL = storage.PublicURL(s.publicPrefix, folder, filepath.Base(thumbPath))
		}
	}

	asset, err := s.store.Create(ctx, &catalog.Asset{
		Filename:     filename,
		OriginalName: req.Filename,
		MimeType:     req.MimeType,
		Size:         int64(len(req.Data)),
		URL:          storage.PublicURL(s.publicPrefix, folder, filename),
		ThumbnailURL: thumbnailURL,
		Folder:       folder,
	})
	if err != nil {
		s.rollbackFiles(target)
		return nil, fmt.Errorf("catalog upload: %w", err)
	}

	s.logger.Info("asset stored",
		logging.Int64(logging.FieldAssetID, asset.ID),
		logging.String(logging.FieldFolder, folder),
		logging.String("filename", filename),
		logging.Int64("bytes", asset.Size),
	)
	return asset, nil
}

// Get fetches one asset by identifier.
func (s *Service) Get(ctx context.Context, id int64) (*catalog.Asset, error) {
	asset, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, services.Wrap(services.ErrNotFound, "media", "get", fmt.Sprintf("asset %d", id), nil)
	}
	return asset, nil
}

// List returns a page of catalogued assets, optionally scoped to a folder.
// The folder argument goes through the same normalization as uploads, so a
// traversal attempt is rejected rather than silently matching nothing.
func (s *Service) List(ctx context.Context, folder string, page, limit int) ([]*catalog.Asset, catalog.Pagination, error) {
	normalized, err := s.validator.NormalizeFolder(folder)
	if err != nil {
		return nil, catalog.Pagination{}, err
	}
	return s.store.List(ctx, normalized, page, limit)
}

// Delete removes an asset: catalog row last, files first. File removal
// failures are logged, not fatal, so the row never outlives a retryable
// filesystem hiccup forever.
func (s *Service) Delete(ctx context.Context, id int64) error {
	asset, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if asset == nil {
		return services.Wrap(services.ErrNotFound, "media", "delete", fmt.Sprintf("asset %d", id), nil)
	}

	target, err := s.layout.Resolve(asset.Folder, asset.Filename)
	if err == nil {
		if delErr := s.raw.Delete(target); delErr != nil {
			s.logger.Warn("failed to remove stored file",
				logging.Int64(logging.FieldAssetID, id),
				logging.Error(delErr),
			)
		}
		if asset.ThumbnailURL != "" {
			if delErr := s.raw.Delete(storage.ThumbnailPath(target)); delErr != nil {
				s.logger.Warn("failed to remove thumbnail",
					logging.Int64(logging.FieldAssetID, id),
					logging.Error(delErr),
				)
			}
		}
	}

	if _, err := s.store.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove catalog row: %w", err)
	}

	s.logger.Info("asset deleted",
		logging.Int64(logging.FieldAssetID, id),
		logging.String(logging.FieldFolder, asset.Folder),
	)
	return nil
}

func (s *Service) rollbackFiles(target string) {
	if err := s.raw.Delete(target); err != nil {
		s.logger.Warn("rollback failed for stored file", logging.String("path", target), logging.Error(err))
	}
	if err := s.raw.Delete(storage.ThumbnailPath(target)); err != nil {
		s.logger.Warn("rollback failed for thumbnail", logging.String("path", target), logging.Error(err))
	}
}
