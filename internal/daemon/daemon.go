package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"

	"mediastore/internal/catalog"
	"mediastore/internal/config"
	"mediastore/internal/logging"
	"mediastore/internal/media"
	"mediastore/internal/storage"
	"mediastore/internal/variants"
)

// Daemon coordinates the media pipeline services and enforces single-instance
// execution.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *catalog.Store
	media     *media.Service
	variants  *variants.Optimizer
	inspector storage.Inspector
	logPath   string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc

	api *apiServer
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool                   `json:"running"`
	PID           int                    `json:"pid"`
	StorageRoot   string                 `json:"storage_root"`
	CatalogDBPath string                 `json:"catalog_db_path"`
	LockFilePath  string                 `json:"lock_file_path"`
	Catalog       catalog.DatabaseHealth `json:"catalog"`
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *catalog.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, and logger")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "mediastored.lock")
	d := &Daemon{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		media:     media.NewService(cfg, store, logger),
		variants:  variants.New(cfg.Paths.StorageRoot, cfg.Storage.PublicPrefix, cfg.Variants, logger),
		inspector: storage.NewInspector(cfg.Paths.StorageRoot),
		logPath:   filepath.Join(cfg.Paths.LogDir, "mediastore.log"),
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}

	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the daemon lock and brings the API server up.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	if err := d.cfg.EnsureDirectories(); err != nil {
		return err
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another mediastore daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.api.start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return err
	}

	d.running.Store(true)
	d.logger.Info("mediastore daemon started",
		logging.String("lock", d.lockPath),
		logging.String("storage_root", d.cfg.Paths.StorageRoot),
	)
	return nil
}

// Stop shuts the API server down and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("mediastore daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Addr returns the bound API address, empty until Start succeeds.
func (d *Daemon) Addr() string {
	if d.api == nil {
		return ""
	}
	return d.api.addr()
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	health, err := d.store.CheckHealth(ctx)
	if err != nil {
		d.logger.Warn("catalog health check failed", logging.Error(err))
	}
	return Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		StorageRoot:   d.cfg.Paths.StorageRoot,
		CatalogDBPath: d.store.Path(),
		LockFilePath:  d.lockPath,
		Catalog:       health,
	}
}
