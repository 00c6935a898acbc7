package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"mediastore/internal/config"
)

// Store manages catalog persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the catalog database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.LogDir, "catalog.db"))
}

// OpenPath connects to the catalog database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Create inserts a new asset row and returns the stored record.
func (s *Store) Create(ctx context.Context, asset *Asset) (*Asset, error) {
	if asset == nil {
		return nil, errors.New("asset is nil")
	}
	created := asset.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO media_assets (
            filename, original_name, mime_type, size, url,
            thumbnail_url, folder, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		asset.Filename,
		asset.OriginalName,
		asset.MimeType,
		asset.Size,
		asset.URL,
		nullableString(asset.ThumbnailURL),
		nullableString(asset.Folder),
		created.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert asset: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches an asset by identifier. A missing row yields (nil, nil).
func (s *Store) GetByID(ctx context.Context, id int64) (*Asset, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM media_assets WHERE id = ?`, id)
	asset, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get asset: %w", err)
	}
	return asset, nil
}

// GetByFilename fetches an asset by its stored filename.
func (s *Store) GetByFilename(ctx context.Context, filename string) (*Asset, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM media_assets WHERE filename = ?`, filename)
	asset, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get asset by filename: %w", err)
	}
	return asset, nil
}

// List returns a page of assets newest first, optionally filtered by folder.
// Page and limit below 1 snap to 1; limit is capped at 200.
func (s *Store) List(ctx context.Context, folder string, page, limit int) ([]*Asset, Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	if limit > 200 {
		limit = 200
	}

	var (
		where string
		args  []any
	)
	if folder != "" {
		where = ` WHERE folder = ?`
		args = append(args, folder)
	}

	var total int
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM media_assets`+where, args...)
	if err := row.Scan(&total); err != nil {
		return nil, Pagination{}, fmt.Errorf("count assets: %w", err)
	}

	query := `SELECT ` + assetColumns + ` FROM media_assets` + where +
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, limit, (page-1)*limit)...)
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var assets []*Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, Pagination{}, err
		}
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, Pagination{}, err
	}

	totalPages := total / limit
	if total%limit != 0 {
		totalPages++
	}
	return assets, Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}, nil
}

// Remove deletes an asset row by identifier and reports whether a row existed.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM media_assets WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete asset: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// CountsByFolder returns catalogued row counts and byte totals grouped by
// folder, root-level assets under the empty string.
func (s *Store) CountsByFolder(ctx context.Context) ([]FolderCount, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT COALESCE(folder, ''), COUNT(1), COALESCE(SUM(size), 0)
         FROM media_assets GROUP BY folder ORDER BY folder`,
	)
	if err != nil {
		return nil, fmt.Errorf("counts by folder: %w", err)
	}
	defer rows.Close()

	var counts []FolderCount
	for rows.Next() {
		var fc FolderCount
		if err := rows.Scan(&fc.Folder, &fc.Count, &fc.Bytes); err != nil {
			return nil, err
		}
		counts = append(counts, fc)
	}
	return counts, rows.Err()
}

// CheckHealth returns diagnostic information about the catalog database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("catalog database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			health.DatabaseExists = false
			return health, nil
		}
		return health, fmt.Errorf("stat catalog database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("catalog database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	if s.db == nil {
		return health, errors.New("catalog database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping catalog database: %w", err)
	}
	health.DatabaseReadable = true

	row := s.db.QueryRowContext(connCtx, "SELECT COUNT(*) FROM media_assets")
	if err := row.Scan(&health.TotalAssets); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("count assets: %w", err)
	}

	row = s.db.QueryRowContext(connCtx, "PRAGMA integrity_check")
	var integrityResult string
	if err := row.Scan(&integrityResult); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")

	return health, nil
}

const assetColumns = "id, filename, original_name, mime_type, size, url, thumbnail_url, folder, created_at"

func scanAsset(scanner interface{ Scan(dest ...any) error }) (*Asset, error) {
	var (
		id           int64
		filename     string
		originalName string
		mimeType     string
		size         int64
		url          string
		thumbnailURL sql.NullString
		folder       sql.NullString
		createdRaw   sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&filename,
		&originalName,
		&mimeType,
		&size,
		&url,
		&thumbnailURL,
		&folder,
		&createdRaw,
	); err != nil {
		return nil, err
	}

	asset := &Asset{
		ID:           id,
		Filename:     filename,
		OriginalName: originalName,
		MimeType:     mimeType,
		Size:         size,
		URL:          url,
		ThumbnailURL: thumbnailURL.String,
		Folder:       folder.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		asset.CreatedAt = created
	}
	return asset, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
