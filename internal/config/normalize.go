package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeStorage()
	c.normalizeVariants()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StorageRoot) == "" {
		c.Paths.StorageRoot = defaultStorageRoot
	}
	if c.Paths.StorageRoot, err = expandPath(c.Paths.StorageRoot); err != nil {
		return fmt.Errorf("paths.storage_root: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("MEDIASTORE_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeStorage() {
	c.Storage.PublicPrefix = strings.TrimSpace(c.Storage.PublicPrefix)
	if c.Storage.PublicPrefix == "" {
		c.Storage.PublicPrefix = defaultPublicPrefix
	}
	if !strings.HasPrefix(c.Storage.PublicPrefix, "/") {
		c.Storage.PublicPrefix = "/" + c.Storage.PublicPrefix
	}
	c.Storage.PublicPrefix = strings.TrimRight(c.Storage.PublicPrefix, "/")
	if c.Storage.PublicPrefix == "" {
		c.Storage.PublicPrefix = defaultPublicPrefix
	}
	if c.Storage.MaxUploadBytes <= 0 {
		c.Storage.MaxUploadBytes = defaultMaxUploadBytes
	}
	if c.Storage.ThumbnailBox <= 0 {
		c.Storage.ThumbnailBox = defaultThumbnailBox
	}
	if c.Storage.ThumbnailQuality <= 0 {
		c.Storage.ThumbnailQuality = defaultThumbnailQuality
	}
}

func (c *Config) normalizeVariants() {
	if c.Variants.ThumbnailWidth <= 0 {
		c.Variants.ThumbnailWidth = defaultVariantThumbnail
	}
	if c.Variants.MediumWidth <= 0 {
		c.Variants.MediumWidth = defaultVariantMedium
	}
	if c.Variants.LargeWidth <= 0 {
		c.Variants.LargeWidth = defaultVariantLarge
	}
	if c.Variants.ThumbnailQuality <= 0 {
		c.Variants.ThumbnailQuality = defaultThumbnailJPEGQ
	}
	if c.Variants.MediumQuality <= 0 {
		c.Variants.MediumQuality = defaultMediumJPEGQ
	}
	if c.Variants.LargeQuality <= 0 {
		c.Variants.LargeQuality = defaultLargeJPEGQ
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		c.Logging.Format = ""
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
