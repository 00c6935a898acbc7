package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateVariants(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.StorageRoot == "" {
		return errors.New("paths.storage_root must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	if c.Paths.StorageRoot == c.Paths.LogDir {
		return errors.New("paths.storage_root and paths.log_dir must differ")
	}
	return nil
}

func (c *Config) validateStorage() error {
	if c.Storage.MaxUploadBytes <= 0 {
		return errors.New("storage.max_upload_bytes must be positive")
	}
	if c.Storage.ThumbnailBox <= 0 {
		return errors.New("storage.thumbnail_box must be positive")
	}
	if c.Storage.ThumbnailQuality < 1 || c.Storage.ThumbnailQuality > 100 {
		return errors.New("storage.thumbnail_quality must be between 1 and 100")
	}
	return nil
}

func (c *Config) validateVariants() error {
	widths := map[string]int{
		"variants.thumbnail_width": c.Variants.ThumbnailWidth,
		"variants.medium_width":    c.Variants.MediumWidth,
		"variants.large_width":     c.Variants.LargeWidth,
	}
	for key, value := range widths {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	qualities := map[string]int{
		"variants.thumbnail_quality": c.Variants.ThumbnailQuality,
		"variants.medium_quality":    c.Variants.MediumQuality,
		"variants.large_quality":     c.Variants.LargeQuality,
	}
	for key, value := range qualities {
		if value < 1 || value > 100 {
			return fmt.Errorf("%s must be between 1 and 100", key)
		}
	}
	if c.Variants.ThumbnailWidth > c.Variants.MediumWidth {
		return errors.New("variants.thumbnail_width must not exceed variants.medium_width")
	}
	if c.Variants.MediumWidth > c.Variants.LargeWidth {
		return errors.New("variants.medium_width must not exceed variants.large_width")
	}
	return nil
}
