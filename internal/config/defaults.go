package config

const (
	defaultStorageRoot      = "~/.local/share/mediastore/files"
	defaultLogDir           = "~/.local/share/mediastore/logs"
	defaultAPIBind          = "127.0.0.1:7519"
	defaultPublicPrefix     = "/media"
	defaultMaxUploadBytes   = 10 << 20 // 10 MiB
	defaultThumbnailBox     = 300
	defaultThumbnailQuality = 75
	defaultVariantThumbnail = 400
	defaultVariantMedium    = 1200
	defaultVariantLarge     = 1920
	defaultThumbnailJPEGQ   = 75
	defaultMediumJPEGQ      = 80
	defaultLargeJPEGQ       = 85
	defaultLogFormat        = ""
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StorageRoot: defaultStorageRoot,
			LogDir:      defaultLogDir,
			APIBind:     defaultAPIBind,
		},
		Storage: Storage{
			PublicPrefix:     defaultPublicPrefix,
			MaxUploadBytes:   defaultMaxUploadBytes,
			ThumbnailBox:     defaultThumbnailBox,
			ThumbnailQuality: defaultThumbnailQuality,
		},
		Variants: Variants{
			ThumbnailWidth:   defaultVariantThumbnail,
			ThumbnailQuality: defaultThumbnailJPEGQ,
			MediumWidth:      defaultVariantMedium,
			MediumQuality:    defaultMediumJPEGQ,
			LargeWidth:       defaultVariantLarge,
			LargeQuality:     defaultLargeJPEGQ,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
