package variants

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"mediastore/internal/config"
	"mediastore/internal/logging"
	"mediastore/internal/services"
	"mediastore/internal/storage"
)

// Size class names double as the derived filenames inside a subfolder.
const (
	ClassThumbnail = "thumbnail"
	ClassMedium    = "medium"
	ClassLarge     = "large"
)

// class couples a size class with its encode quality.
type class struct {
	name    string
	width   int
	quality int
}

// Variant describes one derived image on disk.
type Variant struct {
	Name   string `json:"name"`
	Path   string `json:"-"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Bytes  int64  `json:"bytes"`
}

// Set groups the derived images sharing one generated subfolder.
type Set struct {
	Folder    string  `json:"folder"`
	Subfolder string  `json:"subfolder"`
	Thumbnail Variant `json:"thumbnail"`
	Medium    Variant `json:"medium"`
	Large     Variant `json:"large"`
}

// Options controls a derivation call. Folder must already be normalized by
// the upload validator. Subfolder is the per-asset key; empty means a fresh
// random token. Quality, when positive, overrides every class quality.
type Options struct {
	Folder    string
	Subfolder string
	Quality   int
}

// Optimizer produces variant sets under the storage root.
type Optimizer struct {
	layout       storage.Layout
	publicPrefix string
	logger       *slog.Logger
	classes      []class
}

// New constructs an optimizer using the configured size classes.
func New(root, publicPrefix string, cfg config.Variants, logger *slog.Logger) *Optimizer {
	return &Optimizer{
		layout:       storage.NewLayout(root),
		publicPrefix: publicPrefix,
		logger:       logging.NewComponentLogger(logger, "variant-optimizer"),
		classes: []class{
			{name: ClassThumbnail, width: cfg.ThumbnailWidth, quality: cfg.ThumbnailQuality},
			{name: ClassMedium, width: cfg.MediumWidth, quality: cfg.MediumQuality},
			{name: ClassLarge, width: cfg.LargeWidth, quality: cfg.LargeQuality},
		},
	}
}

// OptimizeAndSave decodes the payload once and writes every size class into
// `<folder>/<subfolder>/`. All classes must succeed; on failure the partial
// subfolder is best-effort removed and ErrVariantGeneration is returned.
func (o *Optimizer) OptimizeAndSave(data []byte, originalName string, opts Options) (*Set, error) {
	subfolder, err := resolveSubfolder(opts.Subfolder)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, services.Wrap(services.ErrVariantGeneration, "variants", "decode", fmt.Sprintf("cannot decode %q", originalName), err)
	}

	subdir := filepath.Join(filepath.FromSlash(opts.Folder), subfolder)
	if err := o.layout.EnsureDir(filepath.ToSlash(subdir)); err != nil {
		return nil, services.Wrap(services.ErrVariantGeneration, "variants", "prepare", "", err)
	}

	set := &Set{Folder: opts.Folder, Subfolder: subfolder}
	slots := map[string]*Variant{
		ClassThumbnail: &set.Thumbnail,
		ClassMedium:    &set.Medium,
		ClassLarge:     &set.Large,
	}
	for _, cl := range o.classes {
		variant, err := o.writeClass(img, opts.Folder, subfolder, cl, opts.Quality)
		if err != nil {
			o.cleanupPartial(opts.Folder, subfolder)
			return nil, services.Wrap(services.ErrVariantGeneration, "variants", cl.name, "", err)
		}
		*slots[cl.name] = variant
	}

	o.logger.Info("variant set written",
		logging.String(logging.FieldFolder, opts.Folder),
		logging.String("subfolder", subfolder),
		logging.Int("large_width", set.Large.Width),
	)
	return set, nil
}

// OptimizeSingle produces one resized, recompressed copy for assets that do
// not need a full set, such as a site logo.
func (o *Optimizer) OptimizeSingle(data []byte, originalName string, opts Options) (*Variant, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, services.Wrap(services.ErrVariantGeneration, "variants", "decode", fmt.Sprintf("cannot decode %q", originalName), err)
	}

	if err := o.layout.EnsureDir(opts.Folder); err != nil {
		return nil, services.Wrap(services.ErrVariantGeneration, "variants", "prepare", "", err)
	}

	large := o.classes[len(o.classes)-1]
	filename := storage.RandomToken() + ".jpg"
	variant, err := o.encodeTo(img, opts.Folder, filename, large.width, pickQuality(opts.Quality, large.quality))
	if err != nil {
		return nil, services.Wrap(services.ErrVariantGeneration, "variants", "single", "", err)
	}
	return &variant, nil
}

// DeleteFolder removes an entire per-asset subfolder. A missing target is not
// an error.
func (o *Optimizer) DeleteFolder(folder, subfolder string) error {
	subfolder = strings.TrimSpace(subfolder)
	if subfolder == "" || !validSubfolder(subfolder) {
		return services.Wrap(services.ErrPathTraversal, "variants", "delete", fmt.Sprintf("subfolder %q is not a valid token", subfolder), nil)
	}
	target := filepath.Join(o.layout.Root, filepath.FromSlash(folder), subfolder)
	rel, err := filepath.Rel(o.layout.Root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return services.Wrap(services.ErrPathTraversal, "variants", "delete", fmt.Sprintf("path %q escapes the storage root", filepath.Join(folder, subfolder)), err)
	}
	if err := os.RemoveAll(target); err != nil {
		return fmt.Errorf("remove variant folder %q: %w", target, err)
	}
	return nil
}

// DeleteFile removes one derived file, logging rather than failing on error.
func (o *Optimizer) DeleteFile(path string) {
	if strings.TrimSpace(path) == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		o.logger.Warn("failed to remove variant file",
			logging.String("path", path),
			logging.Error(err),
		)
	}
}

func (o *Optimizer) writeClass(img image.Image, folder, subfolder string, cl class, qualityOverride int) (Variant, error) {
	return o.encodeTo(img, filepath.ToSlash(filepath.Join(filepath.FromSlash(folder), subfolder)), cl.name+".jpg", cl.width, pickQuality(qualityOverride, cl.quality))
}

func (o *Optimizer) encodeTo(img image.Image, folder, filename string, maxWidth, quality int) (Variant, error) {
	resized := img
	if img.Bounds().Dx() > maxWidth {
		resized = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	target, err := o.layout.Resolve(folder, filename)
	if err != nil {
		return Variant{}, err
	}
	if err := imaging.Save(resized, target, imaging.JPEGQuality(quality)); err != nil {
		return Variant{}, fmt.Errorf("encode %q: %w", target, err)
	}
	info, err := os.Stat(target)
	if err != nil {
		return Variant{}, fmt.Errorf("stat %q: %w", target, err)
	}

	return Variant{
		Name:   strings.TrimSuffix(filename, filepath.Ext(filename)),
		Path:   target,
		URL:    storage.PublicURL(o.publicPrefix, folder, filename),
		Width:  resized.Bounds().Dx(),
		Height: resized.Bounds().Dy(),
		Bytes:  info.Size(),
	}, nil
}

func (o *Optimizer) cleanupPartial(folder, subfolder string) {
	target := filepath.Join(o.layout.Root, filepath.FromSlash(folder), subfolder)
	if err := os.RemoveAll(target); err != nil {
		o.logger.Warn("failed to remove partial variant set",
			logging.String("path", target),
			logging.Error(err),
		)
	}
}

func resolveSubfolder(subfolder string) (string, error) {
	trimmed := strings.TrimSpace(subfolder)
	if trimmed == "" {
		return storage.RandomToken(), nil
	}
	if !validSubfolder(trimmed) {
		return "", services.Wrap(services.ErrPathTraversal, "variants", "subfolder", fmt.Sprintf("subfolder %q is not a valid token", subfolder), nil)
	}
	return trimmed, nil
}

// validSubfolder accepts a single path element: no separators, no dot
// segments.
func validSubfolder(value string) bool {
	if value == "." || value == ".." {
		return false
	}
	return !strings.ContainsAny(value, "/\\\x00")
}

func pickQuality(override, fallback int) int {
	if override > 0 && override <= 100 {
		return override
	}
	return fallback
}
