package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"mediastore/internal/logging"
	"mediastore/internal/upload"
	"mediastore/internal/variants"
)

func newOptimizeCommand(ctx *commandContext) *cobra.Command {
	var folder string
	var subfolder string
	var quality int
	var single bool

	cmd := &cobra.Command{
		Use:   "optimize <file>",
		Short: "Generate resized image variants for a local file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			source := strings.TrimSpace(args[0])
			data, err := os.ReadFile(source)
			if err != nil {
				return fmt.Errorf("read source file: %w", err)
			}

			validator := upload.New(cfg.Paths.StorageRoot, cfg.Storage.MaxUploadBytes)
			normalized, err := validator.NormalizeFolder(folder)
			if err != nil {
				return err
			}

			optimizer := variants.New(cfg.Paths.StorageRoot, cfg.Storage.PublicPrefix, cfg.Variants, logging.NewNop())
			opts := variants.Options{Folder: normalized, Subfolder: subfolder, Quality: quality}
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")

			if single {
				variant, err := optimizer.OptimizeSingle(data, filepath.Base(source), opts)
				if err != nil {
					return err
				}
				return encoder.Encode(variant)
			}

			set, err := optimizer.OptimizeAndSave(data, filepath.Base(source), opts)
			if err != nil {
				return err
			}
			return encoder.Encode(set)
		},
	}

	cmd.Flags().StringVarP(&folder, "folder", "f", "", "Logical folder to store variants under")
	cmd.Flags().StringVar(&subfolder, "subfolder", "", "Variant subfolder token (default: random)")
	cmd.Flags().IntVarP(&quality, "quality", "q", 0, "JPEG quality override for every size class")
	cmd.Flags().BoolVar(&single, "single", false, "Produce one large-class copy instead of a full set")
	return cmd
}
