package main

import (
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mediastore/internal/catalog"
	"mediastore/internal/config"
	"mediastore/internal/media"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var folder string
	var mimeType string

	cmd := &cobra.Command{
		Use:   "add <file>",
		Short: "Store a local file in the media library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := strings.TrimSpace(args[0])
			data, err := os.ReadFile(source)
			if err != nil {
				return fmt.Errorf("read source file: %w", err)
			}

			declared := mimeType
			if declared == "" {
				declared = mime.TypeByExtension(filepath.Ext(source))
				if idx := strings.Index(declared, ";"); idx > 0 {
					declared = declared[:idx]
				}
			}

			return ctx.withService(func(cfg *config.Config, svc *media.Service, _ *catalog.Store) error {
				asset, err := svc.Upload(cmd.Context(), media.UploadRequest{
					Data:     data,
					Filename: filepath.Base(source),
					MimeType: declared,
					Folder:   folder,
				})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Stored %s as asset %d\n", filepath.Base(source), asset.ID)
				fmt.Fprintf(out, "URL: %s\n", asset.URL)
				if asset.ThumbnailURL != "" {
					fmt.Fprintf(out, "Thumbnail: %s\n", asset.ThumbnailURL)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&folder, "folder", "f", "", "Logical folder to store under")
	cmd.Flags().StringVar(&mimeType, "mime", "", "Declared MIME type (default: derived from extension)")
	return cmd
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var folder string
	var page int
	var limit int

	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List catalogued media assets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(cfg *config.Config, svc *media.Service, _ *catalog.Store) error {
				assets, pagination, err := svc.List(cmd.Context(), folder, page, limit)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(assets) == 0 {
					fmt.Fprintln(out, "No media assets found")
					return nil
				}

				rows := make([][]string, 0, len(assets))
				for _, asset := range assets {
					rows = append(rows, []string{
						strconv.FormatInt(asset.ID, 10),
						asset.OriginalName,
						asset.Folder,
						asset.MimeType,
						formatBytes(asset.Size),
						asset.CreatedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Name", "Folder", "Type", "Size", "Created"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				fmt.Fprintf(out, "Page %d of %d (%d assets)\n", pagination.Page, pagination.TotalPages, pagination.Total)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&folder, "folder", "f", "", "Restrict to one logical folder")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&limit, "limit", 50, "Assets per page")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one media asset as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid asset id %q", args[0])
			}
			return ctx.withService(func(cfg *config.Config, svc *media.Service, _ *catalog.Store) error {
				asset, err := svc.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(asset)
			})
		},
	}
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a media asset and its files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid asset id %q", args[0])
			}
			return ctx.withService(func(cfg *config.Config, svc *media.Service, _ *catalog.Store) error {
				if err := svc.Delete(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted asset %d\n", id)
				return nil
			})
		},
	}
}

func formatBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}
