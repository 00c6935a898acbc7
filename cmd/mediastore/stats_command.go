package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mediastore/internal/catalog"
	"mediastore/internal/config"
	"mediastore/internal/media"
	"mediastore/internal/storage"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var folder string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Report storage usage per folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(cfg *config.Config, _ *media.Service, store *catalog.Store) error {
				inspector := storage.NewInspector(cfg.Paths.StorageRoot)
				out := cmd.OutOrStdout()

				if folder != "" {
					size, err := inspector.FolderSize(folder)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%s: %s\n", folder, formatBytes(size))
					return nil
				}

				report, err := inspector.Stats()
				if err != nil {
					return err
				}
				counts, err := store.CountsByFolder(cmd.Context())
				if err != nil {
					return err
				}
				catalogued := make(map[string]int, len(counts))
				for _, fc := range counts {
					catalogued[fc.Folder] = fc.Count
				}

				rows := make([][]string, 0, len(report.Folders))
				for _, f := range report.Folders {
					name := f.Folder
					if name == "" {
						name = "(root)"
					}
					rows = append(rows, []string{
						name,
						strconv.Itoa(f.Count),
						strconv.Itoa(catalogued[f.Folder]),
						formatBytes(f.Bytes),
					})
				}
				if len(rows) == 0 {
					fmt.Fprintln(out, "Storage root is empty")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Folder", "Files", "Catalogued", "Size"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
				))
				fmt.Fprintf(out, "Total: %d files, %s\n", report.TotalCount, formatBytes(report.TotalBytes))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&folder, "folder", "f", "", "Report a single folder's recursive size")
	return cmd
}
