package storage

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// FolderStats aggregates file count and byte size for one top-level folder.
type FolderStats struct {
	Folder string `json:"folder"`
	Count  int    `json:"count"`
	Bytes  int64  `json:"bytes"`
}

// Report is the full storage usage summary.
type Report struct {
	Folders    []FolderStats `json:"folders"`
	TotalCount int           `json:"totalCount"`
	TotalBytes int64         `json:"totalBytes"`
}

// Inspector walks the storage root to report disk usage. It is read-only and
// tolerates unreadable or missing folders by treating them as empty.
type Inspector struct {
	Root string
}

// NewInspector constructs an inspector over root.
func NewInspector(root string) Inspector {
	return Inspector{Root: root}
}

// FolderSize sums file sizes under a logical folder. A missing or unreadable
// folder reports zero rather than an error.
func (i Inspector) FolderSize(folder string) (int64, error) {
	target := filepath.Join(i.Root, filepath.FromSlash(folder))
	size, _, err := walkSize(target)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	return size, nil
}

// Stats reports per-folder usage for every top-level folder plus files stored
// directly under the root, and aggregate totals.
func (i Inspector) Stats() (Report, error) {
	report := Report{}

	entries, err := os.ReadDir(i.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return report, nil
		}
		return report, err
	}

	rootStats := FolderStats{Folder: ""}
	for _, entry := range entries {
		if entry.IsDir() {
			size, count, err := walkSize(filepath.Join(i.Root, entry.Name()))
			if err != nil {
				continue
			}
			report.Folders = append(report.Folders, FolderStats{
				Folder: entry.Name(),
				Count:  count,
				Bytes:  size,
			})
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		rootStats.Count++
		rootStats.Bytes += info.Size()
	}
	if rootStats.Count > 0 {
		report.Folders = append(report.Folders, rootStats)
	}

	sort.Slice(report.Folders, func(a, b int) bool {
		return report.Folders[a].Folder < report.Folders[b].Folder
	})
	for _, f := range report.Folders {
		report.TotalCount += f.Count
		report.TotalBytes += f.Bytes
	}
	return report, nil
}

func walkSize(path string) (int64, int, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, 0, err
	}
	var size int64
	var count int
	err := filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, best effort.
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		size += info.Size()
		count++
		return nil
	})
	return size, count, err
}
