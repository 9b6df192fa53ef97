// Package playlist merges per-root scan results, filtered through the
// exclusion engine, into one global playlist.
package playlist

import (
	"log/slog"
	"sort"

	"github.com/awells/rove/internal/domain"
	"github.com/awells/rove/internal/exclude"
)

// ScanCache is the subset of the scanner pool the assembler reads.
type ScanCache interface {
	Cached(root string) (domain.ScanResult, bool)
}

// Assemble builds the playable list from the cached scan of each root.
// Per-root video order is preserved and roots contribute in the order they
// were selected. The merged directory list is deduplicated and globally
// sorted, independent of root order, so directory-skip navigation has one
// total order. Roots without a cached scan contribute nothing.
func Assemble(roots []string, cache ScanCache, excl *exclude.Engine, logger *slog.Logger) domain.Playlist {
	if logger == nil {
		logger = slog.Default()
	}

	pl := domain.Playlist{DirOf: make(map[string]string)}
	dirSet := make(map[string]struct{})

	for _, root := range roots {
		root = domain.CanonicalPath(root)
		res, ok := cache.Cached(root)
		if !ok {
			logger.Warn("root has no scan result, skipping", "root", root)
			continue
		}

		for _, v := range res.Videos {
			if excl.IsExcluded(root, v) {
				continue
			}
			pl.Videos = append(pl.Videos, v)
			pl.DirOf[v] = res.DirOf[v]
		}
		for _, d := range res.Directories {
			if excl.IsDirExcluded(root, d) {
				continue
			}
			dirSet[d] = struct{}{}
		}
	}

	pl.Directories = make([]string, 0, len(dirSet))
	for d := range dirSet {
		pl.Directories = append(pl.Directories, d)
	}
	sort.Strings(pl.Directories)

	logger.Info("playlist assembled", "roots", len(roots),
		"videos", len(pl.Videos), "directories", len(pl.Directories))
	return pl
}
