// Package scanner turns root directories into deterministic scan results:
// the set of videos, a video-to-directory map, and the sorted set of
// directories that directly contain at least one video.
package scanner

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/awells/rove/internal/domain"
)

// Scan walks root recursively and builds its ScanResult. It is a pure
// function of filesystem state at call time.
//
// A directory enters the result iff it directly contains at least one file
// with a recognized video extension. Directories are sorted by path and
// videos within each directory by filename, so output order is stable for
// a given tree. Permission and transient OS errors on a subtree are logged
// and that subtree is skipped; they never fail the whole scan.
func Scan(root string, logger *slog.Logger) (domain.ScanResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	root = domain.CanonicalPath(root)

	if _, err := os.Stat(root); err != nil {
		return domain.ScanResult{}, err
	}

	// First pass: find every directory with a direct video.
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			logger.Warn("skipping unreadable subtree", "path", path, "error", walkErr)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			logger.Warn("skipping unreadable directory", "path", path, "error", err)
			return filepath.SkipDir
		}
		for _, e := range entries {
			if !e.IsDir() && domain.IsVideo(e.Name()) {
				dirs = append(dirs, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return domain.ScanResult{}, err
	}
	sort.Strings(dirs)

	// Second pass: collect videos directory by directory so the global
	// order is (directory, filename) sorted. A directory that vanished
	// between passes is dropped so Directories keeps its invariant of
	// holding only directories with at least one video.
	res := domain.ScanResult{DirOf: make(map[string]string)}
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			logger.Warn("directory vanished during scan", "path", dir, "error", err)
			continue
		}
		var names []string
		for _, e := range entries {
			if !e.IsDir() && domain.IsVideo(e.Name()) {
				names = append(names, e.Name())
			}
		}
		if len(names) == 0 {
			continue
		}
		sort.Strings(names)
		for _, name := range names {
			video := filepath.Join(dir, name)
			res.Videos = append(res.Videos, video)
			res.DirOf[video] = dir
		}
		res.Directories = append(res.Directories, dir)
	}

	return res, nil
}
