// Package exclude holds, per root directory, the set of excluded directory
// subtrees and individual video files, and answers whether a candidate path
// is effectively excluded.
package exclude

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/awells/rove/internal/domain"
)

// record is one root's exclusion state. Presence of a record means the root
// has at least one exclusion; a record whose sets both empty out is dropped
// entirely.
type record struct {
	dirs   map[string]struct{}
	videos map[string]struct{}
}

func (r *record) empty() bool {
	return len(r.dirs) == 0 && len(r.videos) == 0
}

// Engine tracks exclusions for every selected root.
type Engine struct {
	logger *slog.Logger

	mu    sync.RWMutex
	roots map[string]*record
}

// NewEngine creates an empty exclusion engine.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		logger: logger,
		roots:  make(map[string]*record),
	}
}

// Exclude marks the given paths excluded under root. A directory path
// excludes its full closure: the directory, every nested directory, and
// every video file underneath. A file path excludes just that video.
// Re-excluding already excluded paths is a no-op (set union).
func (e *Engine) Exclude(root string, paths []string) {
	root = domain.CanonicalPath(root)
	dirs, videos := closure(paths, e.logger)

	e.mu.Lock()
	defer e.mu.Unlock()

	rec, ok := e.roots[root]
	if !ok {
		rec = &record{dirs: make(map[string]struct{}), videos: make(map[string]struct{})}
		e.roots[root] = rec
	}
	for d := range dirs {
		rec.dirs[d] = struct{}{}
	}
	for v := range videos {
		rec.videos[v] = struct{}{}
	}
	e.logger.Info("excluded paths", "root", root,
		"dirs", len(dirs), "videos", len(videos))
}

// Include removes the given paths (directory closures and individual
// videos) from root's exclusion sets. When both sets become empty the
// root's record is dropped entirely.
func (e *Engine) Include(root string, paths []string) {
	root = domain.CanonicalPath(root)
	dirs, videos := closure(paths, e.logger)

	e.mu.Lock()
	defer e.mu.Unlock()

	rec, ok := e.roots[root]
	if !ok {
		return
	}
	for d := range dirs {
		delete(rec.dirs, d)
	}
	for v := range videos {
		delete(rec.videos, v)
	}
	if rec.empty() {
		delete(e.roots, root)
	}
	e.logger.Info("included paths", "root", root,
		"dirs", len(dirs), "videos", len(videos))
}

// ExcludeAll excludes the entire root directory and, transitively,
// everything under it.
func (e *Engine) ExcludeAll(root string) {
	e.Exclude(root, []string{root})
}

// Clear drops root's exclusion record entirely.
func (e *Engine) Clear(root string) {
	root = domain.CanonicalPath(root)

	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.roots, root)
}

// IsExcluded reports whether a video is excluded under root: either listed
// individually, or its containing directory equals or is nested under an
// excluded directory. The nesting test is path-segment aware, so excluding
// /a/b never matches /a/bc.
func (e *Engine) IsExcluded(root, video string) bool {
	root = domain.CanonicalPath(root)
	video = domain.CanonicalPath(video)

	e.mu.RLock()
	defer e.mu.RUnlock()

	rec, ok := e.roots[root]
	if !ok {
		return false
	}
	if _, ok := rec.videos[video]; ok {
		return true
	}
	return dirExcludedLocked(rec, filepath.Dir(video))
}

// IsDirExcluded reports whether dir equals or is nested under any excluded
// directory of root.
func (e *Engine) IsDirExcluded(root, dir string) bool {
	root = domain.CanonicalPath(root)
	dir = domain.CanonicalPath(dir)

	e.mu.RLock()
	defer e.mu.RUnlock()

	rec, ok := e.roots[root]
	if !ok {
		return false
	}
	return dirExcludedLocked(rec, dir)
}

// HasExclusions reports whether root currently has an exclusion record.
func (e *Engine) HasExclusions(root string) bool {
	root = domain.CanonicalPath(root)

	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.roots[root]
	return ok
}

func dirExcludedLocked(rec *record, dir string) bool {
	if _, ok := rec.dirs[dir]; ok {
		return true
	}
	for base := range rec.dirs {
		if domain.IsUnder(dir, base) {
			return true
		}
	}
	return false
}

// closure expands a path selection into the directory and video sets it
// covers. Directories are walked recursively; unreadable subtrees are
// logged and skipped. A path that no longer exists is treated as a video
// path so a stale exclusion can still be removed by Include.
func closure(paths []string, logger *slog.Logger) (dirs, videos map[string]struct{}) {
	dirs = make(map[string]struct{})
	videos = make(map[string]struct{})

	for _, p := range paths {
		p = domain.CanonicalPath(p)
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			if domain.IsVideo(p) {
				videos[p] = struct{}{}
			}
			continue
		}

		dirs[p] = struct{}{}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				logger.Warn("skipping unreadable subtree", "path", path, "error", walkErr)
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				dirs[domain.CanonicalPath(path)] = struct{}{}
				return nil
			}
			if domain.IsVideo(path) {
				videos[domain.CanonicalPath(path)] = struct{}{}
			}
			return nil
		})
		if err != nil {
			logger.Warn("closure walk failed", "path", p, "error", err)
		}
	}
	return dirs, videos
}
