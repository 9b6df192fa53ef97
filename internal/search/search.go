// Package search resolves user-typed queries to playlist entries so a
// session can start at (or jump to) a particular video without spelling
// out the full path.
package search

import (
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/awells/rove/internal/domain"
	lfuzzy "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sahilm/fuzzy"
)

// Match is one playlist entry that matched a query.
type Match struct {
	Index          int    // playlist index
	Path           string // full video path
	Name           string // base filename, the searched text
	MatchedIndexes []int  // character positions in Name that matched
	Score          int    // lower is better
}

// nameIndex implements fuzzy.Source over pre-lowered basenames for
// zero-allocation matching.
type nameIndex struct {
	names []string
}

func (idx *nameIndex) String(i int) string { return idx.names[i] }
func (idx *nameIndex) Len() int            { return len(idx.names) }

// Index is a fuzzy-searchable view over a playlist's filenames. It is
// built once per assembled playlist and safe for concurrent queries.
type Index struct {
	mu     sync.RWMutex
	paths  []string
	names  []string // display basenames, parallel to paths
	lower  *nameIndex
	logger *slog.Logger
}

// NewIndex builds an index over the playlist's basenames.
func NewIndex(pl *domain.Playlist, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	idx := &Index{
		lower:  &nameIndex{},
		logger: logger,
	}
	for i := 0; i < pl.Len(); i++ {
		path := pl.Video(i)
		name := filepath.Base(path)
		idx.paths = append(idx.paths, path)
		idx.names = append(idx.names, name)
		idx.lower.names = append(idx.lower.names, strings.ToLower(name))
	}
	logger.Debug("built search index", "entries", len(idx.paths))
	return idx
}

// Len returns the number of indexed entries.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.paths)
}

// Search returns playlist entries matching query, best first. Exact and
// prefix matches on the basename outrank subsequence matches.
func (idx *Index) Search(query string) []Match {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	matches := fuzzy.FindFromNoSort(query, idx.lower)

	results := make([]Match, 0, len(matches))
	for _, m := range matches {
		results = append(results, Match{
			Index:          m.Index,
			Path:           idx.paths[m.Index],
			Name:           idx.names[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          matchScore(idx.lower.names[m.Index], query, m.Score),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score < results[j].Score
	})
	return results
}

// Best resolves query to a single playlist index. When the primary matcher
// finds nothing it falls back to case-folded rank matching ordered by edit
// distance.
func (idx *Index) Best(query string) (int, bool) {
	if results := idx.Search(query); len(results) > 0 {
		return results[0].Index, true
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return 0, false
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	ranks := lfuzzy.RankFindFold(query, idx.lower.names)
	if len(ranks) == 0 {
		return 0, false
	}
	sort.Slice(ranks, func(i, j int) bool {
		return ranks[i].Distance < ranks[j].Distance
	})
	idx.logger.Debug("fell back to distance ranking",
		"query", query, "best", idx.names[ranks[0].OriginalIndex])
	return ranks[0].OriginalIndex, true
}

// matchScore reweights a raw fuzzy score so exact, prefix, and substring
// basename matches sort ahead of scattered subsequence hits. Lower is
// better.
func matchScore(name, query string, fuzzyScore int) int {
	switch {
	case name == query:
		return 0
	case strings.HasPrefix(name, query):
		return 10
	case strings.Contains(name, query):
		return 50
	default:
		// sahilm scores higher-is-better; invert into our ordering.
		return 100 - fuzzyScore
	}
}
