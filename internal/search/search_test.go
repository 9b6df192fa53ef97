package search

import (
	"testing"

	"github.com/awells/rove/internal/domain"
	"github.com/awells/rove/internal/log"
)

func searchPlaylist() *domain.Playlist {
	videos := []string{
		"/r/shows/breaking.sound.mp4",
		"/r/shows/broken.mp4",
		"/r/movies/the.big.break.mp4",
		"/r/movies/sunset.mp4",
	}
	dirOf := map[string]string{
		videos[0]: "/r/shows",
		videos[1]: "/r/shows",
		videos[2]: "/r/movies",
		videos[3]: "/r/movies",
	}
	return &domain.Playlist{
		Videos:      videos,
		DirOf:       dirOf,
		Directories: []string{"/r/movies", "/r/shows"},
	}
}

func TestIndex_Search(t *testing.T) {
	idx := NewIndex(searchPlaylist(), log.NullLogger())

	results := idx.Search("break")
	if len(results) == 0 {
		t.Fatal("want matches for 'break'")
	}
	// Prefix match on the basename outranks a scattered subsequence hit.
	if results[0].Name != "breaking.sound.mp4" {
		t.Fatalf("best match = %q, want breaking.sound.mp4", results[0].Name)
	}
	for _, r := range results {
		if r.Path != searchPlaylist().Video(r.Index) {
			t.Fatalf("result index %d does not map back to its path", r.Index)
		}
	}
}

func TestIndex_SearchCaseInsensitive(t *testing.T) {
	idx := NewIndex(searchPlaylist(), log.NullLogger())
	if len(idx.Search("SUNSET")) == 0 {
		t.Fatal("search should be case-insensitive")
	}
}

func TestIndex_SearchNoMatch(t *testing.T) {
	idx := NewIndex(searchPlaylist(), log.NullLogger())
	if got := idx.Search("zzzqqq"); len(got) != 0 {
		t.Fatalf("want no matches, got %v", got)
	}
	if got := idx.Search("  "); got != nil {
		t.Fatalf("blank query should return nil, got %v", got)
	}
}

func TestIndex_Best(t *testing.T) {
	idx := NewIndex(searchPlaylist(), log.NullLogger())

	i, ok := idx.Best("sunset")
	if !ok || i != 3 {
		t.Fatalf("Best(sunset) = %d,%v, want 3", i, ok)
	}

	// Exact basename wins outright.
	i, ok = idx.Best("broken.mp4")
	if !ok || i != 1 {
		t.Fatalf("Best(broken.mp4) = %d,%v, want 1", i, ok)
	}

	if _, ok := idx.Best("nothing-matches-this"); ok {
		t.Fatal("Best should report no match")
	}
	if _, ok := idx.Best(""); ok {
		t.Fatal("Best of empty query should report no match")
	}
}

func TestIndex_EmptyPlaylist(t *testing.T) {
	idx := NewIndex(&domain.Playlist{}, log.NullLogger())
	if idx.Len() != 0 {
		t.Fatalf("len = %d", idx.Len())
	}
	if got := idx.Search("anything"); len(got) != 0 {
		t.Fatalf("want no matches, got %v", got)
	}
}
