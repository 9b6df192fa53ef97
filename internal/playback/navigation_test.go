package playback

import (
	"testing"

	"github.com/awells/rove/internal/domain"
)

func TestNavigator_SequentialWraps(t *testing.T) {
	n := NewNavigator(domain.LoopSequential, 1)

	next, ok := n.Next(0, 3)
	if !ok || next != 1 {
		t.Fatalf("Next(0) = %d,%v", next, ok)
	}
	next, ok = n.Next(2, 3)
	if !ok || next != 0 {
		t.Fatalf("Next at end should wrap to 0, got %d,%v", next, ok)
	}
	prev, ok := n.Previous(0, 3)
	if !ok || prev != 2 {
		t.Fatalf("Previous at start should wrap to 2, got %d,%v", prev, ok)
	}
}

func TestNavigator_LoopOffHaltsAtEnds(t *testing.T) {
	n := NewNavigator(domain.LoopOff, 1)

	if next, ok := n.Next(1, 3); !ok || next != 2 {
		t.Fatalf("Next(1) = %d,%v", next, ok)
	}
	if _, ok := n.Next(2, 3); ok {
		t.Fatal("Next at last index must halt, not wrap")
	}
	if _, ok := n.Previous(0, 3); ok {
		t.Fatal("Previous at first index must halt, not wrap")
	}
}

func TestNavigator_ShuffleVisitsAllOnce(t *testing.T) {
	const length = 10
	n := NewNavigator(domain.LoopShuffle, 42)

	seen := map[int]bool{0: true} // pass starts at index 0
	current := 0
	steps := 0
	for {
		next, ok := n.Next(current, length)
		if !ok {
			break
		}
		if seen[next] {
			t.Fatalf("index %d visited twice within one pass", next)
		}
		seen[next] = true
		current = next
		if steps++; steps > length {
			t.Fatal("shuffle pass did not terminate")
		}
	}
	if len(seen) != length {
		t.Fatalf("pass visited %d of %d indices", len(seen), length)
	}

	// The halt cleared the pass; advancing again starts a fresh one.
	if _, ok := n.Next(current, length); !ok {
		t.Fatal("next pass should start after exhaustion")
	}
}

func TestNavigator_EmptyPlaylistHalts(t *testing.T) {
	for _, mode := range []domain.LoopMode{domain.LoopSequential, domain.LoopOff, domain.LoopShuffle} {
		n := NewNavigator(mode, 1)
		if _, ok := n.Next(0, 0); ok {
			t.Fatalf("mode %v: Next on empty playlist must halt", mode)
		}
		if _, ok := n.Previous(0, 0); ok {
			t.Fatalf("mode %v: Previous on empty playlist must halt", mode)
		}
	}
}

func TestNavigator_Reset(t *testing.T) {
	n := NewNavigator(domain.LoopShuffle, 7)
	current := 0
	for i := 0; i < 2; i++ {
		next, ok := n.Next(current, 3)
		if !ok {
			t.Fatal("pass ended early")
		}
		current = next
	}
	n.Reset()
	// After reset every index is a candidate again.
	if _, ok := n.Next(current, 3); !ok {
		t.Fatal("Next after Reset should succeed")
	}
}

func directoryPlaylist() *domain.Playlist {
	return &domain.Playlist{
		Videos: []string{
			"/r/d1/a.mp4", "/r/d1/b.mp4",
			"/r/d2/a.mp4",
			"/r/d3/a.mp4", "/r/d3/b.mp4",
		},
		DirOf: map[string]string{
			"/r/d1/a.mp4": "/r/d1",
			"/r/d1/b.mp4": "/r/d1",
			"/r/d2/a.mp4": "/r/d2",
			"/r/d3/a.mp4": "/r/d3",
			"/r/d3/b.mp4": "/r/d3",
		},
		Directories: []string{"/r/d1", "/r/d2", "/r/d3"},
	}
}

func TestNextDirectory(t *testing.T) {
	pl := directoryPlaylist()

	// From inside d1 (any index) to the first video of d2.
	idx, ok := NextDirectory(pl, 1)
	if !ok || idx != 2 {
		t.Fatalf("NextDirectory from d1 = %d,%v, want 2", idx, ok)
	}

	// From the last directory wraps to the first.
	idx, ok = NextDirectory(pl, 4)
	if !ok || idx != 0 {
		t.Fatalf("NextDirectory from d3 = %d,%v, want wrap to 0", idx, ok)
	}
}

func TestPreviousDirectory(t *testing.T) {
	pl := directoryPlaylist()

	idx, ok := PreviousDirectory(pl, 2)
	if !ok || idx != 0 {
		t.Fatalf("PreviousDirectory from d2 = %d,%v, want 0", idx, ok)
	}

	// From the first directory wraps to the last.
	idx, ok = PreviousDirectory(pl, 0)
	if !ok || idx != 3 {
		t.Fatalf("PreviousDirectory from d1 = %d,%v, want wrap to 3", idx, ok)
	}
}

func TestAdjacentDirectory_UnknownCurrent(t *testing.T) {
	pl := directoryPlaylist()
	if _, ok := NextDirectory(pl, 99); ok {
		t.Fatal("out-of-range current index must not navigate")
	}
	empty := &domain.Playlist{DirOf: map[string]string{}}
	if _, ok := NextDirectory(empty, 0); ok {
		t.Fatal("empty playlist must not navigate")
	}
}
