package playback

import (
	"math/rand"
	"sync"

	"github.com/awells/rove/internal/domain"
)

// Navigator computes the next and previous playlist index under the active
// loop mode. It is stateful only for shuffle, where it tracks the indices
// already played in the current pass.
type Navigator struct {
	mode domain.LoopMode

	mu     sync.Mutex
	rng    *rand.Rand
	played map[int]struct{}
}

// NewNavigator creates a navigator for the given loop mode.
func NewNavigator(mode domain.LoopMode, seed int64) *Navigator {
	return &Navigator{
		mode:   mode,
		rng:    rand.New(rand.NewSource(seed)),
		played: make(map[int]struct{}),
	}
}

// Mode returns the active loop mode.
func (n *Navigator) Mode() domain.LoopMode { return n.mode }

// Next returns the index to play after current in a playlist of the given
// length. ok is false when the policy says to halt instead of advancing:
// loop-off at the last index, or shuffle after a full pass. A full shuffle
// pass also clears the played set, so the following Next starts a new pass.
func (n *Navigator) Next(current, length int) (next int, ok bool) {
	if length <= 0 {
		return current, false
	}

	switch n.mode {
	case domain.LoopOff:
		if current >= length-1 {
			return current, false
		}
		return current + 1, true

	case domain.LoopShuffle:
		return n.nextShuffle(current, length)

	default: // sequential
		return (current + 1) % length, true
	}
}

// Previous returns the index to play before current. ok is false when the
// policy says to stay put (loop-off at index zero). Shuffle retreats
// sequentially; there is no reverse random order to replay.
func (n *Navigator) Previous(current, length int) (prev int, ok bool) {
	if length <= 0 {
		return current, false
	}

	switch n.mode {
	case domain.LoopOff:
		if current <= 0 {
			return current, false
		}
		return current - 1, true

	default:
		return ((current-1)%length + length) % length, true
	}
}

// nextShuffle marks current as played and picks uniformly among the
// remaining indices. One full pass policy: once every index has been
// played the set is cleared and the session halts, rather than silently
// starting to repeat.
func (n *Navigator) nextShuffle(current, length int) (int, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if current >= 0 && current < length {
		n.played[current] = struct{}{}
	}

	candidates := make([]int, 0, length)
	for i := 0; i < length; i++ {
		if _, done := n.played[i]; !done {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		n.played = make(map[int]struct{})
		return current, false
	}

	next := candidates[n.rng.Intn(len(candidates))]
	n.played[next] = struct{}{}
	return next, true
}

// Reset clears shuffle state, starting a fresh pass.
func (n *Navigator) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.played = make(map[int]struct{})
}

// NextDirectory returns the playlist index of the first video in the
// directory after the one containing current, wrapping at the end of the
// merged directory list. ok is false when the current video's directory is
// unknown or the adjacent directory has no playable video.
func NextDirectory(pl *domain.Playlist, current int) (int, bool) {
	return adjacentDirectory(pl, current, +1)
}

// PreviousDirectory is NextDirectory's mirror image.
func PreviousDirectory(pl *domain.Playlist, current int) (int, bool) {
	return adjacentDirectory(pl, current, -1)
}

func adjacentDirectory(pl *domain.Playlist, current, step int) (int, bool) {
	nDirs := len(pl.Directories)
	if nDirs == 0 {
		return current, false
	}
	dir := pl.DirectoryOf(current)
	if dir == "" {
		return current, false
	}
	di := pl.DirectoryIndex(dir)
	if di < 0 {
		return current, false
	}
	adj := ((di+step)%nDirs + nDirs) % nDirs
	idx := pl.FirstVideoIn(pl.Directories[adj])
	if idx < 0 {
		return current, false
	}
	return idx, true
}
