package domain

import (
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// videoExts is the recognized media extension allow-list (lowercase).
var videoExts = map[string]bool{
	".mp4": true, ".mkv": true, ".avi": true,
	".mov": true, ".wmv": true, ".flv": true,
}

// IsVideo reports whether path has a recognized video extension.
// The match is case-insensitive on the suffix only.
func IsVideo(path string) bool {
	return videoExts[strings.ToLower(filepath.Ext(path))]
}

// ScanResult is the outcome of walking one root directory.
// Videos is ordered directory-by-directory, DirOf is total over Videos, and
// every entry of Directories directly contains at least one video.
type ScanResult struct {
	Videos      []string          // absolute video paths, ordered
	DirOf       map[string]string // video path -> containing directory
	Directories []string          // sorted directories with >=1 direct video
}

// Playlist is the globally ordered, exclusion-filtered video list assembled
// from one or more roots, plus the merged directory list. It is immutable
// once assembled: changing roots or exclusions means assembling a new one.
type Playlist struct {
	Videos      []string
	DirOf       map[string]string
	Directories []string
}

// Len returns the number of playable videos.
func (p *Playlist) Len() int { return len(p.Videos) }

// Empty reports whether the playlist has no videos.
func (p *Playlist) Empty() bool { return len(p.Videos) == 0 }

// Video returns the video at index i, or "" when out of range.
func (p *Playlist) Video(i int) string {
	if i < 0 || i >= len(p.Videos) {
		return ""
	}
	return p.Videos[i]
}

// DirectoryOf returns the directory containing the video at index i.
func (p *Playlist) DirectoryOf(i int) string {
	v := p.Video(i)
	if v == "" {
		return ""
	}
	return p.DirOf[v]
}

// DirectoryIndex returns the position of dir in the merged directory list,
// or -1 when absent. Directories is sorted, so this is a binary search.
func (p *Playlist) DirectoryIndex(dir string) int {
	i := sort.SearchStrings(p.Directories, dir)
	if i < len(p.Directories) && p.Directories[i] == dir {
		return i
	}
	return -1
}

// FirstVideoIn returns the playlist index of the first video whose
// containing directory is dir, or -1 when the directory holds no videos.
// Videos within a directory are ordered by filename, so the first hit is
// the lexicographically first video of that directory.
func (p *Playlist) FirstVideoIn(dir string) int {
	for i, v := range p.Videos {
		if p.DirOf[v] == dir {
			return i
		}
	}
	return -1
}

// IndexOf returns the playlist index of the given video path, or -1.
func (p *Playlist) IndexOf(video string) int {
	for i, v := range p.Videos {
		if v == video {
			return i
		}
	}
	return -1
}

// LoopMode selects the navigation discipline for automatic and manual
// advance.
type LoopMode int

const (
	// LoopSequential wraps around both ends of the playlist.
	LoopSequential LoopMode = iota
	// LoopOff advances until the last index, then pauses instead of wrapping.
	LoopOff
	// LoopShuffle visits every index once in random order, then pauses.
	LoopShuffle
)

func (m LoopMode) String() string {
	switch m {
	case LoopOff:
		return "loop-off"
	case LoopShuffle:
		return "shuffle"
	default:
		return "sequential"
	}
}

// ParseLoopMode maps a config/flag value to a LoopMode. Unknown values fall
// back to sequential.
func ParseLoopMode(s string) LoopMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "loop-off", "off", "once":
		return LoopOff
	case "shuffle", "random":
		return LoopShuffle
	default:
		return LoopSequential
	}
}

// MonitorDescriptor is the geometry of a physical display, used for engine
// output placement.
type MonitorDescriptor struct {
	X      int
	Y      int
	Width  int
	Height int
}

// ResumePosition is a saved playback offset for a video, owned by the
// resume-position store.
type ResumePosition struct {
	Path      string    `json:"path"`
	Position  int64     `json:"position_ms"`
	Duration  int64     `json:"duration_ms"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Percentage returns how far through the video the saved position is, in
// [0,100]. Zero when the duration is unknown.
func (r ResumePosition) Percentage() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.Position) / float64(r.Duration) * 100
}

// ShouldResume reports whether the position is worth offering as a resume
// point: at least resumeMargin from either end of the video.
func (r ResumePosition) ShouldResume() bool {
	const resumeMargin = 5000 // ms
	if r.Duration <= 0 {
		return false
	}
	return r.Position >= resumeMargin && r.Position <= r.Duration-resumeMargin
}

// WatchEntry records one playback of a video for the watch history.
type WatchEntry struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	StartedAt time.Time `json:"started_at"`
	Watched   float64   `json:"watched_seconds"`
	Completed bool      `json:"completed"`
}
