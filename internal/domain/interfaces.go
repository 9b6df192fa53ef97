package domain

// WatchHistory receives fire-and-forget notifications when a video starts
// or finishes. Failures are logged by implementations and never surface to
// the controller.
type WatchHistory interface {
	// OnVideoStart is called when playback of a video begins.
	OnVideoStart(path string)

	// OnVideoEnd records how long the previous video was watched and
	// whether it counts as completed.
	OnVideoEnd(path string, watchedSeconds float64, completed bool)
}

// ResumeStore persists playback offsets so interrupted videos can be picked
// up where they left off.
type ResumeStore interface {
	// Position returns the saved offset for a video, if any.
	Position(path string) (ResumePosition, bool)

	// SavePosition records the current offset and duration for a video.
	SavePosition(path string, positionMS, durationMS int64) error

	// ClearPosition forgets the saved offset for a video.
	ClearPosition(path string)
}

// Queue optionally overrides navigation: when non-empty, its head is played
// before the navigation policy is consulted.
type Queue interface {
	// Advance pops and returns the next queued video path.
	// ok is false when the queue is empty.
	Advance() (path string, ok bool)
}
