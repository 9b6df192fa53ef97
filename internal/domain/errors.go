package domain

import "errors"

// Sentinel errors for playback and assembly operations
var (
	// ErrIndexOutOfRange indicates a play request for an index outside the playlist
	ErrIndexOutOfRange = errors.New("playlist index out of range")

	// ErrEmptyPlaylist indicates a transport operation on an empty playlist
	ErrEmptyPlaylist = errors.New("playlist is empty")

	// ErrStopped indicates the controller was stopped while an operation was in flight
	ErrStopped = errors.New("controller stopped")

	// ErrStartTimeout indicates the engine never reported a playing state in time
	ErrStartTimeout = errors.New("engine failed to start playback in time")

	// ErrNoDisplays indicates no physical display could be resolved
	ErrNoDisplays = errors.New("no displays detected")

	// ErrRootNotScanned indicates a playlist assembly referenced a root with no cached scan
	ErrRootNotScanned = errors.New("root has no scan result")
)
