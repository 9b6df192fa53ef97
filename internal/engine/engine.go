// Package engine defines the narrow interface the playback controller
// drives. The backing media engine is opaque: it decodes and renders on its
// own, the controller only observes and steers it.
package engine

import (
	"time"

	"github.com/awells/rove/internal/domain"
)

// State is the engine's externally observable playback state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StatePlaying
	StatePaused
	StateEnded
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	case StateError:
		return "error"
	default:
		return "idle"
	}
}

// Engine is one instance of the external media engine. Output placement is
// bound at construction (see Factory); everything else is a live property.
// Implementations are not required to be safe for concurrent use — the
// controller serializes all calls under its own mutex.
type Engine interface {
	// Load replaces the current media with the file at path and starts it.
	Load(path string) error

	// Play resumes a paused engine.
	Play() error

	// Pause pauses a playing engine.
	Pause() error

	// Stop halts playback and unloads the current media.
	Stop() error

	// Seek jumps to an absolute position.
	Seek(pos time.Duration) error

	// SetRate sets the playback rate. Engines do not guarantee the rate
	// survives a Load, so the controller reasserts it after every one.
	SetRate(rate float64) error

	// SetVolume sets the volume in [0,100].
	SetVolume(volume int) error

	// SetFullscreen toggles fullscreen output.
	SetFullscreen(on bool) error

	// State returns the current playback state.
	State() (State, error)

	// Position returns the current playback position.
	Position() (time.Duration, error)

	// Duration returns the length of the loaded media, zero if unknown.
	Duration() (time.Duration, error)

	// Close releases the engine instance and its process/resources.
	// The engine is unusable afterwards.
	Close() error
}

// Factory creates an engine instance with its video output placed on the
// given display. Placement binds only at construction, which is why a
// monitor switch recreates the engine instead of moving it.
type Factory func(mon domain.MonitorDescriptor) (Engine, error)
