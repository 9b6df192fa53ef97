// Package actions maps named playback actions to controller calls. The
// dispatcher has an explicit enable/disable lifecycle tied to controller
// start/stop, so a stopped controller can never be poked by a stale key
// binding.
package actions

import (
	"log/slog"
	"sync"
)

// Action names dispatched by input frontends.
const (
	NextVideo        = "next_video"
	PrevVideo        = "prev_video"
	NextDirectory    = "next_directory"
	PrevDirectory    = "prev_directory"
	TogglePause      = "toggle_pause"
	VolumeUp         = "volume_up"
	VolumeDown       = "volume_down"
	SeekForward      = "seek_forward"
	SeekBack         = "seek_back"
	ToggleFullscreen = "toggle_fullscreen"
	SpeedUp          = "speed_up"
	SpeedDown        = "speed_down"
	SpeedReset       = "speed_reset"
	Monitor1         = "monitor_1"
	Monitor2         = "monitor_2"
	Stop             = "stop"
)

// Table maps action names to thunks.
type Table map[string]func()

// Dispatcher routes named actions to the currently enabled table.
type Dispatcher struct {
	logger *slog.Logger

	mu    sync.RWMutex
	table Table
}

// NewDispatcher creates a disabled dispatcher.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{logger: logger}
}

// Enable installs a new action table, replacing any previous one.
func (d *Dispatcher) Enable(table Table) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.table = table
	d.logger.Debug("action dispatcher enabled", "actions", len(table))
}

// Disable removes the action table; subsequent dispatches are no-ops.
func (d *Dispatcher) Disable() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.table = nil
	d.logger.Debug("action dispatcher disabled")
}

// Enabled reports whether a table is installed.
func (d *Dispatcher) Enabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.table != nil
}

// Dispatch invokes the named action. Unknown names and dispatches while
// disabled are ignored.
func (d *Dispatcher) Dispatch(name string) {
	d.mu.RLock()
	fn := d.table[name]
	d.mu.RUnlock()

	if fn == nil {
		return
	}
	d.logger.Debug("dispatching action", "action", name)
	fn()
}
