// Package playback owns the external media engine and all transport state,
// and drives a single active playback session over an assembled playlist.
package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/awells/rove/internal/domain"
	"github.com/awells/rove/internal/engine"
	"github.com/awells/rove/internal/monitor"
)

// SessionState is the controller's coarse lifecycle state.
type SessionState int

const (
	StateIdle SessionState = iota
	StateLoading
	StatePlaying
	StatePaused
	StateStopped
)

func (s SessionState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "idle"
	}
}

// Config holds the controller's timing knobs and transport defaults.
type Config struct {
	PollInterval time.Duration // end-of-media poll cadence
	StartTimeout time.Duration // bound on the wait-for-playing loop
	SettleDelay  time.Duration // pause after a monitor-switch recreate
	SeekStep     time.Duration // seek_forward / seek_back step
	Volume       int           // initial volume
	Rate         float64       // initial playback rate

	ResumeSaveEvery   time.Duration // position tracker tick
	ResumeMinPosition time.Duration // don't save positions before this offset
	ResumeClearPct    float64       // clear saved position past this percentage
}

// DefaultConfig returns conservative defaults; cmd wiring normally
// overrides these from the config file.
func DefaultConfig() Config {
	return Config{
		PollInterval:      250 * time.Millisecond,
		StartTimeout:      15 * time.Second,
		SettleDelay:       300 * time.Millisecond,
		SeekStep:          10 * time.Second,
		Volume:            50,
		Rate:              1.0,
		ResumeSaveEvery:   15 * time.Second,
		ResumeMinPosition: 30 * time.Second,
		ResumeClearPct:    95,
	}
}

// Collaborators are the optional boundary services the controller notifies.
// Any of them may be nil.
type Collaborators struct {
	History domain.WatchHistory
	Resume  domain.ResumeStore
	Queue   domain.Queue

	// OnStop runs exactly once when the controller stops, after the engine
	// is released. Used to tear down the hotkey dispatcher.
	OnStop func()
}

const (
	volumeStep = 10
	rateStep   = 0.25
	rateMin    = 0.25
	rateMax    = 2.0
	statePoll  = 100 * time.Millisecond
)

// Controller drives one playback session. All transport mutations are
// serialized under one mutex representing the engine and its state;
// callers block for the duration of engine startup and monitor switches.
type Controller struct {
	logger  *slog.Logger
	cfg     Config
	factory engine.Factory
	layout  monitor.Layout
	collab  Collaborators

	running  atomic.Bool
	stopOnce sync.Once

	mu         sync.Mutex
	eng        engine.Engine
	playlist   *domain.Playlist
	nav        *Navigator
	state      SessionState
	index      int
	volume     int
	rate       float64
	fullscreen bool
	monitorN   int

	startedAt   time.Time // when the current video began, zero if none
	trackerStop chan struct{}
	lastSavedMS int64
}

// New constructs a controller and its initial engine instance, bound to
// monitor 1. The playlist is treated as immutable for the session; changes
// to roots or exclusions require assembling a new playlist and constructing
// a new controller.
func New(
	pl *domain.Playlist,
	factory engine.Factory,
	layout monitor.Layout,
	nav *Navigator,
	cfg Config,
	collab Collaborators,
	logger *slog.Logger,
) (*Controller, error) {
	if logger == nil {
		logger = slog.Default()
	}
	eng, err := factory(layout.Get(1))
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	c := &Controller{
		logger:   logger,
		cfg:      cfg,
		factory:  factory,
		layout:   layout,
		collab:   collab,
		eng:      eng,
		playlist: pl,
		nav:      nav,
		state:    StateIdle,
		volume:   cfg.Volume,
		rate:     cfg.Rate,
		monitorN: 1,
	}
	c.running.Store(true)
	return c, nil
}

// Run starts the session at startIndex and polls for end-of-media at the
// configured interval, advancing via the navigation policy. It returns when
// the controller stops or ctx is cancelled. Polling rather than callbacks:
// the engine's state changes are observed, not pushed.
func (c *Controller) Run(ctx context.Context, startIndex int) error {
	if err := c.Play(startIndex); err != nil {
		if errors.Is(err, domain.ErrStopped) {
			return nil
		}
		return err
	}

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for c.running.Load() {
		select {
		case <-ctx.Done():
			c.Stop()
			return ctx.Err()
		case <-ticker.C:
			c.pollOnce()
		}
	}
	return nil
}

// pollOnce checks for end-of-media and advances. A paused session never
// auto-advances: pause is also how a navigation halt parks the transport,
// and some engines keep reporting ended after the media plays out, so
// advancing on the raw engine state here would restart a halted session.
func (c *Controller) pollOnce() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running.Load() || c.state == StateStopped || c.state == StatePaused {
		return
	}
	st, err := c.eng.State()
	if err != nil {
		c.logger.Warn("engine state poll failed", "error", err)
		return
	}
	if st != engine.StateEnded {
		return
	}
	if err := c.advanceLocked(); err != nil && !errors.Is(err, domain.ErrStopped) {
		c.logger.Error("auto-advance failed", "error", err)
	}
}

// Play validates index and starts the video there. Out-of-range indices on
// a live controller are a reported no-op. The call blocks until the engine
// reports a playing state, bounded by the start timeout and by Stop.
func (c *Controller) Play(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playLocked(index)
}

func (c *Controller) playLocked(index int) error {
	if !c.running.Load() {
		return domain.ErrStopped
	}
	if c.playlist.Empty() {
		c.logger.Warn("play requested on empty playlist")
		return domain.ErrEmptyPlaylist
	}
	if index < 0 || index >= c.playlist.Len() {
		c.logger.Warn("play index out of range", "index", index, "len", c.playlist.Len())
		return domain.ErrIndexOutOfRange
	}

	c.finishCurrentLocked()

	video := c.playlist.Video(index)
	c.index = index
	c.state = StateLoading
	c.logger.Info("playing video", "index", index, "path", video,
		"directory", c.playlist.DirectoryOf(index))

	if err := c.eng.Load(video); err != nil {
		c.state = StateIdle
		return fmt.Errorf("failed to load media: %w", err)
	}
	if err := c.waitForPlayingLocked(); err != nil {
		return err
	}

	// The engine does not guarantee volume, rate, or fullscreen survive a
	// media load, so they are reasserted on every one.
	c.applyTransportLocked()

	if c.collab.Resume != nil {
		if pos, ok := c.collab.Resume.Position(video); ok && pos.ShouldResume() {
			if err := c.eng.Seek(time.Duration(pos.Position) * time.Millisecond); err != nil {
				c.logger.Warn("failed to seek to resume position", "error", err)
			} else {
				c.logger.Info("resumed from saved position",
					"path", video, "position_ms", pos.Position)
			}
		}
	}

	c.state = StatePlaying
	c.startedAt = time.Now()
	if c.collab.History != nil {
		c.collab.History.OnVideoStart(video)
	}
	c.startTrackerLocked(video)
	return nil
}

// waitForPlayingLocked sleep-polls until the engine reports playing. The
// wait ends early when the controller stops (ErrStopped) or the start
// timeout expires (ErrStartTimeout) — two distinct failures.
func (c *Controller) waitForPlayingLocked() error {
	deadline := time.Now().Add(c.cfg.StartTimeout)
	for {
		if !c.running.Load() {
			return domain.ErrStopped
		}
		st, err := c.eng.State()
		if err == nil && (st == engine.StatePlaying || st == engine.StatePaused) {
			return nil
		}
		if time.Now().After(deadline) {
			c.state = StateIdle
			return fmt.Errorf("%w (after %s)", domain.ErrStartTimeout, c.cfg.StartTimeout)
		}
		time.Sleep(statePoll)
	}
}

func (c *Controller) applyTransportLocked() {
	if err := c.eng.SetVolume(c.volume); err != nil {
		c.logger.Warn("failed to set volume", "error", err)
	}
	if err := c.eng.SetRate(c.rate); err != nil {
		c.logger.Warn("failed to set rate", "error", err)
	}
	if err := c.eng.SetFullscreen(c.fullscreen); err != nil {
		c.logger.Warn("failed to set fullscreen", "error", err)
	}
}

// finishCurrentLocked closes the books on the video that was playing:
// watch-history entry, and resume position saved or cleared depending on
// how far playback got.
func (c *Controller) finishCurrentLocked() {
	if c.startedAt.IsZero() {
		return
	}
	video := c.playlist.Video(c.index)
	watched := time.Since(c.startedAt).Seconds()
	c.startedAt = time.Time{}
	c.stopTrackerLocked()
	if video == "" {
		return
	}

	posMS, durMS := c.timesLocked()
	if c.collab.History != nil {
		completed := durMS > 0 && watched >= 0.8*float64(durMS)/1000
		c.collab.History.OnVideoEnd(video, watched, completed)
	}
	if c.collab.Resume != nil && durMS > 0 {
		pct := float64(posMS) / float64(durMS) * 100
		if pct >= c.cfg.ResumeClearPct {
			// Finished (or close enough): a stale resume prompt would be
			// more annoying than helpful.
			c.collab.Resume.ClearPosition(video)
		} else if posMS >= c.cfg.ResumeMinPosition.Milliseconds() {
			if err := c.collab.Resume.SavePosition(video, posMS, durMS); err != nil {
				c.logger.Warn("failed to save final position", "error", err)
			}
		}
	}
}

// timesLocked reads position and duration, zero on any engine error.
func (c *Controller) timesLocked() (posMS, durMS int64) {
	if pos, err := c.eng.Position(); err == nil {
		posMS = pos.Milliseconds()
	}
	if dur, err := c.eng.Duration(); err == nil {
		durMS = dur.Milliseconds()
	}
	return posMS, durMS
}

// Next advances to the next video. The queue override, when present and
// non-empty, wins over the navigation policy. A policy halt (loop-off at
// the end, shuffle pass exhausted) pauses the transport instead.
func (c *Controller) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.advanceLocked()
}

func (c *Controller) advanceLocked() error {
	if !c.running.Load() {
		return domain.ErrStopped
	}

	if c.collab.Queue != nil {
		if path, ok := c.collab.Queue.Advance(); ok {
			if i := c.playlist.IndexOf(domain.CanonicalPath(path)); i >= 0 {
				return c.playLocked(i)
			}
			c.logger.Warn("queued video not in playlist, skipping", "path", path)
		}
	}

	next, ok := c.nav.Next(c.index, c.playlist.Len())
	if !ok {
		c.logger.Info("navigation halt, pausing", "mode", c.nav.Mode().String())
		return c.pauseLocked()
	}
	return c.playLocked(next)
}

// Previous retreats to the previous video per the navigation policy.
func (c *Controller) Previous() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running.Load() {
		return domain.ErrStopped
	}
	prev, ok := c.nav.Previous(c.index, c.playlist.Len())
	if !ok {
		return nil
	}
	return c.playLocked(prev)
}

// NextDirectory jumps to the first video of the next directory in the
// merged directory list, wrapping at the end.
func (c *Controller) NextDirectory() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running.Load() {
		return domain.ErrStopped
	}
	idx, ok := NextDirectory(c.playlist, c.index)
	if !ok {
		c.logger.Info("no next directory found")
		return nil
	}
	return c.playLocked(idx)
}

// PreviousDirectory is NextDirectory's mirror image.
func (c *Controller) PreviousDirectory() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running.Load() {
		return domain.ErrStopped
	}
	idx, ok := PreviousDirectory(c.playlist, c.index)
	if !ok {
		c.logger.Info("no previous directory found")
		return nil
	}
	return c.playLocked(idx)
}

// TogglePause flips playing/paused based on the engine's authoritative
// state; the controller does not track the flag redundantly.
func (c *Controller) TogglePause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running.Load() {
		return domain.ErrStopped
	}

	st, err := c.eng.State()
	if err != nil {
		return err
	}
	switch st {
	case engine.StatePlaying:
		return c.pauseLocked()
	case engine.StatePaused:
		if err := c.eng.Play(); err != nil {
			return err
		}
		c.state = StatePlaying
		c.logger.Info("video resumed")
		return nil
	default:
		return nil
	}
}

func (c *Controller) pauseLocked() error {
	if err := c.eng.Pause(); err != nil {
		return err
	}
	c.state = StatePaused
	c.logger.Info("video paused")
	return nil
}

// VolumeUp raises the volume one step.
func (c *Controller) VolumeUp() error { return c.adjustVolume(volumeStep) }

// VolumeDown lowers the volume one step.
func (c *Controller) VolumeDown() error { return c.adjustVolume(-volumeStep) }

func (c *Controller) adjustVolume(delta int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running.Load() {
		return domain.ErrStopped
	}
	v := c.volume + delta
	if v > 100 {
		v = 100
	}
	if v < 0 {
		v = 0
	}
	c.volume = v
	c.logger.Info("volume set", "volume", v)
	return c.eng.SetVolume(v)
}

// SpeedUp raises the playback rate one step.
func (c *Controller) SpeedUp() error { return c.adjustRate(rateStep) }

// SpeedDown lowers the playback rate one step.
func (c *Controller) SpeedDown() error { return c.adjustRate(-rateStep) }

// ResetSpeed returns the playback rate to 1.0.
func (c *Controller) ResetSpeed() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running.Load() {
		return domain.ErrStopped
	}
	c.rate = 1.0
	c.logger.Info("speed reset", "rate", c.rate)
	return c.eng.SetRate(c.rate)
}

func (c *Controller) adjustRate(delta float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running.Load() {
		return domain.ErrStopped
	}
	r := c.rate + delta
	if r > rateMax {
		r = rateMax
	}
	if r < rateMin {
		r = rateMin
	}
	c.rate = r
	c.logger.Info("speed set", "rate", r)
	return c.eng.SetRate(r)
}

// SeekForward jumps forward one seek step, clamped just short of the end so
// the engine does not immediately report ended.
func (c *Controller) SeekForward() error { return c.seekBy(c.cfg.SeekStep) }

// SeekBack jumps backward one seek step, clamped at zero.
func (c *Controller) SeekBack() error { return c.seekBy(-c.cfg.SeekStep) }

func (c *Controller) seekBy(delta time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running.Load() {
		return domain.ErrStopped
	}
	pos, err := c.eng.Position()
	if err != nil {
		return err
	}
	target := pos + delta
	if dur, err := c.eng.Duration(); err == nil && dur > 0 && target > dur-time.Second {
		target = dur - time.Second
	}
	if target < 0 {
		target = 0
	}
	c.logger.Info("seek", "to", target.Seconds())
	return c.eng.Seek(target)
}

// ToggleFullscreen flips the fullscreen flag on the engine and remembers it
// so it survives media loads and monitor switches.
func (c *Controller) ToggleFullscreen() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running.Load() {
		return domain.ErrStopped
	}
	c.fullscreen = !c.fullscreen
	c.logger.Info("fullscreen toggled", "on", c.fullscreen)
	return c.eng.SetFullscreen(c.fullscreen)
}

// SwitchMonitor moves output to monitor n by recreating the engine: the
// backend binds placement only at construction. Current position, media,
// and pause state are captured and restored across the recreate. This is
// the most expensive transport operation and holds the session mutex for
// its whole duration.
func (c *Controller) SwitchMonitor(n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running.Load() {
		return domain.ErrStopped
	}
	if n != 1 && n != 2 {
		return fmt.Errorf("unknown monitor %d", n)
	}

	video := ""
	if !c.startedAt.IsZero() {
		video = c.playlist.Video(c.index)
	}
	var pos time.Duration
	wasPlaying := false
	if video != "" {
		pos, _ = c.eng.Position()
		if st, err := c.eng.State(); err == nil {
			wasPlaying = st == engine.StatePlaying
		}
	}

	c.logger.Info("switching monitor", "monitor", n, "position", pos.Seconds())
	if err := c.eng.Close(); err != nil {
		c.logger.Warn("engine close during monitor switch", "error", err)
	}

	eng, err := c.factory(c.layout.Get(n))
	if err != nil {
		return fmt.Errorf("failed to recreate engine on monitor %d: %w", n, err)
	}
	c.eng = eng
	c.monitorN = n

	if video != "" {
		if err := c.eng.Load(video); err != nil {
			return fmt.Errorf("failed to reattach media: %w", err)
		}
		if err := c.waitForPlayingLocked(); err != nil {
			return err
		}
		c.applyTransportLocked()
		if err := c.eng.Seek(pos); err != nil {
			c.logger.Warn("failed to restore position", "error", err)
		}
		if !wasPlaying {
			if err := c.eng.Pause(); err != nil {
				c.logger.Warn("failed to restore pause state", "error", err)
			}
			c.state = StatePaused
		} else {
			c.state = StatePlaying
		}
	}

	// The backend needs a moment after recreation before it reliably
	// accepts further transport commands.
	time.Sleep(c.cfg.SettleDelay)
	c.logger.Info("switched monitor", "monitor", n)
	return nil
}

// Stop ends the session: it flips the running flag first so any in-flight
// waits unblock, then takes the session mutex and releases the engine.
// Idempotent and safe to call from any goroutine at any time.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() {
		c.running.Store(false)

		c.mu.Lock()
		c.finishCurrentLocked()
		c.state = StateStopped
		if err := c.eng.Close(); err != nil {
			c.logger.Warn("engine close on stop", "error", err)
		}
		c.mu.Unlock()

		if c.collab.OnStop != nil {
			c.collab.OnStop()
		}
		c.logger.Info("playback controller stopped")
	})
}

// Status is a snapshot of the session for display.
type Status struct {
	State      SessionState
	Index      int
	Video      string
	Directory  string
	Volume     int
	Rate       float64
	Fullscreen bool
	Monitor    int
}

// Status returns a consistent snapshot of the transport state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		State:      c.state,
		Index:      c.index,
		Video:      c.playlist.Video(c.index),
		Directory:  c.playlist.DirectoryOf(c.index),
		Volume:     c.volume,
		Rate:       c.rate,
		Fullscreen: c.fullscreen,
		Monitor:    c.monitorN,
	}
}

// startTrackerLocked begins periodic resume-position saving for video,
// replacing any tracker for the previous video. Positions are only saved
// once playback is past the minimum offset and has moved meaningfully
// since the last save.
func (c *Controller) startTrackerLocked(video string) {
	if c.collab.Resume == nil || c.cfg.ResumeSaveEvery <= 0 {
		return
	}
	c.stopTrackerLocked()
	stop := make(chan struct{})
	c.trackerStop = stop
	c.lastSavedMS = 0

	go func() {
		ticker := time.NewTicker(c.cfg.ResumeSaveEvery)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if !c.running.Load() {
					return
				}
				c.savePositionTick(video, stop)
			}
		}
	}()
}

func (c *Controller) savePositionTick(video string, stop chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// The session may have moved on while this tick waited for the mutex.
	if c.trackerStop != stop || !c.running.Load() {
		return
	}
	st, err := c.eng.State()
	if err != nil || st != engine.StatePlaying {
		return
	}
	posMS, durMS := c.timesLocked()
	if durMS <= 0 || posMS < c.cfg.ResumeMinPosition.Milliseconds() {
		return
	}
	moved := posMS - c.lastSavedMS
	if moved < 0 {
		moved = -moved
	}
	if moved <= 10_000 {
		return
	}
	if err := c.collab.Resume.SavePosition(video, posMS, durMS); err != nil {
		c.logger.Warn("failed to save resume position", "error", err)
		return
	}
	c.lastSavedMS = posMS
}

func (c *Controller) stopTrackerLocked() {
	if c.trackerStop != nil {
		close(c.trackerStop)
		c.trackerStop = nil
	}
}
