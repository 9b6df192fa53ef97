// Package mpv drives an mpv subprocess over its JSON IPC socket.
//
// mpv binds window placement at startup (--geometry), so each Engine owns
// one mpv process for the lifetime of one placement. Moving output to
// another display means closing this engine and constructing a new one.
package mpv

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/awells/rove/internal/domain"
	"github.com/awells/rove/internal/engine"
)

const (
	dialTimeout  = 5 * time.Second
	dialInterval = 100 * time.Millisecond
	quitGrace    = 2 * time.Second
)

var socketSeq atomic.Int64

// Engine is one mpv process plus its IPC connection.
type Engine struct {
	logger *slog.Logger
	cmd    *exec.Cmd
	socket string

	mu     sync.Mutex // serializes IPC round trips
	conn   net.Conn
	reader *bufio.Reader
	reqID  int64
	loaded bool
	closed bool
}

// Options configures engine construction.
type Options struct {
	Command   string   // mpv binary, default "mpv"
	Args      []string // extra command-line arguments
	SocketDir string   // IPC socket directory, default os.TempDir()
}

// Factory returns an engine.Factory that starts mpv placed on the given
// monitor.
func Factory(opts Options, logger *slog.Logger) engine.Factory {
	return func(mon domain.MonitorDescriptor) (engine.Engine, error) {
		return New(opts, mon, logger)
	}
}

// New starts an mpv process with its output bound to mon and connects to
// its IPC socket.
func New(opts Options, mon domain.MonitorDescriptor, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	command := opts.Command
	if command == "" {
		command = "mpv"
	}
	dir := opts.SocketDir
	if dir == "" {
		dir = os.TempDir()
	}
	socket := filepath.Join(dir, fmt.Sprintf("rove-mpv-%d-%d.sock", os.Getpid(), socketSeq.Add(1)))

	// keep-open holds the file loaded at EOF so time-pos and duration stay
	// queryable for the final bookkeeping; end-of-media is observed via
	// eof-reached instead of the core going idle.
	args := []string{
		"--idle=yes",
		"--force-window=yes",
		"--no-terminal",
		"--keep-open=yes",
		"--input-ipc-server=" + socket,
		fmt.Sprintf("--geometry=+%d+%d", mon.X, mon.Y),
	}
	args = append(args, opts.Args...)

	cmd := exec.Command(command, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", command, err)
	}

	conn, err := dialWithRetry(socket)
	if err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		return nil, fmt.Errorf("failed to connect to mpv ipc socket: %w", err)
	}

	logger.Info("mpv engine started", "pid", cmd.Process.Pid,
		"socket", socket, "x", mon.X, "y", mon.Y)

	return &Engine{
		logger: logger,
		cmd:    cmd,
		socket: socket,
		conn:   conn,
		reader: bufio.NewReader(conn),
	}, nil
}

// dialWithRetry polls the socket until mpv creates it.
func dialWithRetry(socket string) (net.Conn, error) {
	deadline := time.Now().Add(dialTimeout)
	for {
		conn, err := net.Dial("unix", socket)
		if err == nil {
			return conn, nil
		}
		if time.Now().After(deadline) {
			return nil, err
		}
		time.Sleep(dialInterval)
	}
}

// request is one IPC command frame.
type request struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

// response is one IPC reply or event frame.
type response struct {
	Error     string          `json:"error"`
	Data      json.RawMessage `json:"data"`
	RequestID int64           `json:"request_id"`
	Event     string          `json:"event"`
}

// roundTrip sends one command and waits for its matching reply, skipping
// interleaved event frames. Calls are serialized by e.mu; the controller
// additionally serializes at its own level.
func (e *Engine) roundTrip(cmd ...any) (json.RawMessage, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, errors.New("mpv engine is closed")
	}

	e.reqID++
	req := request{Command: cmd, RequestID: e.reqID}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	payload = append(payload, '\n')

	if err := e.conn.SetDeadline(time.Now().Add(dialTimeout)); err != nil {
		return nil, err
	}
	if _, err := e.conn.Write(payload); err != nil {
		return nil, fmt.Errorf("mpv ipc write: %w", err)
	}

	for {
		line, err := e.reader.ReadBytes('\n')
		if err != nil {
			return nil, fmt.Errorf("mpv ipc read: %w", err)
		}
		var resp response
		if err := json.Unmarshal(line, &resp); err != nil {
			e.logger.Warn("unparseable mpv ipc frame", "error", err)
			continue
		}
		if resp.Event != "" || resp.RequestID != e.reqID {
			continue // async event or stale reply
		}
		if resp.Error != "success" {
			return nil, fmt.Errorf("mpv: %s", resp.Error)
		}
		return resp.Data, nil
	}
}

func (e *Engine) setProperty(name string, value any) error {
	_, err := e.roundTrip("set_property", name, value)
	return err
}

func (e *Engine) getBool(name string) (bool, error) {
	data, err := e.roundTrip("get_property", name)
	if err != nil {
		return false, err
	}
	var v bool
	return v, json.Unmarshal(data, &v)
}

func (e *Engine) getFloat(name string) (float64, error) {
	data, err := e.roundTrip("get_property", name)
	if err != nil {
		return 0, err
	}
	var v float64
	return v, json.Unmarshal(data, &v)
}

// Load replaces the current media and starts playing it.
func (e *Engine) Load(path string) error {
	if _, err := e.roundTrip("loadfile", path, "replace"); err != nil {
		return err
	}
	if err := e.setProperty("pause", false); err != nil {
		return err
	}
	e.mu.Lock()
	e.loaded = true
	e.mu.Unlock()
	return nil
}

// Play resumes playback.
func (e *Engine) Play() error { return e.setProperty("pause", false) }

// Pause pauses playback.
func (e *Engine) Pause() error { return e.setProperty("pause", true) }

// Stop halts playback and unloads the media; mpv stays idle.
func (e *Engine) Stop() error {
	e.mu.Lock()
	e.loaded = false
	e.mu.Unlock()
	_, err := e.roundTrip("stop")
	return err
}

// Seek jumps to an absolute position.
func (e *Engine) Seek(pos time.Duration) error {
	_, err := e.roundTrip("seek", pos.Seconds(), "absolute")
	return err
}

// SetRate sets the playback speed.
func (e *Engine) SetRate(rate float64) error { return e.setProperty("speed", rate) }

// SetVolume sets the volume in [0,100].
func (e *Engine) SetVolume(volume int) error { return e.setProperty("volume", volume) }

// SetFullscreen toggles fullscreen output.
func (e *Engine) SetFullscreen(on bool) error { return e.setProperty("fullscreen", on) }

// State maps mpv's property surface onto the engine state machine. With
// --keep-open=yes the file stays loaded at EOF and eof-reached flips true;
// idle-active only goes true when nothing is loaded. The loaded check
// covers engines launched with user args overriding keep-open, where the
// core does go idle after the media plays out.
func (e *Engine) State() (engine.State, error) {
	idle, err := e.getBool("idle-active")
	if err != nil {
		return engine.StateError, err
	}
	e.mu.Lock()
	loaded := e.loaded
	e.mu.Unlock()
	if idle {
		if loaded {
			return engine.StateEnded, nil
		}
		return engine.StateIdle, nil
	}

	// eof-reached is unavailable while no file is loaded; that reads as
	// not-ended rather than an error.
	eof, err := e.getBool("eof-reached")
	if err != nil && !isUnavailable(err) {
		return engine.StateError, err
	}
	if err == nil && eof {
		return engine.StateEnded, nil
	}

	paused, err := e.getBool("pause")
	if err != nil {
		return engine.StateError, err
	}
	if paused {
		return engine.StatePaused, nil
	}

	// core-idle true while unpaused means mpv is still spinning up or
	// buffering the file.
	coreIdle, err := e.getBool("core-idle")
	if err != nil {
		return engine.StateError, err
	}
	if coreIdle {
		return engine.StateLoading, nil
	}
	return engine.StatePlaying, nil
}

// Position returns the current playback position, zero when no media is
// loaded.
func (e *Engine) Position() (time.Duration, error) {
	v, err := e.getFloat("time-pos")
	if err != nil {
		if isUnavailable(err) {
			return 0, nil
		}
		return 0, err
	}
	return time.Duration(v * float64(time.Second)), nil
}

// Duration returns the length of the loaded media, zero when unknown.
func (e *Engine) Duration() (time.Duration, error) {
	v, err := e.getFloat("duration")
	if err != nil {
		if isUnavailable(err) {
			return 0, nil
		}
		return 0, err
	}
	return time.Duration(v * float64(time.Second)), nil
}

// isUnavailable matches mpv's "property unavailable" error, returned for
// time properties while no media is loaded.
func isUnavailable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "property unavailable")
}

// Close asks mpv to quit, then reaps the process. The engine is unusable
// afterwards.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	conn := e.conn
	e.mu.Unlock()

	// Best effort: polite quit over IPC, then the hammer.
	fmt.Fprintf(conn, "{\"command\":[\"quit\"]}\n")
	conn.Close()

	done := make(chan error, 1)
	go func() { done <- e.cmd.Wait() }()
	select {
	case <-done:
	case <-time.After(quitGrace):
		e.cmd.Process.Kill()
		<-done
	}

	os.Remove(e.socket)
	e.logger.Info("mpv engine closed", "socket", e.socket)
	return nil
}
