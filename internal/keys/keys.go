// Package keys reads single keystrokes from a raw-mode terminal and maps
// them to named playback actions.
package keys

import (
	"context"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/awells/rove/internal/actions"
)

// DefaultBindings maps keystroke bytes to action names.
var DefaultBindings = map[byte]string{
	'n':  actions.NextVideo,
	'p':  actions.PrevVideo,
	']':  actions.NextDirectory,
	'[':  actions.PrevDirectory,
	' ':  actions.TogglePause,
	'+':  actions.VolumeUp,
	'=':  actions.VolumeUp,
	'-':  actions.VolumeDown,
	'f':  actions.SeekForward,
	'b':  actions.SeekBack,
	'F':  actions.ToggleFullscreen,
	'>':  actions.SpeedUp,
	'<':  actions.SpeedDown,
	'/':  actions.SpeedReset,
	'1':  actions.Monitor1,
	'2':  actions.Monitor2,
	'q':  actions.Stop,
	0x03: actions.Stop, // ctrl-c
	0x1b: actions.Stop, // esc
}

// Listener owns the terminal while running: it puts stdin into raw mode,
// reads one byte at a time, and dispatches bound actions.
type Listener struct {
	dispatcher *actions.Dispatcher
	bindings   map[byte]string
	logger     *slog.Logger
}

// NewListener creates a listener over dispatcher with the default bindings.
func NewListener(dispatcher *actions.Dispatcher, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{
		dispatcher: dispatcher,
		bindings:   DefaultBindings,
		logger:     logger,
	}
}

// Start puts the terminal into raw mode and begins reading keystrokes on a
// background goroutine. It returns a restore func the caller must run on
// shutdown; the read goroutine itself may stay blocked in Read until the
// process exits, so terminal restoration cannot live inside it. When stdin
// is not a terminal (piped input, no TTY), hotkeys are disabled and the
// restore func is a no-op.
func (l *Listener) Start(ctx context.Context) (restore func(), err error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		l.logger.Info("stdin is not a terminal, hotkeys disabled")
		return func() {}, nil
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}

	go l.readLoop(ctx)
	l.logger.Info("hotkey listener started")

	return func() { term.Restore(fd, oldState) }, nil
}

func (l *Listener) readLoop(ctx context.Context) {
	buf := make([]byte, 1)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := os.Stdin.Read(buf)
		if err != nil {
			l.logger.Warn("stdin read failed, hotkeys stopped", "error", err)
			return
		}
		if n == 0 {
			continue
		}
		name, ok := l.bindings[buf[0]]
		if !ok {
			continue
		}
		l.dispatcher.Dispatch(name)
		if name == actions.Stop {
			return
		}
	}
}
