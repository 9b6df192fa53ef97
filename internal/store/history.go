package store

import (
	"log/slog"
	"time"

	"github.com/awells/rove/internal/domain"
	"github.com/google/uuid"
)

// Recorder adapts the Store to the controller's watch-history sink.
// Notifications are fire-and-forget: persistence failures are logged and
// swallowed, never surfaced to playback.
type Recorder struct {
	store  *Store
	logger *slog.Logger
}

// NewRecorder creates a watch-history recorder backed by store.
func NewRecorder(store *Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: store, logger: logger}
}

// OnVideoStart logs that playback of a video began.
func (r *Recorder) OnVideoStart(path string) {
	r.logger.Info("video started", "path", path)
}

// OnVideoEnd records how long the previous video was watched.
func (r *Recorder) OnVideoEnd(path string, watchedSeconds float64, completed bool) {
	entry := domain.WatchEntry{
		ID:        uuid.NewString(),
		Path:      domain.CanonicalPath(path),
		StartedAt: time.Now().Add(-time.Duration(watchedSeconds * float64(time.Second))),
		Watched:   watchedSeconds,
		Completed: completed,
	}
	if err := r.store.AppendWatch(entry); err != nil {
		r.logger.Warn("failed to record watch entry", "path", path, "error", err)
	}
}
