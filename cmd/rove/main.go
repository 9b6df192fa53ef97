package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/awells/rove/internal/actions"
	"github.com/awells/rove/internal/config"
	"github.com/awells/rove/internal/domain"
	"github.com/awells/rove/internal/engine/mpv"
	"github.com/awells/rove/internal/exclude"
	"github.com/awells/rove/internal/keys"
	"github.com/awells/rove/internal/log"
	"github.com/awells/rove/internal/monitor"
	"github.com/awells/rove/internal/playback"
	"github.com/awells/rove/internal/playlist"
	"github.com/awells/rove/internal/queue"
	"github.com/awells/rove/internal/scanner"
	"github.com/awells/rove/internal/search"
	"github.com/awells/rove/internal/store"
)

// Version is set at build time via -ldflags
var Version = "dev"

type options struct {
	excludes   multiFlag
	queued     multiFlag
	loop       string
	jump       string
	monitorN   int
	volume     int
	rate       float64
	noResume   bool
	fullscreen bool
}

// multiFlag collects a repeatable string flag.
type multiFlag []string

func (m *multiFlag) String() string     { return strings.Join(*m, ",") }
func (m *multiFlag) Set(s string) error { *m = append(*m, s); return nil }

func main() {
	var showVersion bool
	var opts options

	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.Var(&opts.excludes, "exclude", "directory or file to exclude (repeatable)")
	flag.Var(&opts.queued, "queue", "video to play next, before the navigation policy (repeatable)")
	flag.StringVar(&opts.loop, "loop", "", "loop mode: sequential, loop-off, shuffle")
	flag.StringVar(&opts.jump, "jump", "", "start at the video best matching this name")
	flag.IntVar(&opts.monitorN, "monitor", 1, "monitor to play on (1 or 2)")
	flag.IntVar(&opts.volume, "volume", -1, "initial volume 0-100 (overrides config)")
	flag.Float64Var(&opts.rate, "rate", 0, "initial playback rate (overrides config)")
	flag.BoolVar(&opts.noResume, "no-resume", false, "ignore saved playback positions")
	flag.BoolVar(&opts.fullscreen, "fullscreen", false, "start in fullscreen")
	flag.Usage = usage
	flag.Parse()

	if showVersion {
		fmt.Printf("rove %s\n", Version)
		return
	}
	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	if err := run(flag.Args(), opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: rove [flags] <directory> [directory...]\n\nFlags:\n")
	flag.PrintDefaults()
}

func run(rootArgs []string, opts options) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyOverrides(cfg, opts)

	logger, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting rove", "version", Version, "roots", rootArgs)

	roots := make([]string, 0, len(rootArgs))
	for _, r := range rootArgs {
		root := domain.CanonicalPath(r)
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			return fmt.Errorf("not a directory: %s", r)
		}
		roots = append(roots, root)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Scan all roots concurrently; the pool bounds parallelism.
	pool := scanner.NewPool(cfg.Scanner.Workers, logger)
	if err := scanRoots(ctx, pool, roots); err != nil {
		return err
	}

	excl := exclude.NewEngine(logger)
	if err := applyExcludes(excl, roots, opts.excludes); err != nil {
		return err
	}

	pl := playlist.Assemble(roots, pool, excl, logger)
	if pl.Empty() {
		return errors.New("no playable videos found")
	}
	logger.Info("playlist assembled", "videos", pl.Len())

	layout := monitor.Resolve(logger)

	st, err := store.Open(config.DefaultDataPath())
	if err != nil {
		logger.Warn("failed to open data store, resume and history disabled", "error", err)
		st = nil
	} else {
		defer st.Close()
	}

	q := queue.New()
	for _, path := range opts.queued {
		q.Add(domain.CanonicalPath(path))
	}

	dispatcher := actions.NewDispatcher(logger)
	collab := playback.Collaborators{
		Queue:  q,
		OnStop: func() { dispatcher.Disable(); cancel() },
	}
	if st != nil {
		collab.History = store.NewRecorder(st, logger)
		if cfg.Resume.Enabled {
			collab.Resume = st
		}
	}

	factory := mpv.Factory(mpv.Options{
		Command:   cfg.Engine.Command,
		Args:      cfg.Engine.Args,
		SocketDir: cfg.Engine.SocketDir,
	}, logger)

	nav := playback.NewNavigator(domain.ParseLoopMode(cfg.Playback.LoopMode), time.Now().UnixNano())

	ctrl, err := playback.New(&pl, factory, layout, nav, controllerConfig(cfg), collab, logger)
	if err != nil {
		return err
	}
	defer ctrl.Stop()

	if opts.monitorN == 2 {
		if err := ctrl.SwitchMonitor(2); err != nil {
			logger.Warn("failed to start on monitor 2", "error", err)
		}
	}
	if opts.fullscreen {
		if err := ctrl.ToggleFullscreen(); err != nil {
			logger.Warn("failed to enter fullscreen", "error", err)
		}
	}

	startIndex := 0
	if opts.jump != "" {
		idx := search.NewIndex(&pl, logger)
		i, ok := idx.Best(opts.jump)
		if !ok {
			return fmt.Errorf("no video matches %q", opts.jump)
		}
		startIndex = i
	}

	dispatcher.Enable(actionTable(ctrl, logger))
	defer dispatcher.Disable()

	printHelp()

	listener := keys.NewListener(dispatcher, logger)
	restoreTerm, err := listener.Start(ctx)
	if err != nil {
		return fmt.Errorf("failed to start hotkey listener: %w", err)
	}
	defer restoreTerm()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		watchStatus(ctx, ctrl)
	}()

	err = ctrl.Run(ctx, startIndex)
	cancel()
	wg.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("playback ended with error", "error", err)
		return err
	}
	logger.Info("shutting down")
	return nil
}

// applyOverrides folds command-line flags into the loaded config.
func applyOverrides(cfg *config.Config, opts options) {
	if opts.loop != "" {
		cfg.Playback.LoopMode = opts.loop
	}
	if opts.volume >= 0 {
		cfg.Playback.Volume = opts.volume
	}
	if opts.rate > 0 {
		cfg.Playback.Rate = opts.rate
	}
	if opts.noResume {
		cfg.Resume.Enabled = false
	}
}

func controllerConfig(cfg *config.Config) playback.Config {
	return playback.Config{
		PollInterval:      time.Duration(cfg.Playback.PollMS) * time.Millisecond,
		StartTimeout:      time.Duration(cfg.Playback.StartTimeoutS) * time.Second,
		SettleDelay:       time.Duration(cfg.Playback.SettleMS) * time.Millisecond,
		SeekStep:          time.Duration(cfg.Playback.SeekStepS) * time.Second,
		Volume:            cfg.Playback.Volume,
		Rate:              cfg.Playback.Rate,
		ResumeSaveEvery:   time.Duration(cfg.Resume.SaveEveryS) * time.Second,
		ResumeMinPosition: time.Duration(cfg.Resume.MinPositionS) * time.Second,
		ResumeClearPct:    float64(cfg.Resume.ClearPct),
	}
}

// scanRoots runs every root through the pool and waits for all of them.
func scanRoots(ctx context.Context, pool *scanner.Pool, roots []string) error {
	var wg sync.WaitGroup
	errs := make([]error, len(roots))
	for i, root := range roots {
		wg.Add(1)
		go func(i int, root string) {
			defer wg.Done()
			if _, err := pool.Scan(ctx, root); err != nil {
				errs[i] = fmt.Errorf("failed to scan %s: %w", root, err)
			}
		}(i, root)
	}
	wg.Wait()
	return errors.Join(errs...)
}

// applyExcludes maps each excluded path to the root that contains it.
// A path equal to a root excludes the whole root.
func applyExcludes(excl *exclude.Engine, roots []string, paths []string) error {
	for _, p := range paths {
		path := domain.CanonicalPath(p)
		owner := ""
		for _, root := range roots {
			if domain.IsUnder(path, root) {
				owner = root
				break
			}
		}
		if owner == "" {
			return fmt.Errorf("excluded path %s is not under any root", p)
		}
		if path == owner {
			excl.ExcludeAll(owner)
		} else {
			excl.Exclude(owner, []string{path})
		}
	}
	return nil
}

// actionTable binds the hotkey action names to controller methods. Errors
// are logged, not surfaced: a failed hotkey should never end the session.
func actionTable(ctrl *playback.Controller, logger *slog.Logger) actions.Table {
	wrap := func(name string, fn func() error) func() {
		return func() {
			if err := fn(); err != nil && !errors.Is(err, domain.ErrStopped) {
				logger.Warn("action failed", "action", name, "error", err)
			}
		}
	}
	return actions.Table{
		actions.NextVideo:        wrap(actions.NextVideo, ctrl.Next),
		actions.PrevVideo:        wrap(actions.PrevVideo, ctrl.Previous),
		actions.NextDirectory:    wrap(actions.NextDirectory, ctrl.NextDirectory),
		actions.PrevDirectory:    wrap(actions.PrevDirectory, ctrl.PreviousDirectory),
		actions.TogglePause:      wrap(actions.TogglePause, ctrl.TogglePause),
		actions.VolumeUp:         wrap(actions.VolumeUp, ctrl.VolumeUp),
		actions.VolumeDown:       wrap(actions.VolumeDown, ctrl.VolumeDown),
		actions.SeekForward:      wrap(actions.SeekForward, ctrl.SeekForward),
		actions.SeekBack:         wrap(actions.SeekBack, ctrl.SeekBack),
		actions.ToggleFullscreen: wrap(actions.ToggleFullscreen, ctrl.ToggleFullscreen),
		actions.SpeedUp:          wrap(actions.SpeedUp, ctrl.SpeedUp),
		actions.SpeedDown:        wrap(actions.SpeedDown, ctrl.SpeedDown),
		actions.SpeedReset:       wrap(actions.SpeedReset, ctrl.ResetSpeed),
		actions.Monitor1:         wrap(actions.Monitor1, func() error { return ctrl.SwitchMonitor(1) }),
		actions.Monitor2:         wrap(actions.Monitor2, func() error { return ctrl.SwitchMonitor(2) }),
		actions.Stop:             ctrl.Stop,
	}
}

// watchStatus reprints the status line whenever the transport state or
// current video changes.
func watchStatus(ctx context.Context, ctrl *playback.Controller) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	var last playback.Status
	for {
		select {
		case <-ctx.Done():
			fmt.Print("\r\n")
			return
		case <-ticker.C:
			s := ctrl.Status()
			if s == last || s.State == playback.StateIdle {
				continue
			}
			last = s
			// Raw terminal mode: \r\n, and clear the previous line.
			fmt.Printf("\r\x1b[2K%s\r\n", renderStatus(s))
		}
	}
}
