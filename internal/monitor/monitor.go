// Package monitor resolves physical display geometry for engine output
// placement.
package monitor

import (
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/awells/rove/internal/domain"
)

// fallback is used when no display can be resolved; playback degrades to a
// small window at the origin rather than failing.
var fallback = domain.MonitorDescriptor{X: 0, Y: 0, Width: 800, Height: 600}

// Layout is the resolved display arrangement. Monitor 1 is the environment's
// first-reported display; monitor 2 falls back to monitor 1's geometry on
// single-display systems.
type Layout struct {
	Monitor1 domain.MonitorDescriptor
	Monitor2 domain.MonitorDescriptor
}

// Get returns the descriptor for monitor n (1 or 2). Anything else maps to
// monitor 1.
func (l Layout) Get(n int) domain.MonitorDescriptor {
	if n == 2 {
		return l.Monitor2
	}
	return l.Monitor1
}

// Resolve queries the environment for active displays. Resolution failure
// is not fatal: the fallback geometry is returned and logged.
func Resolve(logger *slog.Logger) Layout {
	if logger == nil {
		logger = slog.Default()
	}

	monitors, err := listMonitors()
	if err != nil || len(monitors) == 0 {
		logger.Warn("could not resolve displays, using fallback geometry", "error", err)
		return Layout{Monitor1: fallback, Monitor2: fallback}
	}

	layout := Layout{Monitor1: monitors[0], Monitor2: monitors[0]}
	if len(monitors) >= 2 {
		layout.Monitor2 = monitors[1]
	}
	logger.Info("displays resolved", "count", len(monitors),
		"monitor1", layout.Monitor1, "monitor2", layout.Monitor2)
	return layout
}

// listMonitors shells out to xrandr, the one broadly available source of
// display geometry on the targeted environment.
func listMonitors() ([]domain.MonitorDescriptor, error) {
	out, err := exec.Command("xrandr", "--listactivemonitors").Output()
	if err != nil {
		return nil, err
	}
	return parseXrandr(string(out))
}

// parseXrandr extracts geometry from `xrandr --listactivemonitors` output.
// Lines look like:
//
//	 0: +*eDP-1 1920/344x1080/194+0+0  eDP-1
//	 1: +HDMI-1 2560/600x1440/340+1920+0  HDMI-1
//
// The geometry field is WIDTH/MM-WIDTHxHEIGHT/MM-HEIGHT+X+Y.
func parseXrandr(out string) ([]domain.MonitorDescriptor, error) {
	var monitors []domain.MonitorDescriptor
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 || !strings.HasSuffix(fields[0], ":") {
			continue
		}
		mon, err := parseGeometry(fields[2])
		if err != nil {
			continue
		}
		monitors = append(monitors, mon)
	}
	if len(monitors) == 0 {
		return nil, fmt.Errorf("no monitor lines in xrandr output")
	}
	return monitors, nil
}

func parseGeometry(s string) (domain.MonitorDescriptor, error) {
	var w, wmm, h, hmm, x, y int
	if _, err := fmt.Sscanf(s, "%d/%dx%d/%d+%d+%d", &w, &wmm, &h, &hmm, &x, &y); err != nil {
		return domain.MonitorDescriptor{}, err
	}
	return domain.MonitorDescriptor{X: x, Y: y, Width: w, Height: h}, nil
}
