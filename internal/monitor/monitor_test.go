package monitor

import (
	"reflect"
	"testing"

	"github.com/awells/rove/internal/domain"
)

const dualOutput = `Monitors: 2
 0: +*eDP-1 1920/344x1080/194+0+0  eDP-1
 1: +HDMI-1 2560/600x1440/340+1920+0  HDMI-1
`

func TestParseXrandr_Dual(t *testing.T) {
	monitors, err := parseXrandr(dualOutput)
	if err != nil {
		t.Fatal(err)
	}
	want := []domain.MonitorDescriptor{
		{X: 0, Y: 0, Width: 1920, Height: 1080},
		{X: 1920, Y: 0, Width: 2560, Height: 1440},
	}
	if !reflect.DeepEqual(monitors, want) {
		t.Fatalf("monitors = %v, want %v", monitors, want)
	}
}

func TestParseXrandr_Single(t *testing.T) {
	out := "Monitors: 1\n 0: +*DP-1 3840/600x2160/340+0+0  DP-1\n"
	monitors, err := parseXrandr(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(monitors) != 1 || monitors[0].Width != 3840 || monitors[0].Height != 2160 {
		t.Fatalf("monitors = %v", monitors)
	}
}

func TestParseXrandr_StackedVertically(t *testing.T) {
	out := `Monitors: 2
 0: +*HDMI-1 1920/520x1080/290+0+0  HDMI-1
 1: +HDMI-2 1920/520x1080/290+0+1080  HDMI-2
`
	monitors, err := parseXrandr(out)
	if err != nil {
		t.Fatal(err)
	}
	if monitors[1].X != 0 || monitors[1].Y != 1080 {
		t.Fatalf("second monitor offset = (%d,%d), want (0,1080)", monitors[1].X, monitors[1].Y)
	}
}

func TestParseXrandr_NoMonitors(t *testing.T) {
	if _, err := parseXrandr("Monitors: 0\n"); err == nil {
		t.Fatal("want error for empty monitor list")
	}
	if _, err := parseXrandr("garbage output\n"); err == nil {
		t.Fatal("want error for unparseable output")
	}
}

func TestParseGeometry_Malformed(t *testing.T) {
	for _, s := range []string{"", "1920x1080", "axbxcxd", "1920/344x1080/194"} {
		if _, err := parseGeometry(s); err == nil {
			t.Fatalf("parseGeometry(%q) should fail", s)
		}
	}
}

func TestLayout_Get(t *testing.T) {
	l := Layout{
		Monitor1: domain.MonitorDescriptor{Width: 1920, Height: 1080},
		Monitor2: domain.MonitorDescriptor{X: 1920, Width: 1280, Height: 720},
	}
	if l.Get(1) != l.Monitor1 {
		t.Fatal("Get(1) should return monitor 1")
	}
	if l.Get(2) != l.Monitor2 {
		t.Fatal("Get(2) should return monitor 2")
	}
	// Anything else degrades to monitor 1.
	if l.Get(0) != l.Monitor1 || l.Get(7) != l.Monitor1 {
		t.Fatal("unknown monitor numbers should map to monitor 1")
	}
}
