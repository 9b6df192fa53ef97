package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/awells/rove/internal/domain"
	"github.com/awells/rove/internal/log"
)

func TestStore_PositionRoundTrip(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if _, ok := s.Position("/v/a.mp4"); ok {
		t.Fatal("fresh store should have no position")
	}

	if err := s.SavePosition("/v/a.mp4", 60_000, 300_000); err != nil {
		t.Fatal(err)
	}
	pos, ok := s.Position("/v/a.mp4")
	if !ok {
		t.Fatal("saved position not found")
	}
	if pos.Position != 60_000 || pos.Duration != 300_000 {
		t.Fatalf("position = %+v", pos)
	}
	if pos.UpdatedAt.IsZero() {
		t.Fatal("UpdatedAt should be set")
	}

	// Overwrite updates in place.
	if err := s.SavePosition("/v/a.mp4", 90_000, 300_000); err != nil {
		t.Fatal(err)
	}
	pos, _ = s.Position("/v/a.mp4")
	if pos.Position != 90_000 {
		t.Fatalf("position after overwrite = %d", pos.Position)
	}

	s.ClearPosition("/v/a.mp4")
	if _, ok := s.Position("/v/a.mp4"); ok {
		t.Fatal("cleared position should be gone")
	}
}

func TestStore_PositionSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SavePosition("/v/a.mp4", 42_000, 100_000); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	pos, ok := s.Position("/v/a.mp4")
	if !ok || pos.Position != 42_000 {
		t.Fatalf("position after reopen = %+v,%v", pos, ok)
	}
}

func TestStore_MemoryOnlyMode(t *testing.T) {
	s, err := Open("")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.SavePosition("/v/a.mp4", 10_000, 50_000); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Position("/v/a.mp4"); !ok {
		t.Fatal("memory-only store should serve saved positions")
	}
	s.ClearPosition("/v/a.mp4")
	if _, ok := s.Position("/v/a.mp4"); ok {
		t.Fatal("memory-only store should clear positions")
	}
}

func TestStore_HistoryNewestFirst(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		entry := domain.WatchEntry{
			ID:        fmt.Sprintf("id-%d", i),
			Path:      fmt.Sprintf("/v/%d.mp4", i),
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			Watched:   float64(i * 60),
		}
		if err := s.AppendWatch(entry); err != nil {
			t.Fatal(err)
		}
	}

	entries := s.History(0)
	if len(entries) != 5 {
		t.Fatalf("history = %d entries, want 5", len(entries))
	}
	for i := 0; i < 5; i++ {
		want := fmt.Sprintf("/v/%d.mp4", 4-i)
		if entries[i].Path != want {
			t.Fatalf("entry %d = %s, want %s (newest first)", i, entries[i].Path, want)
		}
	}

	limited := s.History(2)
	if len(limited) != 2 || limited[0].Path != "/v/4.mp4" {
		t.Fatalf("limited history = %v", limited)
	}
}

func TestStore_HistoryMemoryOnly(t *testing.T) {
	s, err := Open("")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	base := time.Now()
	for i := 0; i < 3; i++ {
		entry := domain.WatchEntry{
			ID:        fmt.Sprintf("id-%d", i),
			Path:      fmt.Sprintf("/v/%d.mp4", i),
			StartedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := s.AppendWatch(entry); err != nil {
			t.Fatal(err)
		}
	}
	entries := s.History(0)
	if len(entries) != 3 || entries[0].Path != "/v/2.mp4" {
		t.Fatalf("memory history = %v", entries)
	}
}

func TestRecorder_CompletedEntry(t *testing.T) {
	s, err := Open("")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	r := NewRecorder(s, log.NullLogger())
	r.OnVideoStart("/v/a.mp4")
	r.OnVideoEnd("/v/a.mp4", 1800, true)
	r.OnVideoEnd("/v/b.mp4", 12, false)

	entries := s.History(0)
	if len(entries) != 2 {
		t.Fatalf("history = %d entries, want 2", len(entries))
	}
	for _, e := range entries {
		if e.ID == "" {
			t.Fatal("entries should carry generated IDs")
		}
		switch e.Path {
		case "/v/a.mp4":
			if !e.Completed || e.Watched != 1800 {
				t.Fatalf("a.mp4 entry = %+v", e)
			}
		case "/v/b.mp4":
			if e.Completed {
				t.Fatalf("b.mp4 should not be completed: %+v", e)
			}
		default:
			t.Fatalf("unexpected entry %+v", e)
		}
	}
}
