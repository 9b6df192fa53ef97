package exclude

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/awells/rove/internal/log"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestExclude_DirectoryClosure(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "shows")
	nested := filepath.Join(sub, "season1", "ep.mp4")
	other := filepath.Join(root, "movies", "film.mp4")
	writeFile(t, nested)
	writeFile(t, other)

	e := NewEngine(log.NullLogger())
	e.Exclude(root, []string{sub})

	if !e.IsExcluded(root, nested) {
		t.Fatal("video nested under excluded directory should be excluded")
	}
	if !e.IsDirExcluded(root, filepath.Join(sub, "season1")) {
		t.Fatal("nested directory should be excluded")
	}
	if e.IsExcluded(root, other) {
		t.Fatal("video outside the excluded subtree should not be excluded")
	}
}

func TestExclude_SingleVideo(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "d", "a.mp4")
	b := filepath.Join(root, "d", "b.mp4")
	writeFile(t, a)
	writeFile(t, b)

	e := NewEngine(log.NullLogger())
	e.Exclude(root, []string{a})

	if !e.IsExcluded(root, a) {
		t.Fatal("a should be excluded")
	}
	if e.IsExcluded(root, b) {
		t.Fatal("b shares a directory but should not be excluded")
	}
	if e.IsDirExcluded(root, filepath.Join(root, "d")) {
		t.Fatal("excluding one file must not exclude its directory")
	}
}

func TestExclude_SegmentBoundary(t *testing.T) {
	root := t.TempDir()
	b := filepath.Join(root, "b")
	bc := filepath.Join(root, "bc")
	writeFile(t, filepath.Join(b, "v.mp4"))
	writeFile(t, filepath.Join(bc, "v.mp4"))

	e := NewEngine(log.NullLogger())
	e.Exclude(root, []string{b})

	if !e.IsExcluded(root, filepath.Join(b, "v.mp4")) {
		t.Fatal("video in excluded dir should be excluded")
	}
	if e.IsExcluded(root, filepath.Join(bc, "v.mp4")) {
		t.Fatal("sibling directory sharing a name prefix must not be excluded")
	}
}

func TestExclude_IncludeRoundTrip(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "shows")
	video := filepath.Join(sub, "ep.mp4")
	writeFile(t, video)

	e := NewEngine(log.NullLogger())
	e.Exclude(root, []string{sub})
	if !e.IsExcluded(root, video) {
		t.Fatal("setup: video should be excluded")
	}

	e.Include(root, []string{sub})
	if e.IsExcluded(root, video) {
		t.Fatal("include(exclude(X)) should restore the original state")
	}
	if e.HasExclusions(root) {
		t.Fatal("emptied record should be dropped")
	}
}

func TestExclude_ExcludeAllClearRoundTrip(t *testing.T) {
	root := t.TempDir()
	v1 := filepath.Join(root, "a", "1.mp4")
	v2 := filepath.Join(root, "b", "2.mp4")
	writeFile(t, v1)
	writeFile(t, v2)

	e := NewEngine(log.NullLogger())
	e.ExcludeAll(root)

	if !e.IsExcluded(root, v1) || !e.IsExcluded(root, v2) {
		t.Fatal("exclude-all should cover every video under the root")
	}

	e.Clear(root)
	if e.IsExcluded(root, v1) || e.IsExcluded(root, v2) {
		t.Fatal("clear should remove every exclusion")
	}
	if e.HasExclusions(root) {
		t.Fatal("cleared root should have no record")
	}
}

func TestExclude_Idempotent(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "d")
	video := filepath.Join(sub, "v.mp4")
	writeFile(t, video)

	e := NewEngine(log.NullLogger())
	e.Exclude(root, []string{sub})
	e.Exclude(root, []string{sub})

	// One include must fully undo the doubled exclude.
	e.Include(root, []string{sub})
	if e.IsExcluded(root, video) {
		t.Fatal("re-excluding must be a set union, not a count")
	}
}

func TestExclude_RootsIndependent(t *testing.T) {
	r1, r2 := t.TempDir(), t.TempDir()
	v1 := filepath.Join(r1, "d", "v.mp4")
	v2 := filepath.Join(r2, "d", "v.mp4")
	writeFile(t, v1)
	writeFile(t, v2)

	e := NewEngine(log.NullLogger())
	e.Exclude(r1, []string{filepath.Join(r1, "d")})

	if e.IsExcluded(r2, v2) {
		t.Fatal("exclusions in one root must not affect another")
	}
	if e.HasExclusions(r2) {
		t.Fatal("r2 should have no exclusions")
	}
}

func TestExclude_StaleVideoRemovable(t *testing.T) {
	root := t.TempDir()
	video := filepath.Join(root, "d", "v.mp4")
	writeFile(t, video)

	e := NewEngine(log.NullLogger())
	e.Exclude(root, []string{video})
	if err := os.Remove(video); err != nil {
		t.Fatal(err)
	}

	// The file is gone, but the exclusion can still be lifted.
	e.Include(root, []string{video})
	if e.HasExclusions(root) {
		t.Fatal("stale exclusion should be removable after the file vanishes")
	}
}
