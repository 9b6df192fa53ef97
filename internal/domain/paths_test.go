package domain

import (
	"path/filepath"
	"testing"
)

func TestIsUnder_SegmentBoundary(t *testing.T) {
	tests := []struct {
		name string
		path string
		base string
		want bool
	}{
		{"equal", "/a/b", "/a/b", true},
		{"direct child", "/a/b/c", "/a/b", true},
		{"deep descendant", "/a/b/c/d/e", "/a/b", true},
		{"sibling with shared prefix", "/a/bc", "/a/b", false},
		{"sibling file with shared prefix", "/a/bc/v.mp4", "/a/b", false},
		{"parent", "/a", "/a/b", false},
		{"unrelated", "/x/y", "/a/b", false},
		{"root base", "/a/b", "/", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUnder(tt.path, tt.base); got != tt.want {
				t.Fatalf("IsUnder(%q, %q) = %v, want %v", tt.path, tt.base, got, tt.want)
			}
		})
	}
}

func TestCanonicalPath(t *testing.T) {
	got := CanonicalPath("/a/b/../c//d")
	if got != filepath.Clean("/a/c/d") {
		t.Fatalf("want /a/c/d, got %q", got)
	}
	// Relative input becomes absolute.
	if !filepath.IsAbs(CanonicalPath("x/y")) {
		t.Fatal("relative path should canonicalize to absolute")
	}
}

func TestCanonicalPath_CaseSensitive(t *testing.T) {
	if CanonicalPath("/a/B") == CanonicalPath("/a/b") {
		t.Fatal("canonicalization must preserve case")
	}
}
