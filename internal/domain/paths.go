package domain

import (
	"path/filepath"
	"strings"
)

// CanonicalPath normalizes a path to the one form used for every comparison
// in the system: absolute and cleaned. Case is preserved; comparisons are
// case-sensitive everywhere.
func CanonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// IsUnder reports whether path equals base or lives inside base's subtree.
// The check is segment-aware: /a/b does not contain /a/bc. Both arguments
// must already be canonical.
func IsUnder(path, base string) bool {
	if path == base {
		return true
	}
	sep := string(filepath.Separator)
	if !strings.HasSuffix(base, sep) {
		base += sep
	}
	return strings.HasPrefix(path, base)
}
