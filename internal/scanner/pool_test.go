package scanner

import (
	"context"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/awells/rove/internal/log"
)

func TestPool_ScanAndCache(t *testing.T) {
	root := t.TempDir()
	mkTree(t, root, "d/a.mp4", "d/b.mp4")

	pool := NewPool(2, log.NullLogger())

	if _, ok := pool.Cached(root); ok {
		t.Fatal("cache should be empty before first scan")
	}

	res, err := pool.Scan(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Videos) != 2 {
		t.Fatalf("want 2 videos, got %d", len(res.Videos))
	}

	cached, ok := pool.Cached(root)
	if !ok {
		t.Fatal("want cached result after scan")
	}
	if !reflect.DeepEqual(cached, res) {
		t.Fatal("cached result differs from scan result")
	}
}

func TestPool_ConcurrentRequestsShareOneResult(t *testing.T) {
	root := t.TempDir()
	mkTree(t, root, "d/a.mp4")

	pool := NewPool(2, log.NullLogger())

	const n = 16
	results := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := pool.Scan(context.Background(), root)
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = len(res.Videos)
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		if got != 1 {
			t.Fatalf("request %d got %d videos, want 1", i, got)
		}
	}
}

func TestPool_InvalidatePicksUpNewFiles(t *testing.T) {
	root := t.TempDir()
	mkTree(t, root, "d/a.mp4")

	pool := NewPool(1, log.NullLogger())
	ctx := context.Background()

	res, err := pool.Scan(ctx, root)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Videos) != 1 {
		t.Fatalf("want 1 video, got %d", len(res.Videos))
	}

	mkTree(t, root, "d/b.mp4")

	// Memoized: the new file is invisible until invalidation.
	res, err = pool.Scan(ctx, root)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Videos) != 1 {
		t.Fatalf("memoized scan saw %d videos, want 1", len(res.Videos))
	}

	pool.Invalidate(root)
	res, err = pool.Scan(ctx, root)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Videos) != 2 {
		t.Fatalf("rescan saw %d videos, want 2", len(res.Videos))
	}
}

func TestPool_FailedScanNotMemoized(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone")
	pool := NewPool(1, log.NullLogger())
	ctx := context.Background()

	if _, err := pool.Scan(ctx, missing); err == nil {
		t.Fatal("want error for missing root")
	}
	if _, ok := pool.Cached(missing); ok {
		t.Fatal("failed scan must not be cached")
	}
}

func TestPool_InvalidateAll(t *testing.T) {
	r1, r2 := t.TempDir(), t.TempDir()
	mkTree(t, r1, "a.mp4")
	mkTree(t, r2, "b.mp4")

	pool := NewPool(2, log.NullLogger())
	ctx := context.Background()
	if _, err := pool.Scan(ctx, r1); err != nil {
		t.Fatal(err)
	}
	if _, err := pool.Scan(ctx, r2); err != nil {
		t.Fatal(err)
	}

	pool.InvalidateAll()
	if _, ok := pool.Cached(r1); ok {
		t.Fatal("r1 still cached after InvalidateAll")
	}
	if _, ok := pool.Cached(r2); ok {
		t.Fatal("r2 still cached after InvalidateAll")
	}
}
