package scanner

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/awells/rove/internal/domain"
)

const maxWorkers = 8

// inflight tracks one scan request; waiters block on done.
type inflight struct {
	done chan struct{}
	res  domain.ScanResult
	err  error
}

// Pool runs scans on a bounded worker pool, memoizes results per root, and
// coalesces duplicate concurrent requests: a request arriving while a scan
// for the same root is outstanding waits for that scan instead of walking
// the tree a second time.
type Pool struct {
	logger *slog.Logger
	sem    chan struct{}

	mu    sync.Mutex
	scans map[string]*inflight
}

// NewPool creates a scan pool with the given worker bound.
// workers <= 0 selects min(8, NumCPU).
func NewPool(workers int, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers > maxWorkers {
			workers = maxWorkers
		}
	}
	return &Pool{
		logger: logger,
		sem:    make(chan struct{}, workers),
		scans:  make(map[string]*inflight),
	}
}

// Scan returns the ScanResult for root, walking the tree at most once per
// root until Invalidate is called. Concurrent calls for the same root share
// a single walk. The context only bounds this caller's wait; a walk already
// in flight runs to completion so other waiters still get its result.
func (p *Pool) Scan(ctx context.Context, root string) (domain.ScanResult, error) {
	root = domain.CanonicalPath(root)

	p.mu.Lock()
	if in, ok := p.scans[root]; ok {
		p.mu.Unlock()
		return p.wait(ctx, in)
	}
	in := &inflight{done: make(chan struct{})}
	p.scans[root] = in
	p.mu.Unlock()

	go p.run(root, in)

	return p.wait(ctx, in)
}

// Cached returns the memoized result for root without triggering a scan.
func (p *Pool) Cached(root string) (domain.ScanResult, bool) {
	root = domain.CanonicalPath(root)

	p.mu.Lock()
	defer p.mu.Unlock()
	in, ok := p.scans[root]
	if !ok {
		return domain.ScanResult{}, false
	}
	select {
	case <-in.done:
	default:
		return domain.ScanResult{}, false // still scanning
	}
	if in.err != nil {
		return domain.ScanResult{}, false
	}
	return in.res, true
}

// Invalidate drops the cache entry for root so the next Scan walks again.
// A scan currently in flight is left alone; its waiters still complete.
func (p *Pool) Invalidate(root string) {
	root = domain.CanonicalPath(root)

	p.mu.Lock()
	defer p.mu.Unlock()
	if in, ok := p.scans[root]; ok {
		select {
		case <-in.done:
			delete(p.scans, root)
		default:
			// in flight, keep it for the waiters
		}
	}
}

// InvalidateAll drops every completed cache entry.
func (p *Pool) InvalidateAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for root, in := range p.scans {
		select {
		case <-in.done:
			delete(p.scans, root)
		default:
		}
	}
}

func (p *Pool) run(root string, in *inflight) {
	p.sem <- struct{}{}
	defer func() { <-p.sem }()

	p.logger.Debug("scan started", "root", root)
	res, err := Scan(root, p.logger)
	in.res, in.err = res, err
	close(in.done)

	if err != nil {
		p.logger.Error("scan failed", "root", root, "error", err)
		// Failed scans are not memoized; the next request retries.
		p.mu.Lock()
		if p.scans[root] == in {
			delete(p.scans, root)
		}
		p.mu.Unlock()
		return
	}
	p.logger.Info("scan completed", "root", root,
		"videos", len(res.Videos), "directories", len(res.Directories))
}

func (p *Pool) wait(ctx context.Context, in *inflight) (domain.ScanResult, error) {
	select {
	case <-in.done:
		return in.res, in.err
	case <-ctx.Done():
		return domain.ScanResult{}, ctx.Err()
	}
}
