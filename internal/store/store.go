// Package store persists resume positions and watch history in BoltDB.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/awells/rove/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketPositions = []byte("positions")
	bucketHistory   = []byte("history")
)

const (
	maxPositions = 500  // most recently updated kept
	maxHistory   = 1000 // oldest entries trimmed
)

// Store implements the resume-position store and the watch-history sink's
// persistence using BoltDB.
type Store struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
}

// Open opens (or creates) the database under dataDir. An empty dataDir
// selects memory-only mode with no persistence, used by tests.
func Open(dataDir string) (*Store, error) {
	if dataDir == "" {
		return &Store{cache: make(map[string][]byte)}, nil
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dataDir, "rove.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketPositions, bucketHistory} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, cache: make(map[string][]byte)}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *Store) get(bucket []byte, key string, dest interface{}) bool {
	cacheKey := string(bucket) + ":" + key

	// Check memory cache first
	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return json.Unmarshal(data, dest) == nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false
	}

	// Read from BoltDB
	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return false
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return json.Unmarshal(data, dest) == nil
}

func (s *Store) set(bucket []byte, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	cacheKey := string(bucket) + ":" + key

	// Update memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		return b.Put([]byte(key), data)
	})
}

func (s *Store) delete(bucket []byte, key string) {
	cacheKey := string(bucket) + ":" + key

	s.mu.Lock()
	delete(s.cache, cacheKey)
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b != nil {
			b.Delete([]byte(key))
		}
		return nil
	})
}

// === Resume positions ===

// Position returns the saved playback offset for a video, if any.
func (s *Store) Position(path string) (domain.ResumePosition, bool) {
	path = domain.CanonicalPath(path)
	var pos domain.ResumePosition
	ok := s.get(bucketPositions, path, &pos)
	return pos, ok
}

// SavePosition records the current offset for a video and trims the bucket
// to its entry cap, dropping the least recently updated positions.
func (s *Store) SavePosition(path string, positionMS, durationMS int64) error {
	path = domain.CanonicalPath(path)
	pos := domain.ResumePosition{
		Path:      path,
		Position:  positionMS,
		Duration:  durationMS,
		UpdatedAt: time.Now(),
	}
	if err := s.set(bucketPositions, path, pos); err != nil {
		return err
	}
	s.trimPositions()
	return nil
}

// ClearPosition forgets the saved offset for a video.
func (s *Store) ClearPosition(path string) {
	s.delete(bucketPositions, domain.CanonicalPath(path))
}

func (s *Store) trimPositions() {
	if s.db == nil {
		return
	}
	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPositions)
		if b == nil || b.Stats().KeyN <= maxPositions {
			return nil
		}

		type aged struct {
			key []byte
			at  time.Time
		}
		var entries []aged
		b.ForEach(func(k, v []byte) error {
			var pos domain.ResumePosition
			if json.Unmarshal(v, &pos) == nil {
				entries = append(entries, aged{key: append([]byte(nil), k...), at: pos.UpdatedAt})
			}
			return nil
		})
		sort.Slice(entries, func(i, j int) bool { return entries[i].at.Before(entries[j].at) })

		excess := len(entries) - maxPositions
		for i := 0; i < excess; i++ {
			b.Delete(entries[i].key)
			s.mu.Lock()
			delete(s.cache, string(bucketPositions)+":"+string(entries[i].key))
			s.mu.Unlock()
		}
		return nil
	})
}

// === Watch history ===

// AppendWatch stores one watch entry, keyed by started-at timestamp so a
// cursor scan returns chronological order.
func (s *Store) AppendWatch(entry domain.WatchEntry) error {
	key := fmt.Sprintf("%020d:%s", entry.StartedAt.UnixNano(), entry.ID)
	if err := s.set(bucketHistory, key, entry); err != nil {
		return err
	}
	s.trimHistory()
	return nil
}

// History returns up to limit most recent watch entries, newest first.
// limit <= 0 returns everything.
func (s *Store) History(limit int) []domain.WatchEntry {
	if s.db == nil {
		return s.memoryHistory(limit)
	}
	var entries []domain.WatchEntry
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketHistory)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var e domain.WatchEntry
			if json.Unmarshal(v, &e) == nil {
				entries = append(entries, e)
			}
			if limit > 0 && len(entries) >= limit {
				break
			}
		}
		return nil
	})
	return entries
}

// memoryHistory serves History in memory-only mode.
func (s *Store) memoryHistory(limit int) []domain.WatchEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := string(bucketHistory) + ":"
	var keys []string
	for k := range s.cache {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			keys = append(keys, k)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	var entries []domain.WatchEntry
	for _, k := range keys {
		var e domain.WatchEntry
		if json.Unmarshal(s.cache[k], &e) == nil {
			entries = append(entries, e)
		}
		if limit > 0 && len(entries) >= limit {
			break
		}
	}
	return entries
}

func (s *Store) trimHistory() {
	if s.db == nil {
		return
	}
	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketHistory)
		if b == nil {
			return nil
		}
		excess := b.Stats().KeyN - maxHistory
		if excess <= 0 {
			return nil
		}
		var stale [][]byte
		c := b.Cursor()
		for k, _ := c.First(); k != nil && len(stale) < excess; k, _ = c.Next() {
			stale = append(stale, append([]byte(nil), k...))
		}
		for _, key := range stale {
			b.Delete(key)
			s.mu.Lock()
			delete(s.cache, string(bucketHistory)+":"+string(key))
			s.mu.Unlock()
		}
		return nil
	})
}
