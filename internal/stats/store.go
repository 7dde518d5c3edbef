package stats

import (
	"fmt"
	"io"
	"strconv"
	"sync"

	"smudge-pin/pkg/log"

	"golang.org/x/sync/singleflight"
)

// Store lazily loads tables from a directory and caches them per PIN length.
// Safe for concurrent use: requests for different lengths never share a slot.
type Store struct {
	dir string

	mu     sync.RWMutex
	tables map[int]*Table
	loads  singleflight.Group
}

// NewStore returns a store reading tables from dir.
func NewStore(dir string) *Store {
	return &Store{
		dir:    dir,
		tables: make(map[int]*Table),
	}
}

// Dir returns the directory the store reads from.
func (s *Store) Dir() string {
	return s.dir
}

// Table returns the tables for a PIN length, loading them on first use.
// Concurrent misses for the same length share one load.
func (s *Store) Table(length int) (*Table, error) {
	s.mu.RLock()
	t, ok := s.tables[length]
	s.mu.RUnlock()
	if ok {
		return t, nil
	}

	v, err, _ := s.loads.Do(strconv.Itoa(length), func() (interface{}, error) {
		loaded, err := Load(s.dir, length)
		if err != nil {
			return nil, err
		}
		log.Debug(log.Fields{"length": length, "dir": s.dir}, "statistics loaded")
		return s.insert(loaded), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Table), nil
}

// insert caches t unless a table for its length is already cached, and
// returns the cached table.
func (s *Store) insert(t *Table) *Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.tables[t.Length]; ok {
		return existing
	}
	s.tables[t.Length] = t
	return t
}

// Has reports whether tables for length are cached or on disk.
func (s *Store) Has(length int) bool {
	s.mu.RLock()
	_, ok := s.tables[length]
	s.mu.RUnlock()
	return ok || Exists(s.dir, length)
}

// Lengths lists the PIN lengths the store can serve.
func (s *Store) Lengths() ([]int, error) {
	return Lengths(s.dir)
}

// Build computes tables from a corpus, writes them to the store directory
// and replaces any cached tables for that length.
func (s *Store) Build(r io.Reader, length int) (*Table, error) {
	t, err := Build(r, length)
	if err != nil {
		return nil, err
	}
	if err := Save(s.dir, t); err != nil {
		return nil, fmt.Errorf("save statistics: %w", err)
	}

	s.mu.Lock()
	s.tables[length] = t
	s.mu.Unlock()
	return t, nil
}
