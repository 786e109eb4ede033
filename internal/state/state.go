// Package state provides a persistent JSON baseline of dependency names seen
// in earlier scans. Detections whose dependency is missing from the baseline
// are marked new.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/garagon/cppdeps/internal/meta"
	"github.com/garagon/cppdeps/internal/types"
)

// Entry records when a dependency name was first and last observed.
type Entry struct {
	FirstSeen string `json:"first_seen"`
	LastSeen  string `json:"last_seen"`
}

// Store persists dependency names to a JSON file on disk.
type Store struct {
	mu      sync.RWMutex
	Entries map[string]Entry `json:"entries"`
	path    string
	loaded  bool
	seen    map[string]bool
	now     func() time.Time
}

// New creates a new Store backed by the given file path.
func New(path string) *Store {
	return &Store{
		Entries: make(map[string]Entry),
		path:    path,
		seen:    make(map[string]bool),
		now:     time.Now,
	}
}

// Load reads the baseline from disk. A missing file leaves the store empty
// and not loaded, so nothing is marked new on the first run. Symlinks are
// rejected.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Lstat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("baseline file is a symlink: %s", s.path)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, s); err != nil {
		return fmt.Errorf("parsing baseline %s: %w", s.path, err)
	}
	if s.Entries == nil {
		s.Entries = make(map[string]Entry)
	}
	s.loaded = true
	return nil
}

// Save records every name seen since New or Load and writes the baseline,
// creating parent directories if needed. Symlinks are rejected.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if info, err := os.Lstat(s.path); err == nil {
		if info.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("baseline file is a symlink: %s", s.path)
		}
	}

	stamp := s.now().UTC().Format(time.RFC3339)
	for name := range s.seen {
		e := s.Entries[name]
		if e.FirstSeen == "" {
			e.FirstSeen = stamp
		}
		e.LastSeen = stamp
		s.Entries[name] = e
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomic(s.path, append(data, '\n'))
}

// writeAtomic writes data to a temporary file beside path and renames it
// into place, so readers never observe a partial baseline.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Has reports whether name is in the loaded baseline.
func (s *Store) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.Entries[name]
	return ok
}

// Names returns the baseline's dependency names in sorted order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.Entries))
	for name := range s.Entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Path returns the file path of this store.
func (s *Store) Path() string {
	return s.path
}

// Name implements scanner.Enricher.
func (s *Store) Name() string { return "baseline" }

// Enrich marks d new when its dependency name is absent from a loaded
// baseline, and remembers the name for the next Save.
func (s *Store) Enrich(d *types.Detection) {
	name := meta.DependencyName(*d)
	if name == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[name] = true
	if !s.loaded {
		return
	}
	if _, ok := s.Entries[name]; !ok {
		d.New = true
	}
}
