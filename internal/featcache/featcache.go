// Package featcache persists audio descriptors across runs so repeated runs
// skip expensive decoding. Entries are keyed by file identity (path, size,
// modification time); a key that no longer matches the file on disk is simply
// never requested again, which is how invalidation works.
//
// The store is a JSON-lines journal: each flush appends only entries computed
// since the last flush, so the file is updated incrementally and never
// rewritten wholesale. An unreadable journal is discarded in memory with a
// single warning and the file is replaced at the next flush; opening alone
// never touches disk, so read-only runs can load a corrupt cache without
// mutating anything.
package featcache

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"crates/internal/logging"
	"crates/internal/services"
	"crates/internal/wavform"
)

// Entry pairs an identity with its computed descriptor.
type Entry struct {
	Key        string             `json:"key"`
	Identity   wavform.Identity   `json:"identity"`
	Descriptor wavform.Descriptor `json:"descriptor"`
}

// Store is a concurrency-safe descriptor cache backed by a JSON-lines file.
type Store struct {
	path   string
	logger *slog.Logger

	mu       sync.Mutex
	entries  map[string]Entry
	pending  []Entry
	inflight map[string]chan struct{}
	// rebuild is set when the on-disk journal was unreadable; the next flush
	// rewrites the file instead of appending to it.
	rebuild bool
}

// Open loads the cache journal at path. A missing file yields an empty cache;
// a corrupt file is discarded in memory (one warning) and left on disk until
// the next flush rewrites it.
func Open(path string, logger *slog.Logger) (*Store, error) {
	store := &Store{
		path:     path,
		logger:   logging.NewComponentLogger(logger, "featcache"),
		entries:  make(map[string]Entry),
		inflight: make(map[string]chan struct{}),
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return store, nil
		}
		return nil, services.Wrap(services.ErrCacheCorruption, "featcache", "open", path, err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	for {
		var entry Entry
		if err := decoder.Decode(&entry); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			store.logger.Warn("feature cache unreadable, discarding and rebuilding",
				logging.String("path", path), logging.Error(err))
			store.entries = make(map[string]Entry)
			store.rebuild = true
			break
		}
		if entry.Key == "" {
			entry.Key = entry.Identity.Key()
		}
		store.entries[entry.Key] = entry
	}
	return store, nil
}

// Get returns the cached descriptor for the identity, if present.
func (s *Store) Get(id wavform.Identity) (wavform.Descriptor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id.Key()]
	if !ok {
		return wavform.Descriptor{}, false
	}
	return entry.Descriptor, true
}

// GetOrCompute returns the cached descriptor for the identity or invokes
// compute exactly once, even under concurrent requests for the same key
// (insert-if-absent semantics). Compute failures are not cached. The second
// return reports whether the value came from cache.
func (s *Store) GetOrCompute(id wavform.Identity, compute func() (wavform.Descriptor, error)) (wavform.Descriptor, bool, error) {
	key := id.Key()
	for {
		s.mu.Lock()
		if entry, ok := s.entries[key]; ok {
			s.mu.Unlock()
			return entry.Descriptor, true, nil
		}
		if wait, busy := s.inflight[key]; busy {
			s.mu.Unlock()
			<-wait
			continue
		}
		done := make(chan struct{})
		s.inflight[key] = done
		s.mu.Unlock()

		desc, err := compute()

		s.mu.Lock()
		delete(s.inflight, key)
		close(done)
		if err != nil {
			s.mu.Unlock()
			return wavform.Descriptor{}, false, err
		}
		entry := Entry{Key: key, Identity: id, Descriptor: desc}
		s.entries[key] = entry
		s.pending = append(s.pending, entry)
		s.mu.Unlock()
		return desc, false, nil
	}
}

// Flush appends entries computed since the last flush to the journal, leaving
// entries already on disk untouched. After a corrupt open the journal is
// rewritten wholesale instead. Entries are written in key order for
// deterministic output.
func (s *Store) Flush() error {
	s.mu.Lock()
	toWrite := s.pending
	s.pending = nil
	rebuild := s.rebuild
	s.rebuild = false
	if rebuild {
		toWrite = make([]Entry, 0, len(s.entries))
		for _, entry := range s.entries {
			toWrite = append(toWrite, entry)
		}
	}
	s.mu.Unlock()

	if len(toWrite) == 0 && !rebuild {
		return nil
	}
	sort.Slice(toWrite, func(i, j int) bool { return toWrite[i].Key < toWrite[j].Key })

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return services.Wrap(services.ErrFileSystem, "featcache", "flush", s.path, err)
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if rebuild {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}
	file, err := os.OpenFile(s.path, flags, 0o644)
	if err != nil {
		return services.Wrap(services.ErrFileSystem, "featcache", "flush", s.path, err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	for _, entry := range toWrite {
		if err := encoder.Encode(entry); err != nil {
			return services.Wrap(services.ErrFileSystem, "featcache", "flush", s.path, err)
		}
	}
	return file.Close()
}

// Len returns the number of cached entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// PendingCount returns how many entries await the next flush.
func (s *Store) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
