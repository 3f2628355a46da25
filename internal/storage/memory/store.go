// Package memory implements an in-memory storage.SnapshotStore.
//
// It is used where a metadata cache is wanted for the life of the process
// only, and in tests.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/steveyegge/todoq/internal/storage"
)

// Store keeps one snapshot in memory. Saved and loaded snapshots are
// copies, so callers may modify them freely.
type Store struct {
	mu     sync.RWMutex
	snap   *storage.Snapshot
	saves  int
	closed bool
}

var _ storage.SnapshotStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// Load returns a copy of the last saved snapshot.
func (s *Store) Load(ctx context.Context) (*storage.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, storage.ErrClosed
	}
	if s.snap == nil {
		return nil, storage.ErrNotFound
	}
	return clone(s.snap), nil
}

// Save replaces the stored snapshot.
func (s *Store) Save(ctx context.Context, snap *storage.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}
	s.snap = clone(snap)
	s.saves++
	return nil
}

// Clear drops the stored snapshot.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}
	s.snap = nil
	return nil
}

// Saves reports how many times Save succeeded.
func (s *Store) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.snap = nil
	return nil
}

// clone copies the slices and token map. Entities are values, but their
// pointer fields (parent ids) are shared; nothing mutates them.
func clone(snap *storage.Snapshot) *storage.Snapshot {
	return &storage.Snapshot{
		Projects:   slices.Clone(snap.Projects),
		Sections:   slices.Clone(snap.Sections),
		Labels:     slices.Clone(snap.Labels),
		SyncTokens: maps.Clone(snap.SyncTokens),
		Account:    snap.Account,
		SavedAt:    snap.SavedAt,
	}
}
