// Package storage provides shared types for the metadata snapshot store.
//
// The concrete implementation lives in the sqlite sub-package. This package
// holds the interface and value types referenced by both the implementation
// and its consumers (internal/adapter, cmd/todoq).
//
// Only metadata is stored: projects, sections, labels and the sync tokens
// that go with them. Tasks are always fetched live.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/steveyegge/todoq/internal/types"
)

// ErrNotFound is returned by Load when no snapshot has been saved yet.
var ErrNotFound = errors.New("not found")

// ErrClosed is returned when the store is used after Close.
var ErrClosed = errors.New("store closed")

// Snapshot is the cached metadata as of one successful sync.
type Snapshot struct {
	Projects []types.Project
	Sections []types.Section
	Labels   []types.Label

	// SyncTokens maps a Sync API resource type to the token the cached
	// entities of that type are current as of.
	SyncTokens map[string]string

	// Account identifies the API token that wrote the snapshot. A snapshot
	// from another account is not restored.
	Account string

	SavedAt time.Time
}

// Empty reports whether the snapshot holds no entities.
func (s *Snapshot) Empty() bool {
	return len(s.Projects) == 0 && len(s.Sections) == 0 && len(s.Labels) == 0
}

// SnapshotStore is the interface satisfied by *sqlite.Store.
// Consumers depend on this interface rather than on the concrete type so that
// alternative implementations (mocks, instrumented wrappers) can be substituted.
type SnapshotStore interface {
	// Load returns the most recently saved snapshot, or ErrNotFound.
	Load(ctx context.Context) (*Snapshot, error)

	// Save replaces the stored snapshot atomically.
	Save(ctx context.Context, snap *Snapshot) error

	// Clear removes the stored snapshot.
	Clear(ctx context.Context) error

	// Lifecycle
	Close() error
}
