// Package repository provides the keyed caches the adapter keeps for Todoist
// metadata (projects, sections, labels).
//
// A Repository is refreshed wholesale from its fetch closure. Incremental
// responses are applied as a diff: entities flagged deleted are forgotten,
// everything else is upserted, and entities the diff does not mention keep
// their cached state. Deleted entities are not kept as tombstones, so a lookup
// cannot tell "deleted" from "never existed".
package repository

import (
	"context"
	"iter"
	"slices"
	"sync"

	"github.com/steveyegge/todoq/internal/types"
)

// Delta is one fetch result. Full is set when the server sent a complete
// snapshot rather than the changes since the previous fetch.
type Delta[E any] struct {
	Items []E
	Full  bool
}

// FetchFunc retrieves the next Delta for one entity kind.
type FetchFunc[E any] func(ctx context.Context) (Delta[E], error)

// Reader is the read-only view of a Repository handed to consumers outside
// the adapter.
type Reader[ID comparable, E types.Entity[ID]] interface {
	ByID(id ID) (E, bool)
	ByName(name string) (E, bool)
	Iter() iter.Seq[E]
	IterActive() iter.Seq[E]
	Len() int
}

// Repository is a keyed cache over one entity kind. Reads are safe from any
// goroutine; writes are expected only from the owning adapter.
type Repository[ID comparable, E types.Entity[ID]] struct {
	mu    sync.RWMutex
	items map[ID]E
	order []ID // insertion order, for deterministic iteration and ByName
	fetch FetchFunc[E]
}

var _ Reader[types.LabelID, types.Label] = (*Repository[types.LabelID, types.Label])(nil)

// New creates an empty repository backed by fetch. fetch may be nil for
// repositories that are only ever filled through ApplyDiff.
func New[ID comparable, E types.Entity[ID]](fetch FetchFunc[E]) *Repository[ID, E] {
	return &Repository[ID, E]{
		items: make(map[ID]E),
		fetch: fetch,
	}
}

// Sync runs the fetch closure and applies its result. On error the cache is
// left exactly as it was.
func (r *Repository[ID, E]) Sync(ctx context.Context) error {
	if r.fetch == nil {
		return nil
	}
	delta, err := r.fetch(ctx)
	if err != nil {
		return err
	}
	if delta.Full {
		r.Replace(delta.Items)
	} else {
		r.ApplyDiff(delta.Items)
	}
	return nil
}

// ApplyDiff upserts every changed entity and removes the ones flagged as
// deleted. Within one call the last entry for an id wins. Removing an id that
// is not cached is a no-op.
func (r *Repository[ID, E]) ApplyDiff(changed []E) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range changed {
		r.applyLocked(e)
	}
}

// Replace discards the cache and loads a full snapshot. Deleted entities in
// the snapshot are skipped.
func (r *Repository[ID, E]) Replace(all []E) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = make(map[ID]E, len(all))
	r.order = r.order[:0]
	for _, e := range all {
		r.applyLocked(e)
	}
}

func (r *Repository[ID, E]) applyLocked(e E) {
	id := e.EntityID()
	_, exists := r.items[id]
	if e.Deleted() {
		if exists {
			delete(r.items, id)
			r.order = slices.DeleteFunc(r.order, func(o ID) bool { return o == id })
		}
		return
	}
	if !exists {
		r.order = append(r.order, id)
	}
	r.items[id] = e
}

// ByID returns the cached entity with the given id.
func (r *Repository[ID, E]) ByID(id ID) (E, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.items[id]
	return e, ok
}

// ByName returns the first cached entity (in insertion order) whose name
// matches exactly. It scans the whole cache, so it is meant for small
// collections such as labels.
func (r *Repository[ID, E]) ByName(name string) (E, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		if e := r.items[id]; e.EntityName() == name {
			return e, true
		}
	}
	var zero E
	return zero, false
}

// Len returns the number of cached entities.
func (r *Repository[ID, E]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Snapshot returns a copy of all cached entities in insertion order.
func (r *Repository[ID, E]) Snapshot() []E {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]E, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}
	return out
}

// Iter yields every cached entity. Each range over the sequence works on a
// fresh snapshot, so it can be restarted and never observes a write midway.
func (r *Repository[ID, E]) Iter() iter.Seq[E] {
	return func(yield func(E) bool) {
		for _, e := range r.Snapshot() {
			if !yield(e) {
				return
			}
		}
	}
}

// IterActive is Iter without deleted or archived entities.
func (r *Repository[ID, E]) IterActive() iter.Seq[E] {
	return func(yield func(E) bool) {
		for _, e := range r.Snapshot() {
			if e.Deleted() || e.Archived() {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}
