package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"
)

// Bus dispatches events to registered handlers in-process. The adapter
// publishes on it; hosts register handlers to show notices or log.
type Bus struct {
	handlers []Handler
	logger   *slog.Logger
	mu       sync.RWMutex
}

// New creates a new event bus that logs handler failures to slog.Default.
func New() *Bus {
	return &Bus{logger: slog.Default()}
}

// SetLogger replaces the logger handler failures are reported to.
func (b *Bus) SetLogger(l *slog.Logger) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if l != nil {
		b.logger = l
	}
}

// Register adds a handler to the bus. Handlers are sorted by priority on
// each Dispatch call, so registration order only breaks ties.
func (b *Bus) Register(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Unregister removes the handler with the given ID. It reports whether one
// was found.
func (b *Bus) Unregister(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(b.handlers)
	b.handlers = slices.DeleteFunc(b.handlers, func(h Handler) bool { return h.ID() == id })
	return len(b.handlers) != n
}

// Dispatch sends an event to all registered handlers that handle its type.
// Handlers are called sequentially in priority order (lowest first).
// Handler errors are logged but do not stop the chain.
func (b *Bus) Dispatch(ctx context.Context, event *Event) (*Result, error) {
	if event == nil {
		return nil, fmt.Errorf("eventbus: nil event")
	}
	if event.At.IsZero() {
		event.At = time.Now()
	}

	b.mu.RLock()
	matching := b.matchingHandlers(event.Type)
	logger := b.logger
	b.mu.RUnlock()

	result := &Result{}

	for _, h := range matching {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("eventbus: context cancelled: %w", err)
		}

		if err := h.Handle(ctx, event, result); err != nil {
			logger.Warn("eventbus: handler failed", "handler", h.ID(), "event", event.Type, "error", err)
		}
	}

	return result, nil
}

// Handlers returns all registered handlers (for introspection/status reporting).
func (b *Bus) Handlers() []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Handler, len(b.handlers))
	copy(out, b.handlers)
	return out
}

// matchingHandlers returns handlers that handle the given event type, sorted
// by priority (lowest first). Must be called with at least a read lock held.
func (b *Bus) matchingHandlers(eventType EventType) []Handler {
	var matched []Handler
	for _, h := range b.handlers {
		if slices.Contains(h.Handles(), eventType) {
			matched = append(matched, h)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Priority() < matched[j].Priority()
	})
	return matched
}
