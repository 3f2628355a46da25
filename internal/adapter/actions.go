package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/steveyegge/todoq/internal/eventbus"
	"github.com/steveyegge/todoq/internal/todoist"
	"github.com/steveyegge/todoq/internal/types"
)

// ErrClosePending is returned by CloseTask while an earlier close of the same
// task has not finished.
var ErrClosePending = errors.New("adapter: close already in progress")

// Actions are the task mutations the adapter passes through to the API.
type Actions struct {
	a *Adapter
}

// Actions returns the mutation entry points.
func (a *Adapter) Actions() *Actions {
	return &Actions{a: a}
}

// CloseTask completes a task optimistically. The task disappears from every
// subscription at once. On success it is removed from their results; on
// failure it reappears and the API error is returned. Closing an id whose
// close is still in flight returns ErrClosePending.
func (x *Actions) CloseTask(ctx context.Context, id types.TaskID) error {
	a := x.a
	c := a.apiClient()
	if c == nil {
		return ErrNotReady
	}
	if !a.markPending(id) {
		return ErrClosePending
	}
	subs := a.subscriptions()
	for _, s := range subs {
		s.Rerender()
	}

	if err := c.CloseTask(ctx, string(id)); err != nil {
		a.clearPending(id)
		for _, s := range a.subscriptions() {
			s.Rerender()
		}
		a.publish(ctx, &eventbus.Event{Type: eventbus.EventTaskCloseFailed, TaskID: string(id), Error: err.Error()})
		return fmt.Errorf("failed to close task %s: %w", id, err)
	}

	for _, s := range a.subscriptions() {
		s.Remove(id)
	}
	a.clearPending(id)
	a.publish(ctx, &eventbus.Event{Type: eventbus.EventTaskClosed, TaskID: string(id)})
	return nil
}

// CreateTask creates a task and returns it hydrated. Subscriptions are not
// touched: the task shows up after the next sync or refresh.
func (x *Actions) CreateTask(ctx context.Context, content string, params todoist.CreateTaskParams) (types.Task, error) {
	a := x.a
	c := a.apiClient()
	if c == nil {
		return types.Task{}, ErrNotReady
	}
	raw, err := c.CreateTask(ctx, content, params)
	if err != nil {
		return types.Task{}, fmt.Errorf("failed to create task: %w", err)
	}
	t := a.hydrate(raw)
	a.publish(ctx, &eventbus.Event{Type: eventbus.EventTaskCreated, TaskID: string(t.ID), Content: t.Content})
	return t, nil
}

// Pending reports whether a close of id is in flight.
func (a *Adapter) Pending(id types.TaskID) bool {
	a.pendingMu.Lock()
	defer a.pendingMu.Unlock()
	_, ok := a.pending[id]
	return ok
}

// markPending claims id for a close. It reports false if id is already
// claimed.
func (a *Adapter) markPending(id types.TaskID) bool {
	a.pendingMu.Lock()
	defer a.pendingMu.Unlock()
	if _, ok := a.pending[id]; ok {
		return false
	}
	a.pending[id] = struct{}{}
	return true
}

func (a *Adapter) clearPending(id types.TaskID) {
	a.pendingMu.Lock()
	defer a.pendingMu.Unlock()
	delete(a.pending, id)
}
