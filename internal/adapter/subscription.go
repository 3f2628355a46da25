package adapter

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"sync"

	"github.com/steveyegge/todoq/internal/i18n"
	"github.com/steveyegge/todoq/internal/todoist"
	"github.com/steveyegge/todoq/internal/types"
)

// State is the outcome of a subscription's most recent fetch.
type State int

const (
	StateSuccess State = iota
	StateError
	StateNotReady
)

func (s State) String() string {
	switch s {
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	case StateNotReady:
		return "not-ready"
	default:
		return "unknown"
	}
}

// ErrorKind classifies a failed fetch for display.
type ErrorKind int

const (
	ErrorUnknown ErrorKind = iota
	ErrorBadRequest
	ErrorUnauthorized
	ErrorForbidden
	ErrorServerError
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorBadRequest:
		return "bad-request"
	case ErrorUnauthorized:
		return "unauthorized"
	case ErrorForbidden:
		return "forbidden"
	case ErrorServerError:
		return "server-error"
	default:
		return "unknown"
	}
}

// Message returns the callout text for the error kind.
func (k ErrorKind) Message(t *i18n.Translations) string {
	switch k {
	case ErrorBadRequest:
		return t.Errors.BadRequest
	case ErrorUnauthorized:
		return t.Errors.Unauthorized
	case ErrorForbidden:
		return t.Errors.Forbidden
	case ErrorServerError:
		return t.Errors.ServerError
	default:
		return t.Errors.Unknown
	}
}

// ClassifyError maps a fetch error to an ErrorKind using the HTTP status of
// a *todoist.APIError. Errors without a status are ErrorUnknown.
func ClassifyError(err error) ErrorKind {
	status := todoist.StatusCode(err)
	switch {
	case status == http.StatusBadRequest:
		return ErrorBadRequest
	case status == http.StatusUnauthorized:
		return ErrorUnauthorized
	case status == http.StatusForbidden:
		return ErrorForbidden
	case status >= http.StatusInternalServerError:
		return ErrorServerError
	default:
		return ErrorUnknown
	}
}

// Result is what a subscription callback receives. Tasks is only set for
// StateSuccess, Error and Cause only for StateError.
type Result struct {
	State State
	Tasks []types.Task
	Error ErrorKind
	Cause error
}

// Callback receives every new result of a subscription. Calls for one
// subscription are made one at a time, in the order results were committed,
// and a callback never sees a result older than one it already received. It
// must not call back into its own subscription.
type Callback func(Result)

type fetchFunc func(ctx context.Context) ([]types.Task, error)

// Subscription is one live query. It keeps the last fetched result and hands
// its callback a copy filtered through the adapter's visibility predicate,
// so tasks pending close disappear without losing the fetched set.
//
// Every Update takes a generation number. A fetch that completes after a
// newer Update has started is dropped, so the most recently started refresh
// always determines the result.
type Subscription struct {
	fetch    fetchFunc
	visible  func(types.Task) bool
	callback Callback
	onUpdate func(ctx context.Context, s State)

	mu      sync.Mutex
	result  Result
	gen     uint64 // bumped when an Update starts
	version uint64 // bumped when result changes

	deliverMu sync.Mutex
	delivered uint64 // version of the last result handed to callback
}

func newSubscription(fetch fetchFunc, visible func(types.Task) bool, cb Callback) *Subscription {
	if visible == nil {
		visible = func(types.Task) bool { return true }
	}
	if cb == nil {
		cb = func(Result) {}
	}
	return &Subscription{
		fetch:    fetch,
		visible:  visible,
		callback: cb,
		result:   Result{State: StateSuccess},
	}
}

// Update fetches the query again and publishes the new result. It reports
// whether the result was applied; false means a newer Update superseded it.
func (s *Subscription) Update(ctx context.Context) bool {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	tasks, err := s.fetch(ctx)

	var next Result
	switch {
	case errors.Is(err, ErrNotReady):
		next = Result{State: StateNotReady}
	case err != nil:
		next = Result{State: StateError, Error: ClassifyError(err), Cause: err}
	default:
		next = Result{State: StateSuccess, Tasks: tasks}
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return false
	}
	s.result = next
	s.version++
	version := s.version
	out := s.filteredLocked()
	s.mu.Unlock()

	if s.onUpdate != nil {
		s.onUpdate(ctx, next.State)
	}
	s.deliver(version, out)
	return true
}

// deliver hands out to the callback unless a newer result already went out.
func (s *Subscription) deliver(version uint64, out Result) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	if version < s.delivered {
		return
	}
	s.delivered = version
	s.callback(out)
}

// Remove drops a task from a successful result and re-publishes it. It does
// nothing while the subscription is in an error or not-ready state.
func (s *Subscription) Remove(id types.TaskID) {
	s.mu.Lock()
	if s.result.State != StateSuccess {
		s.mu.Unlock()
		return
	}
	s.result.Tasks = slices.DeleteFunc(s.result.Tasks, func(t types.Task) bool { return t.ID == id })
	s.version++
	version := s.version
	out := s.filteredLocked()
	s.mu.Unlock()

	s.deliver(version, out)
}

// Rerender re-publishes the current result without fetching.
func (s *Subscription) Rerender() {
	s.mu.Lock()
	version := s.version
	out := s.filteredLocked()
	s.mu.Unlock()

	s.deliver(version, out)
}

// Current returns the current result as the callback would see it.
func (s *Subscription) Current() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filteredLocked()
}

func (s *Subscription) filteredLocked() Result {
	out := s.result
	if out.State != StateSuccess {
		return out
	}
	out.Tasks = make([]types.Task, 0, len(s.result.Tasks))
	for _, t := range s.result.Tasks {
		if s.visible(t) {
			out.Tasks = append(out.Tasks, t)
		}
	}
	return out
}
