package eventbus

import "time"

// EventType identifies an event flowing through the bus.
type EventType string

const (
	// Adapter lifecycle events.
	EventSyncCompleted EventType = "sync.completed"
	EventSyncFailed    EventType = "sync.failed"

	// Task mutation events.
	EventTaskClosed      EventType = "task.closed"
	EventTaskCloseFailed EventType = "task.close_failed"
	EventTaskCreated     EventType = "task.created"

	// Note events, raised by hosts that watch note files.
	EventNoteChanged EventType = "note.changed"
)

// IsTaskEvent reports whether the event type is a task mutation.
func (t EventType) IsTaskEvent() bool {
	switch t {
	case EventTaskClosed, EventTaskCloseFailed, EventTaskCreated:
		return true
	}
	return false
}

// Event is one notification on the bus. Only the fields relevant to Type
// are set.
type Event struct {
	Type EventType `json:"type"`
	At   time.Time `json:"at"`

	TaskID  string `json:"task_id,omitempty"`
	Content string `json:"content,omitempty"`
	Path    string `json:"path,omitempty"`
	Error   string `json:"error,omitempty"`

	Sync *SyncPayload `json:"sync,omitempty"`
}

// SyncPayload describes a finished sync.
type SyncPayload struct {
	Projects      int           `json:"projects"`
	Sections      int           `json:"sections"`
	Labels        int           `json:"labels"`
	Subscriptions int           `json:"subscriptions"`
	Duration      time.Duration `json:"duration"`
}

// Result aggregates what handlers want surfaced to the user.
type Result struct {
	Notices  []string `json:"notices,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}
