// Package adapter keeps the Todoist metadata caches and the registry of live
// query subscriptions.
//
// An Adapter owns one API client handle. Sync refreshes the project, section
// and label repositories in that order and then re-runs every subscription's
// fetch. Subscriptions hydrate raw tasks against the repositories, so a
// rendered task always carries its project, section and labels.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"

	"github.com/steveyegge/todoq/internal/eventbus"
	"github.com/steveyegge/todoq/internal/i18n"
	"github.com/steveyegge/todoq/internal/repository"
	"github.com/steveyegge/todoq/internal/storage"
	"github.com/steveyegge/todoq/internal/telemetry"
	"github.com/steveyegge/todoq/internal/todoist"
	"github.com/steveyegge/todoq/internal/types"
)

// ErrNotReady is returned when an operation needs the API client before
// Initialize has installed one.
var ErrNotReady = errors.New("adapter: not initialized")

// Client is the subset of *todoist.Client the adapter uses.
type Client interface {
	GetTasks(ctx context.Context, filter string) ([]todoist.Task, error)
	GetProjects(ctx context.Context) (repository.Delta[types.Project], error)
	GetSections(ctx context.Context) (repository.Delta[types.Section], error)
	GetLabels(ctx context.Context) (repository.Delta[types.Label], error)
	CreateTask(ctx context.Context, content string, params todoist.CreateTaskParams) (*todoist.Task, error)
	CloseTask(ctx context.Context, id string) error
}

// SyncTokenKeeper is implemented by clients that sync metadata
// incrementally. The adapter persists the tokens next to the metadata
// snapshot so a warm start resumes where the last run stopped.
type SyncTokenKeeper interface {
	SyncTokens() map[string]string
	RestoreSyncTokens(tokens map[string]string)
	ResetSyncTokens()
}

const instrumentationName = "github.com/steveyegge/todoq/adapter"

var adapterMetrics struct {
	syncs   metric.Int64Counter
	errors  metric.Int64Counter
	updates metric.Int64Counter
}

var adapterMetricsOnce sync.Once

func initAdapterMetrics() {
	m := telemetry.Meter(instrumentationName)
	adapterMetrics.syncs, _ = m.Int64Counter("todoq.sync.count",
		metric.WithDescription("Completed adapter syncs"),
		metric.WithUnit("{sync}"),
	)
	adapterMetrics.errors, _ = m.Int64Counter("todoq.sync.errors",
		metric.WithDescription("Adapter syncs aborted by a metadata fetch failure"),
		metric.WithUnit("{sync}"),
	)
	adapterMetrics.updates, _ = m.Int64Counter("todoq.subscription.updates",
		metric.WithDescription("Subscription fetches applied, by resulting state"),
		metric.WithUnit("{update}"),
	)
}

// Options configure an Adapter. Every field is optional.
type Options struct {
	Logger       *slog.Logger
	Translations *i18n.Translations
	Bus          *eventbus.Bus
	Snapshots    storage.SnapshotStore
	// Location is used to read due times without an offset and to compute
	// calendar days. Defaults to time.Local.
	Location *time.Location
	Now      func() time.Time
	// Account identifies the API token in use. A snapshot saved under a
	// different account is ignored on warm start.
	Account string
}

// Data is the read-only view of the metadata caches.
type Data struct {
	Projects repository.Reader[types.ProjectID, types.Project]
	Sections repository.Reader[types.SectionID, types.Section]
	Labels   repository.Reader[types.LabelID, types.Label]
}

// Adapter is safe for concurrent use.
type Adapter struct {
	logger    *slog.Logger
	t         *i18n.Translations
	bus       *eventbus.Bus
	snapshots storage.SnapshotStore
	loc       *time.Location
	now       func() time.Time
	account   string

	mu     sync.RWMutex
	client Client
	synced bool

	projects *repository.Repository[types.ProjectID, types.Project]
	sections *repository.Repository[types.SectionID, types.Section]
	labels   *repository.Repository[types.LabelID, types.Label]

	subsMu     sync.Mutex
	subs       map[uint64]*Subscription
	nextHandle uint64

	pendingMu sync.Mutex
	pending   map[types.TaskID]struct{}

	syncGroup singleflight.Group
}

// New creates an adapter with no API client. It is not ready until
// Initialize succeeds.
func New(opts Options) *Adapter {
	adapterMetricsOnce.Do(initAdapterMetrics)

	a := &Adapter{
		logger:    opts.Logger,
		t:         opts.Translations,
		bus:       opts.Bus,
		snapshots: opts.Snapshots,
		loc:       opts.Location,
		now:       opts.Now,
		account:   opts.Account,
		subs:      make(map[uint64]*Subscription),
		pending:   make(map[types.TaskID]struct{}),
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.t == nil {
		a.t = i18n.English()
	}
	if a.loc == nil {
		a.loc = time.Local
	}
	if a.now == nil {
		a.now = time.Now
	}

	a.projects = repository.New[types.ProjectID, types.Project](func(ctx context.Context) (repository.Delta[types.Project], error) {
		c := a.apiClient()
		if c == nil {
			return repository.Delta[types.Project]{}, ErrNotReady
		}
		return c.GetProjects(ctx)
	})
	a.sections = repository.New[types.SectionID, types.Section](func(ctx context.Context) (repository.Delta[types.Section], error) {
		c := a.apiClient()
		if c == nil {
			return repository.Delta[types.Section]{}, ErrNotReady
		}
		return c.GetSections(ctx)
	})
	a.labels = repository.New[types.LabelID, types.Label](func(ctx context.Context) (repository.Delta[types.Label], error) {
		c := a.apiClient()
		if c == nil {
			return repository.Delta[types.Label]{}, ErrNotReady
		}
		return c.GetLabels(ctx)
	})
	return a
}

func (a *Adapter) apiClient() Client {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.client
}

// IsReady reports whether a client is installed and one sync has completed.
func (a *Adapter) IsReady() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.client != nil && a.synced
}

// Initialize installs the API client, restores cached metadata from the
// snapshot store if one is configured, and performs the first Sync.
func (a *Adapter) Initialize(ctx context.Context, client Client) error {
	if client == nil {
		return errors.New("adapter: nil client")
	}
	a.mu.Lock()
	a.client = client
	a.synced = false
	a.mu.Unlock()

	a.warmStart(ctx, client)
	return a.Sync(ctx)
}

func (a *Adapter) warmStart(ctx context.Context, client Client) {
	if a.snapshots == nil {
		return
	}
	snap, err := a.snapshots.Load(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return
	}
	if err != nil {
		a.logger.Warn("adapter: failed to load metadata snapshot", "error", err)
		return
	}
	if snap.Account != a.account {
		a.logger.Debug("adapter: ignoring metadata snapshot from another account")
		return
	}
	a.projects.Replace(snap.Projects)
	a.sections.Replace(snap.Sections)
	a.labels.Replace(snap.Labels)
	if keeper, ok := client.(SyncTokenKeeper); ok && len(snap.SyncTokens) > 0 {
		keeper.RestoreSyncTokens(snap.SyncTokens)
	}
	a.logger.Debug("adapter: restored metadata snapshot",
		"projects", len(snap.Projects),
		"sections", len(snap.Sections),
		"labels", len(snap.Labels),
		"saved_at", snap.SavedAt,
	)
}

// Sync refreshes projects, sections and labels, then updates every
// subscription in registration order. It does nothing before Initialize.
//
// At most one sync runs at a time. Callers arriving while one is in flight
// wait for it and share its result.
func (a *Adapter) Sync(ctx context.Context) error {
	if a.apiClient() == nil {
		return nil
	}
	_, err, shared := a.syncGroup.Do("sync", func() (any, error) {
		return nil, a.sync(ctx)
	})
	if shared {
		a.logger.Debug("adapter: joined in-flight sync")
	}
	return err
}

func (a *Adapter) sync(ctx context.Context) error {
	start := a.now()
	ctx, span := telemetry.Tracer(instrumentationName).Start(ctx, "adapter.sync")
	defer span.End()

	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"projects", a.projects.Sync},
		{"sections", a.sections.Sync},
		{"labels", a.labels.Sync},
	}
	for _, step := range steps {
		err := step.run(ctx)
		if err != nil && a.resetRejectedTokens(step.name, err) {
			err = step.run(ctx)
		}
		if err != nil {
			err = fmt.Errorf("failed to sync %s: %w", step.name, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			adapterMetrics.errors.Add(ctx, 1, metric.WithAttributes(attribute.String("todoq.resource", step.name)))
			a.publish(ctx, &eventbus.Event{Type: eventbus.EventSyncFailed, Error: err.Error()})
			return err
		}
	}

	subs := a.subscriptions()
	for _, s := range subs {
		s.Update(ctx)
	}

	a.mu.Lock()
	a.synced = true
	a.mu.Unlock()

	a.persist(ctx)

	payload := &eventbus.SyncPayload{
		Projects:      a.projects.Len(),
		Sections:      a.sections.Len(),
		Labels:        a.labels.Len(),
		Subscriptions: len(subs),
		Duration:      a.now().Sub(start),
	}
	span.SetAttributes(
		attribute.Int("todoq.projects", payload.Projects),
		attribute.Int("todoq.subscriptions", payload.Subscriptions),
	)
	adapterMetrics.syncs.Add(ctx, 1)
	a.publish(ctx, &eventbus.Event{Type: eventbus.EventSyncCompleted, Sync: payload})
	return nil
}

// resetRejectedTokens handles a 400 on an incremental metadata read: the
// stored sync token is unknown to the server, so every token is dropped and
// the caller retries once as a full sync. It reports whether a retry is due.
func (a *Adapter) resetRejectedTokens(resource string, err error) bool {
	if todoist.StatusCode(err) != http.StatusBadRequest {
		return false
	}
	keeper, ok := a.apiClient().(SyncTokenKeeper)
	if !ok {
		return false
	}
	if token := keeper.SyncTokens()[resource]; token == "" || token == "*" {
		return false
	}
	a.logger.Warn("adapter: sync token rejected, running a full sync", "resource", resource)
	keeper.ResetSyncTokens()
	return true
}

// persist saves the metadata caches. Failures only cost the next warm start,
// so they are logged rather than returned.
func (a *Adapter) persist(ctx context.Context) {
	if a.snapshots == nil {
		return
	}
	snap := &storage.Snapshot{
		Projects: a.projects.Snapshot(),
		Sections: a.sections.Snapshot(),
		Labels:   a.labels.Snapshot(),
		Account:  a.account,
		SavedAt:  a.now(),
	}
	if keeper, ok := a.apiClient().(SyncTokenKeeper); ok {
		snap.SyncTokens = keeper.SyncTokens()
	}
	if err := a.snapshots.Save(ctx, snap); err != nil {
		a.logger.Warn("adapter: failed to save metadata snapshot", "error", err)
	}
}

// Data returns read-only views of the metadata caches.
func (a *Adapter) Data() Data {
	return Data{
		Projects: a.projects,
		Sections: a.sections,
		Labels:   a.labels,
	}
}

// Subscribe registers a live query for filter. Nothing is fetched until the
// returned refresh is called or the next Sync runs. Subscribing the same
// filter twice creates two independent subscriptions. unsubscribe may be
// called any number of times.
func (a *Adapter) Subscribe(filter string, cb Callback) (unsubscribe func(), refresh func(ctx context.Context)) {
	sub := newSubscription(func(ctx context.Context) ([]types.Task, error) {
		return a.fetchTasks(ctx, filter)
	}, a.visible, cb)
	sub.onUpdate = func(ctx context.Context, s State) {
		adapterMetrics.updates.Add(ctx, 1, metric.WithAttributes(attribute.String("todoq.state", s.String())))
	}

	a.subsMu.Lock()
	handle := a.nextHandle
	a.nextHandle++
	a.subs[handle] = sub
	a.subsMu.Unlock()

	var once sync.Once
	unsubscribe = func() {
		once.Do(func() {
			a.subsMu.Lock()
			delete(a.subs, handle)
			a.subsMu.Unlock()
		})
	}
	refresh = func(ctx context.Context) {
		sub.Update(ctx)
	}
	return unsubscribe, refresh
}

// subscriptions returns the live subscriptions in registration order.
func (a *Adapter) subscriptions() []*Subscription {
	a.subsMu.Lock()
	defer a.subsMu.Unlock()
	out := make([]*Subscription, 0, len(a.subs))
	for _, h := range slices.Sorted(maps.Keys(a.subs)) {
		out = append(out, a.subs[h])
	}
	return out
}

func (a *Adapter) fetchTasks(ctx context.Context, filter string) ([]types.Task, error) {
	c := a.apiClient()
	if c == nil {
		return nil, ErrNotReady
	}
	raw, err := c.GetTasks(ctx, filter)
	if err != nil {
		return nil, err
	}
	tasks := make([]types.Task, 0, len(raw))
	for i := range raw {
		tasks = append(tasks, a.hydrate(&raw[i]))
	}
	return tasks, nil
}

func (a *Adapter) visible(t types.Task) bool {
	return !a.Pending(t.ID)
}

func (a *Adapter) publish(ctx context.Context, event *eventbus.Event) {
	if a.bus == nil {
		return
	}
	if event.At.IsZero() {
		event.At = a.now()
	}
	if _, err := a.bus.Dispatch(ctx, event); err != nil {
		a.logger.Debug("adapter: event not delivered", "event", event.Type, "error", err)
	}
}
