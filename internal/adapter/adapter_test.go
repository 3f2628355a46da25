package adapter

import (
	"context"
	"errors"
	"io"
	"maps"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/todoq/internal/eventbus"
	"github.com/steveyegge/todoq/internal/i18n"
	"github.com/steveyegge/todoq/internal/repository"
	"github.com/steveyegge/todoq/internal/storage"
	"github.com/steveyegge/todoq/internal/storage/memory"
	"github.com/steveyegge/todoq/internal/todoist"
	"github.com/steveyegge/todoq/internal/types"
)

type fakeClient struct {
	mu sync.Mutex

	tasks    map[string][]todoist.Task
	tasksErr error

	projects    []types.Project
	sections    []types.Section
	labels      []types.Label
	projectsErr error
	sectionsErr error
	labelsErr   error

	closeErr  error
	closeHook func(id string)

	calls   []string
	created []string
	tokens  map[string]string
}

func newFakeClient() *fakeClient {
	return &fakeClient{tasks: make(map[string][]todoist.Task)}
}

func (f *fakeClient) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeClient) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeClient) GetTasks(ctx context.Context, filter string) ([]todoist.Task, error) {
	f.record("tasks:" + filter)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tasksErr != nil {
		return nil, f.tasksErr
	}
	return append([]todoist.Task(nil), f.tasks[filter]...), nil
}

func (f *fakeClient) GetProjects(ctx context.Context) (repository.Delta[types.Project], error) {
	f.record("projects")
	return repository.Delta[types.Project]{Items: f.projects, Full: true}, f.projectsErr
}

func (f *fakeClient) GetSections(ctx context.Context) (repository.Delta[types.Section], error) {
	f.record("sections")
	return repository.Delta[types.Section]{Items: f.sections, Full: true}, f.sectionsErr
}

func (f *fakeClient) GetLabels(ctx context.Context) (repository.Delta[types.Label], error) {
	f.record("labels")
	return repository.Delta[types.Label]{Items: f.labels, Full: true}, f.labelsErr
}

func (f *fakeClient) CreateTask(ctx context.Context, content string, params todoist.CreateTaskParams) (*todoist.Task, error) {
	f.record("create")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, content)
	return &todoist.Task{ID: "new", Content: content, ProjectID: params.ProjectID, Priority: 1}, nil
}

func (f *fakeClient) CloseTask(ctx context.Context, id string) error {
	f.record("close:" + id)
	if f.closeHook != nil {
		f.closeHook(id)
	}
	return f.closeErr
}

func (f *fakeClient) SyncTokens() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return maps.Clone(f.tokens)
}

func (f *fakeClient) RestoreSyncTokens(tokens map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = maps.Clone(tokens)
}

func (f *fakeClient) ResetSyncTokens() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = nil
}

// recorder collects callback results.
type recorder struct {
	mu      sync.Mutex
	results []Result
}

func (r *recorder) callback(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

func (r *recorder) last(t *testing.T) Result {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.results, "callback never fired")
	return r.results[len(r.results)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

func taskIDs(tasks []types.Task) []types.TaskID {
	ids := make([]types.TaskID, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	return ids
}

func strPtr(s string) *string { return &s }

func seededClient() *fakeClient {
	c := newFakeClient()
	c.projects = []types.Project{{ID: "p1", Name: "Work", ChildOrder: 1}}
	c.sections = []types.Section{{ID: "s1", Name: "Next", ProjectID: "p1"}}
	c.labels = []types.Label{{ID: "l1", Name: "errand"}}
	c.tasks["today"] = []todoist.Task{
		{ID: "1", ProjectID: "p1", Content: "one", Priority: 4},
		{ID: "2", ProjectID: "p1", Content: "two", Priority: 1},
		{ID: "3", ProjectID: "p1", Content: "three", Priority: 2},
	}
	return c
}

func TestAdapterReadiness(t *testing.T) {
	a := New(Options{})
	assert.False(t, a.IsReady())

	// Sync before Initialize does nothing.
	require.NoError(t, a.Sync(context.Background()))
	assert.False(t, a.IsReady())

	c := seededClient()
	require.NoError(t, a.Initialize(context.Background(), c))
	assert.True(t, a.IsReady())
	assert.Equal(t, []string{"projects", "sections", "labels"}, c.Calls())
	assert.Equal(t, 1, a.Data().Projects.Len())
}

func TestAdapterInitializeFailure(t *testing.T) {
	c := seededClient()
	c.projectsErr = &todoist.APIError{StatusCode: 401}

	a := New(Options{})
	err := a.Initialize(context.Background(), c)
	require.Error(t, err)
	assert.Equal(t, 401, todoist.StatusCode(err))
	assert.False(t, a.IsReady(), "client installed but never synced")
}

func TestSyncAbortsOnFirstFailure(t *testing.T) {
	c := seededClient()
	a := New(Options{})
	require.NoError(t, a.Initialize(context.Background(), c))

	c.projects = append(c.projects, types.Project{ID: "p2", Name: "Home", ChildOrder: 2})
	c.labels = nil
	c.sectionsErr = errors.New("network down")

	rec := &recorder{}
	_, _ = a.Subscribe("today", rec.callback)

	err := a.Sync(context.Background())
	require.ErrorContains(t, err, "failed to sync sections")
	assert.Equal(t, 1, strings.Count(err.Error(), "failed to sync"))

	d := a.Data()
	assert.Equal(t, 2, d.Projects.Len(), "projects keep the new state")
	_, ok := d.Labels.ByName("errand")
	assert.True(t, ok, "labels untouched after the abort")
	assert.Zero(t, rec.count(), "subscriptions not updated after an abort")
}

func TestSyncUpdatesSubscriptionsInOrder(t *testing.T) {
	c := seededClient()
	c.tasks["tomorrow"] = nil
	a := New(Options{})
	require.NoError(t, a.Initialize(context.Background(), c))

	var order []string
	var mu sync.Mutex
	sub := func(name string) Callback {
		return func(Result) {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
		}
	}
	_, _ = a.Subscribe("today", sub("first"))
	_, _ = a.Subscribe("tomorrow", sub("second"))
	_, _ = a.Subscribe("today", sub("third"))

	require.NoError(t, a.Sync(context.Background()))
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestSubscribeTriggersNothing(t *testing.T) {
	c := seededClient()
	a := New(Options{})
	require.NoError(t, a.Initialize(context.Background(), c))
	before := len(c.Calls())

	rec := &recorder{}
	_, refresh := a.Subscribe("today", rec.callback)
	assert.Len(t, c.Calls(), before)
	assert.Zero(t, rec.count())

	refresh(context.Background())
	res := rec.last(t)
	assert.Equal(t, StateSuccess, res.State)
	assert.Equal(t, []types.TaskID{"1", "2", "3"}, taskIDs(res.Tasks))
}

func TestSubscriptionNotReady(t *testing.T) {
	a := New(Options{})
	rec := &recorder{}
	_, refresh := a.Subscribe("today", rec.callback)
	refresh(context.Background())
	assert.Equal(t, StateNotReady, rec.last(t).State)
}

func TestSubscriptionInitialState(t *testing.T) {
	sub := newSubscription(nil, nil, nil)
	res := sub.Current()
	assert.Equal(t, StateSuccess, res.State)
	assert.Empty(t, res.Tasks)
}

func TestSubscriptionErrorClassification(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{&todoist.APIError{StatusCode: 400}, ErrorBadRequest},
		{&todoist.APIError{StatusCode: 401}, ErrorUnauthorized},
		{&todoist.APIError{StatusCode: 403}, ErrorForbidden},
		{&todoist.APIError{StatusCode: 500}, ErrorServerError},
		{&todoist.APIError{StatusCode: 503}, ErrorServerError},
		{&todoist.APIError{StatusCode: 404}, ErrorUnknown},
		{&todoist.APIError{StatusCode: 429}, ErrorUnknown},
		{errors.New("connection refused"), ErrorUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			c := seededClient()
			a := New(Options{})
			require.NoError(t, a.Initialize(context.Background(), c))

			rec := &recorder{}
			_, refresh := a.Subscribe("today", rec.callback)
			refresh(context.Background())
			require.Len(t, rec.last(t).Tasks, 3)

			c.tasksErr = tt.err
			refresh(context.Background())
			res := rec.last(t)
			assert.Equal(t, StateError, res.State)
			assert.Equal(t, tt.want, res.Error)
			assert.Empty(t, res.Tasks, "stale tasks are not shown with an error")
			assert.ErrorIs(t, res.Cause, tt.err)
		})
	}
}

func TestErrorKindMessage(t *testing.T) {
	tr := i18n.English()
	assert.Equal(t, tr.Errors.Unauthorized, ErrorUnauthorized.Message(tr))
	assert.Equal(t, tr.Errors.Unknown, ErrorUnknown.Message(tr))
}

func TestUnsubscribe(t *testing.T) {
	c := seededClient()
	a := New(Options{})
	require.NoError(t, a.Initialize(context.Background(), c))

	rec := &recorder{}
	unsubscribe, _ := a.Subscribe("today", rec.callback)
	require.NoError(t, a.Sync(context.Background()))
	require.Equal(t, 1, rec.count())

	unsubscribe()
	unsubscribe()
	require.NoError(t, a.Sync(context.Background()))
	assert.Equal(t, 1, rec.count(), "no updates after unsubscribe")
}

func TestHydrationPlaceholders(t *testing.T) {
	c := seededClient()
	c.tasks["mixed"] = []todoist.Task{
		{
			ID: "10", ProjectID: "p1", SectionID: strPtr("s1"), ParentID: strPtr("9"),
			Content: "known", Labels: []string{"errand"}, Priority: 3,
			CreatedAt: "2024-01-01T09:00:00.000000Z",
			Due:       &todoist.Due{Date: "2024-01-02", String: "tomorrow"},
		},
		{
			ID: "11", ProjectID: "gone", SectionID: strPtr("gone-section"),
			Content: "dangling", Labels: []string{"mystery"},
		},
	}
	a := New(Options{Location: time.UTC})
	require.NoError(t, a.Initialize(context.Background(), c))

	rec := &recorder{}
	_, refresh := a.Subscribe("mixed", rec.callback)
	refresh(context.Background())
	tasks := rec.last(t).Tasks
	require.Len(t, tasks, 2)

	known := tasks[0]
	assert.Equal(t, "Work", known.Project.Name)
	require.NotNil(t, known.Section)
	assert.Equal(t, "Next", known.Section.Name)
	require.NotNil(t, known.ParentID)
	assert.Equal(t, types.TaskID("9"), *known.ParentID)
	require.Len(t, known.Labels, 1)
	assert.Equal(t, types.LabelID("l1"), known.Labels[0].ID)
	assert.Equal(t, types.Priority(3), known.Priority)
	assert.Equal(t, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), known.CreatedAt)
	require.NotNil(t, known.Due)
	assert.Equal(t, "2024-01-02", known.Due.Date.String())

	dangling := tasks[1]
	assert.Equal(t, "Unknown project", dangling.Project.Name)
	assert.Equal(t, types.ProjectID("gone"), dangling.Project.ID)
	require.NotNil(t, dangling.Section)
	assert.Equal(t, "Unknown section", dangling.Section.Name)
	require.Len(t, dangling.Labels, 1)
	assert.Equal(t, "mystery", dangling.Labels[0].Name)
	assert.Equal(t, types.UnknownLabelID, dangling.Labels[0].ID)
}

func TestHydrationUsesTranslations(t *testing.T) {
	c := seededClient()
	c.tasks["x"] = []todoist.Task{{ID: "1", ProjectID: "nope"}}
	a := New(Options{Translations: i18n.German()})
	require.NoError(t, a.Initialize(context.Background(), c))

	rec := &recorder{}
	_, refresh := a.Subscribe("x", rec.callback)
	refresh(context.Background())
	assert.Equal(t, i18n.German().Placeholders.UnknownProject, rec.last(t).Tasks[0].Project.Name)
}

func TestCloseTaskSuccess(t *testing.T) {
	c := seededClient()
	bus := eventbus.New()
	var events []eventbus.EventType
	bus.Register(&eventbus.FuncHandler{
		Name:  "record",
		Types: []eventbus.EventType{eventbus.EventTaskClosed, eventbus.EventTaskCloseFailed},
		Fn: func(ctx context.Context, e *eventbus.Event, r *eventbus.Result) error {
			events = append(events, e.Type)
			return nil
		},
	})
	a := New(Options{Bus: bus})
	require.NoError(t, a.Initialize(context.Background(), c))

	rec := &recorder{}
	_, refresh := a.Subscribe("today", rec.callback)
	refresh(context.Background())

	var duringCall []types.TaskID
	c.closeHook = func(id string) {
		duringCall = taskIDs(rec.last(t).Tasks)
		assert.True(t, a.Pending(types.TaskID(id)))
	}

	require.NoError(t, a.Actions().CloseTask(context.Background(), "2"))
	assert.Equal(t, []types.TaskID{"1", "3"}, duringCall, "hidden while the close is pending")
	assert.Equal(t, []types.TaskID{"1", "3"}, taskIDs(rec.last(t).Tasks))
	assert.False(t, a.Pending("2"))
	assert.Equal(t, []eventbus.EventType{eventbus.EventTaskClosed}, events)
}

func TestCloseTaskRejectsDuplicate(t *testing.T) {
	c := seededClient()
	a := New(Options{})
	require.NoError(t, a.Initialize(context.Background(), c))

	var nested error
	c.closeHook = func(id string) {
		nested = a.Actions().CloseTask(context.Background(), types.TaskID(id))
	}
	require.NoError(t, a.Actions().CloseTask(context.Background(), "2"))
	assert.ErrorIs(t, nested, ErrClosePending)

	c.closeHook = nil
	assert.NoError(t, a.Actions().CloseTask(context.Background(), "2"), "claim released after the first close")
}

func TestCloseTaskRollback(t *testing.T) {
	c := seededClient()
	a := New(Options{})
	require.NoError(t, a.Initialize(context.Background(), c))

	rec := &recorder{}
	_, refresh := a.Subscribe("today", rec.callback)
	refresh(context.Background())
	before := rec.last(t).Tasks

	c.closeErr = &todoist.APIError{StatusCode: 500}
	err := a.Actions().CloseTask(context.Background(), "2")
	require.Error(t, err)
	assert.Equal(t, 500, todoist.StatusCode(err))

	assert.Equal(t, before, rec.last(t).Tasks, "task reappears after a failed close")
	assert.False(t, a.Pending("2"))
}

func TestCloseTaskSkipsErroredSubscriptions(t *testing.T) {
	c := seededClient()
	a := New(Options{})
	require.NoError(t, a.Initialize(context.Background(), c))

	c.tasksErr = &todoist.APIError{StatusCode: 403}
	rec := &recorder{}
	_, refresh := a.Subscribe("today", rec.callback)
	refresh(context.Background())

	require.NoError(t, a.Actions().CloseTask(context.Background(), "1"))
	res := rec.last(t)
	assert.Equal(t, StateError, res.State)
	assert.Equal(t, ErrorForbidden, res.Error)
}

func TestCloseTaskNotReady(t *testing.T) {
	a := New(Options{})
	assert.ErrorIs(t, a.Actions().CloseTask(context.Background(), "1"), ErrNotReady)
}

func TestCreateTaskPassThrough(t *testing.T) {
	c := seededClient()
	bus := eventbus.New()
	var created string
	bus.Register(&eventbus.FuncHandler{
		Name:  "record",
		Types: []eventbus.EventType{eventbus.EventTaskCreated},
		Fn: func(ctx context.Context, e *eventbus.Event, r *eventbus.Result) error {
			created = e.Content
			return nil
		},
	})
	a := New(Options{Bus: bus})
	require.NoError(t, a.Initialize(context.Background(), c))

	rec := &recorder{}
	_, refresh := a.Subscribe("today", rec.callback)
	refresh(context.Background())
	calls := rec.count()

	task, err := a.Actions().CreateTask(context.Background(), "buy milk", todoist.CreateTaskParams{ProjectID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, "Work", task.Project.Name)
	assert.Equal(t, "buy milk", created)
	assert.Equal(t, calls, rec.count(), "no local insertion into subscriptions")
}

func TestSubscriptionLatestStartedUpdateWins(t *testing.T) {
	release := make(chan struct{})
	var call atomic.Int32
	fetch := func(ctx context.Context) ([]types.Task, error) {
		if call.Add(1) == 1 {
			<-release
			return []types.Task{{ID: "old"}}, nil
		}
		return []types.Task{{ID: "new"}}, nil
	}
	rec := &recorder{}
	sub := newSubscription(fetch, nil, rec.callback)

	done := make(chan bool)
	go func() { done <- sub.Update(context.Background()) }()
	require.Eventually(t, func() bool { return call.Load() == 1 }, time.Second, time.Millisecond)

	assert.True(t, sub.Update(context.Background()))
	close(release)
	assert.False(t, <-done, "older fetch is dropped")

	assert.Equal(t, []types.TaskID{"new"}, taskIDs(sub.Current().Tasks))
	assert.Equal(t, 1, rec.count())
}

func TestSubscriptionCallbacksFollowCommitOrder(t *testing.T) {
	var call atomic.Int32
	fetch := func(ctx context.Context) ([]types.Task, error) {
		if call.Add(1) == 1 {
			return []types.Task{{ID: "old"}}, nil
		}
		return []types.Task{{ID: "new"}}, nil
	}
	var mu sync.Mutex
	var delivered [][]types.TaskID
	sub := newSubscription(fetch, nil, func(r Result) {
		mu.Lock()
		defer mu.Unlock()
		delivered = append(delivered, taskIDs(r.Tasks))
	})

	// The first Update commits its result, then stalls before its callback
	// while a second Update runs start to finish.
	committed := make(chan struct{})
	release := make(chan struct{})
	var stalls atomic.Int32
	sub.onUpdate = func(ctx context.Context, s State) {
		if stalls.Add(1) == 1 {
			close(committed)
			<-release
		}
	}

	done := make(chan struct{})
	go func() {
		sub.Update(context.Background())
		close(done)
	}()
	<-committed
	require.True(t, sub.Update(context.Background()))
	close(release)
	<-done

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, [][]types.TaskID{{"new"}}, delivered, "stale result delivered after a newer one")
	assert.Equal(t, []types.TaskID{"new"}, taskIDs(sub.Current().Tasks))
}

func TestSubscriptionRerenderRepeatsCurrent(t *testing.T) {
	fetch := func(ctx context.Context) ([]types.Task, error) {
		return []types.Task{{ID: "a"}}, nil
	}
	rec := &recorder{}
	sub := newSubscription(fetch, nil, rec.callback)
	sub.Update(context.Background())
	sub.Rerender()
	assert.Equal(t, 2, rec.count())
}

func TestSubscriptionRemoveAndFilter(t *testing.T) {
	hidden := types.TaskID("b")
	fetch := func(ctx context.Context) ([]types.Task, error) {
		return []types.Task{{ID: "a"}, {ID: "b"}, {ID: "c"}}, nil
	}
	rec := &recorder{}
	sub := newSubscription(fetch, func(t types.Task) bool { return t.ID != hidden }, rec.callback)
	sub.Update(context.Background())
	assert.Equal(t, []types.TaskID{"a", "c"}, taskIDs(rec.last(t).Tasks))

	// The predicate does not discard stored state.
	hidden = ""
	sub.Rerender()
	assert.Equal(t, []types.TaskID{"a", "b", "c"}, taskIDs(rec.last(t).Tasks))

	sub.Remove("a")
	assert.Equal(t, []types.TaskID{"b", "c"}, taskIDs(rec.last(t).Tasks))
}

func TestConcurrentSyncIsCoalesced(t *testing.T) {
	c := seededClient()
	a := New(Options{})
	require.NoError(t, a.Initialize(context.Background(), c))

	gate := make(chan struct{})
	var running atomic.Int32
	var subCalls atomic.Int32
	_, _ = a.Subscribe("today", func(Result) {
		subCalls.Add(1)
		running.Add(1)
		<-gate
	})

	var wg sync.WaitGroup
	errs := make(chan error, 3)
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- a.Sync(context.Background())
		}()
	}
	require.Eventually(t, func() bool { return running.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), subCalls.Load(), "one sync ran for all callers")
}

func TestWarmStartAndPersist(t *testing.T) {
	snaps := memory.New()
	require.NoError(t, snaps.Save(context.Background(), &storage.Snapshot{
		Projects:   []types.Project{{ID: "cached", Name: "Cached"}},
		SyncTokens: map[string]string{todoist.ResourceProjects: "tok-1"},
	}))
	c := seededClient()
	c.projectsErr = errors.New("offline")

	a := New(Options{Snapshots: snaps})
	require.Error(t, a.Initialize(context.Background(), c))

	p, ok := a.Data().Projects.ByID("cached")
	require.True(t, ok, "snapshot restored before the first sync")
	assert.Equal(t, "Cached", p.Name)
	assert.Equal(t, "tok-1", c.SyncTokens()[todoist.ResourceProjects])
	assert.Equal(t, 1, snaps.Saves(), "nothing saved after a failed sync")

	c.projectsErr = nil
	c.tokens = map[string]string{todoist.ResourceProjects: "tok-2"}
	require.NoError(t, a.Sync(context.Background()))
	require.Equal(t, 2, snaps.Saves())
	saved, err := snaps.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", saved.SyncTokens[todoist.ResourceProjects])
	assert.Len(t, saved.Projects, 1)
	assert.Equal(t, types.ProjectID("p1"), saved.Projects[0].ID)
}

func TestWarmStartSkipsOtherAccount(t *testing.T) {
	snaps := memory.New()
	require.NoError(t, snaps.Save(context.Background(), &storage.Snapshot{
		Projects:   []types.Project{{ID: "theirs", Name: "Other account project"}},
		SyncTokens: map[string]string{todoist.ResourceProjects: "their-token"},
		Account:    "acct-a",
	}))
	c := seededClient()
	c.projectsErr = errors.New("offline")

	a := New(Options{Snapshots: snaps, Account: "acct-b"})
	require.Error(t, a.Initialize(context.Background(), c))

	_, ok := a.Data().Projects.ByID("theirs")
	assert.False(t, ok, "snapshot of another account restored")
	assert.Empty(t, c.SyncTokens())

	c.projectsErr = nil
	require.NoError(t, a.Sync(context.Background()))
	saved, err := snaps.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "acct-b", saved.Account)
}

// syncServer answers Sync API reads, rejecting every incremental token.
func syncServer(t *testing.T, fullSyncs *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		if r.PostForm.Get("sync_token") != "*" {
			http.Error(w, `{"error":"Invalid sync token"}`, http.StatusBadRequest)
			return
		}
		fullSyncs.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"full_sync":true,"sync_token":"fresh",`+
			`"projects":[{"id":"mine","name":"My project"}],"sections":[],"labels":[]}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSyncRecoversFromRejectedToken(t *testing.T) {
	var fullSyncs atomic.Int32
	srv := syncServer(t, &fullSyncs)

	snaps := memory.New()
	require.NoError(t, snaps.Save(context.Background(), &storage.Snapshot{
		Projects: []types.Project{{ID: "stale", Name: "Other account project"}},
		SyncTokens: map[string]string{
			todoist.ResourceProjects: "foreign",
			todoist.ResourceSections: "foreign",
			todoist.ResourceLabels:   "foreign",
		},
	}))

	client := todoist.NewClient(srv.URL, "token")
	a := New(Options{Snapshots: snaps})
	require.NoError(t, a.Initialize(context.Background(), client))

	assert.True(t, a.IsReady())
	_, ok := a.Data().Projects.ByID("stale")
	assert.False(t, ok, "full sync should drop projects the server no longer reports")
	p, ok := a.Data().Projects.ByID("mine")
	require.True(t, ok)
	assert.Equal(t, "My project", p.Name)
	assert.Equal(t, int32(3), fullSyncs.Load(), "one full read per resource")

	saved, err := snaps.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", saved.SyncTokens[todoist.ResourceProjects])

	// Tokens issued by the server are incremental again and get rejected by
	// this server too, so the next sync recovers the same way.
	require.NoError(t, a.Sync(context.Background()))
	assert.Equal(t, int32(6), fullSyncs.Load())
}

func TestSyncDoesNotRetryFullSyncFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	a := New(Options{})
	err := a.Initialize(context.Background(), todoist.NewClient(srv.URL, "token"))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, todoist.StatusCode(err))
	assert.False(t, a.IsReady())
}

func TestSyncPublishesEvents(t *testing.T) {
	bus := eventbus.New()
	var got []*eventbus.Event
	bus.Register(&eventbus.FuncHandler{
		Name:  "record",
		Types: []eventbus.EventType{eventbus.EventSyncCompleted, eventbus.EventSyncFailed},
		Fn: func(ctx context.Context, e *eventbus.Event, r *eventbus.Result) error {
			got = append(got, e)
			return nil
		},
	})
	c := seededClient()
	a := New(Options{Bus: bus})
	require.NoError(t, a.Initialize(context.Background(), c))

	c.labelsErr = errors.New("boom")
	require.Error(t, a.Sync(context.Background()))

	require.Len(t, got, 2)
	assert.Equal(t, eventbus.EventSyncCompleted, got[0].Type)
	require.NotNil(t, got[0].Sync)
	assert.Equal(t, 1, got[0].Sync.Labels)
	assert.Equal(t, eventbus.EventSyncFailed, got[1].Type)
	assert.Contains(t, got[1].Error, "labels")
}

func TestRunAutoRefresh(t *testing.T) {
	c := seededClient()
	a := New(Options{})
	require.NoError(t, a.Initialize(context.Background(), c))

	var syncs atomic.Int32
	_, _ = a.Subscribe("today", func(Result) { syncs.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.RunAutoRefresh(ctx, 5*time.Millisecond)
		close(done)
	}()
	require.Eventually(t, func() bool { return syncs.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunAutoRefresh did not stop after cancel")
	}
}

func TestProjectHierarchy(t *testing.T) {
	parent := types.ProjectID("p1")
	c := newFakeClient()
	c.projects = []types.Project{
		{ID: "p2", Name: "Sub", ChildOrder: 2, ParentID: &parent},
		{ID: "p1", Name: "Work", ChildOrder: 2},
		{ID: "p0", Name: "Inbox", ChildOrder: 1, InboxProject: true},
		{ID: "p3", Name: "Old", ChildOrder: 0, IsArchived: true},
		{ID: "p4", Name: "Sub first", ChildOrder: 1, ParentID: &parent},
	}
	c.sections = []types.Section{
		{ID: "s2", Name: "Later", ProjectID: "p1", SectionOrder: 2},
		{ID: "s1", Name: "Now", ProjectID: "p1", SectionOrder: 1},
	}
	a := New(Options{})
	require.NoError(t, a.Initialize(context.Background(), c))

	roots := a.Data().ProjectHierarchy()
	require.Len(t, roots, 2)
	assert.Equal(t, "Inbox", roots[0].Project.Name)
	work := roots[1]
	assert.Equal(t, "Work", work.Project.Name)
	require.Len(t, work.Children, 2)
	assert.Equal(t, "Sub first", work.Children[0].Project.Name)
	assert.Equal(t, "Sub", work.Children[1].Project.Name)
	require.Len(t, work.Sections, 2)
	assert.Equal(t, "Now", work.Sections[0].Name)
}
