package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/steveyegge/todoq/internal/adapter"
	"github.com/steveyegge/todoq/internal/duedate"
	"github.com/steveyegge/todoq/internal/i18n"
	"github.com/steveyegge/todoq/internal/markdown"
	"github.com/steveyegge/todoq/internal/render"
	"github.com/steveyegge/todoq/internal/taskview"
	"github.com/steveyegge/todoq/internal/todoist"
	"github.com/steveyegge/todoq/internal/types"
)

const sampleNote = "# Today\n\n" +
	"```todoist\nname: Inbox ({task_count})\nfilter: \"#Inbox\"\n```\n\n" +
	"```todoist\nfilter: [broken\n```\n\n" +
	"```todoist\n{\"filter\": \"today\"}\n```\n"

func testRenderer() *render.Renderer {
	t := i18n.English()
	return render.New(render.Options{
		Translations: t,
		Formatter:    duedate.NewFormatter(t, nil, time.UTC),
		Sort:         taskview.SortOptions{Location: time.UTC},
	})
}

func sampleClient() *stubClient {
	return &stubClient{
		projects: []types.Project{{ID: "p1", Name: "Inbox"}},
		tasks: map[string][]todoist.Task{
			"#Inbox": {
				{ID: "1", ProjectID: "p1", Content: "Buy milk", Priority: 1, Order: 1},
				{ID: "2", ProjectID: "p1", Content: "Call mom", Priority: 4, Order: 2},
			},
		},
	}
}

func TestLoadNote(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.md")
	if err := os.WriteFile(path, []byte(sampleNote), 0o600); err != nil {
		t.Fatal(err)
	}
	blocks, err := loadNote(path)
	if err != nil {
		t.Fatalf("loadNote failed: %v", err)
	}
	if len(blocks) != 3 {
		t.Fatalf("got %d blocks, want 3", len(blocks))
	}
	if blocks[0].Err != nil || blocks[0].Query.Filter != "#Inbox" {
		t.Errorf("block 0 = %+v", blocks[0])
	}
	if blocks[1].Err == nil || blocks[1].Query != nil {
		t.Errorf("block 1 should fail to parse, got %+v", blocks[1])
	}
	if len(blocks[2].Warnings) != 1 {
		t.Errorf("JSON block warnings = %v, want the deprecation warning", blocks[2].Warnings)
	}

	if _, err := loadNote(filepath.Join(t.TempDir(), "missing.md")); err == nil {
		t.Error("loadNote should fail for a missing file")
	}
}

func TestBoardLifecycle(t *testing.T) {
	ctx := context.Background()
	a := adapter.New(adapter.Options{Logger: logger, Location: time.UTC})
	b := newBoard(a, parseBlocks(markdown.Extract([]byte(sampleNote))))
	defer b.close()

	for i, rb := range b.renderBlocks() {
		if i == 1 {
			if rb.ParseErr == nil {
				t.Error("block 1 should carry its parse error")
			}
			continue
		}
		if rb.Result.State != adapter.StateNotReady {
			t.Errorf("block %d state = %v before the first sync, want not-ready", i, rb.Result.State)
		}
	}
	if b.refreshFunc(1) != nil {
		t.Error("a block that failed to parse should not be subscribed")
	}

	if err := a.Initialize(ctx, sampleClient()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	select {
	case <-b.changed:
	default:
		t.Error("board did not signal a change after sync")
	}

	r := testRenderer()
	text, err := b.text(r)
	if err != nil {
		t.Fatalf("text failed: %v", err)
	}
	for _, want := range []string{"Inbox (2)", "Buy milk", "Call mom"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	if strings.Index(text, "Call mom") > strings.Index(text, "Buy milk") {
		t.Errorf("tasks not in API order:\n%s", text)
	}

	js := b.json(r)
	if js[0].State != "success" || js[0].View == nil || js[0].View.Count != 2 {
		t.Errorf("block 0 json = %+v", js[0])
	}
	if js[1].State != "parse-error" || js[1].Error == "" {
		t.Errorf("block 1 json = %+v", js[1])
	}
	if js[2].State != "success" || js[2].View.Count != 0 {
		t.Errorf("block 2 json = %+v", js[2])
	}
}

func TestBoardRefreshError(t *testing.T) {
	ctx := context.Background()
	c := sampleClient()
	a := adapter.New(adapter.Options{Logger: logger, Location: time.UTC})
	b := newBoard(a, parseBlocks(markdown.Extract([]byte(sampleNote))))
	defer b.close()
	if err := a.Initialize(ctx, c); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	c.mu.Lock()
	c.tasksErr = &todoist.APIError{StatusCode: http.StatusForbidden, Method: "GET", Path: "/tasks"}
	c.mu.Unlock()
	b.refresh(ctx)

	js := b.json(testRenderer())
	if js[0].State != "error" || js[0].Error == "" {
		t.Errorf("block 0 json = %+v, want an error state", js[0])
	}

	text, err := b.text(testRenderer())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, i18n.English().Errors.Forbidden) {
		t.Errorf("output missing forbidden message:\n%s", text)
	}
}

func TestBoardClose(t *testing.T) {
	ctx := context.Background()
	c := sampleClient()
	a := adapter.New(adapter.Options{Logger: logger, Location: time.UTC})
	b := newBoard(a, parseBlocks(markdown.Extract([]byte(sampleNote))))
	b.close()
	b.close()

	if err := a.Initialize(ctx, c); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	select {
	case <-b.changed:
		t.Error("closed board should not receive results")
	default:
	}
}
