package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/text/language"

	"github.com/steveyegge/todoq/internal/adapter"
	"github.com/steveyegge/todoq/internal/debug"
	"github.com/steveyegge/todoq/internal/duedate"
	"github.com/steveyegge/todoq/internal/eventbus"
	"github.com/steveyegge/todoq/internal/i18n"
	"github.com/steveyegge/todoq/internal/render"
	"github.com/steveyegge/todoq/internal/storage"
	"github.com/steveyegge/todoq/internal/storage/memory"
	"github.com/steveyegge/todoq/internal/storage/sqlite"
	"github.com/steveyegge/todoq/internal/taskview"
	"github.com/steveyegge/todoq/internal/telemetry"
	"github.com/steveyegge/todoq/internal/todoist"
	"github.com/steveyegge/todoq/internal/ui"
)

var errNoToken = errors.New("no Todoist API token configured")

const tokenHint = "Set TODOIST_API_TOKEN, pass --token, or run 'todoq config set api-token <token>'"

// noticeWriter receives the one-line notices printed for adapter events.
var noticeWriter io.Writer = os.Stderr

// session wires the adapter to its collaborators for one command.
type session struct {
	t        *i18n.Translations
	loc      *time.Location
	bus      *eventbus.Bus
	store    storage.SnapshotStore
	client   *todoist.Client
	adapter  *adapter.Adapter
	renderer *render.Renderer
}

// newSession builds an adapter that is not yet connected to Todoist.
func newSession(ctx context.Context) (*session, error) {
	t, err := loadTranslations()
	if err != nil {
		return nil, err
	}
	loc, err := settings.Location()
	if err != nil {
		return nil, err
	}

	s := &session{t: t, loc: loc, bus: eventbus.New()}
	s.bus.SetLogger(logger)
	registerNoticeHandlers(s.bus, t)

	if settings.CacheEnabled {
		s.store = openCache(ctx)
	}
	if s.store == nil {
		// Keeps metadata across syncs within this process only.
		s.store = memory.New()
	}

	s.adapter = adapter.New(adapter.Options{
		Logger:       logger,
		Translations: t,
		Bus:          s.bus,
		Snapshots:    s.store,
		Location:     loc,
		Account:      accountKey(settings.APIToken),
	})

	lang, err := language.Parse(settings.Language)
	if err != nil {
		lang = language.English
	}
	s.renderer = render.New(render.Options{
		Translations: t,
		Formatter:    duedate.NewFormatter(t, nil, loc),
		Sort:         taskview.SortOptions{Language: lang, Location: loc},
		Markdown:     settings.RenderMarkdown,
		Width:        ui.TerminalWidth(80),
	})
	return s, nil
}

// accountKey fingerprints an API token so the metadata cache can tell
// accounts apart without storing the token.
func accountKey(token string) string {
	if token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}

func loadTranslations() (*i18n.Translations, error) {
	if settings.TranslationsFile != "" {
		t, err := i18n.LoadFile(settings.TranslationsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load translations: %w", err)
		}
		return t, nil
	}
	return i18n.ForLanguage(settings.Language), nil
}

// openCache opens the metadata snapshot store. A cache that cannot be
// opened is skipped with a warning.
func openCache(ctx context.Context) storage.SnapshotStore {
	path := settings.CachePath
	if path == "" {
		p, err := sqlite.DefaultPath()
		if err != nil {
			WarnError("metadata cache disabled: %v", err)
			return nil
		}
		path = p
	}
	store, err := sqlite.New(ctx, path)
	if err != nil {
		WarnError("metadata cache disabled: %v", err)
		return nil
	}
	debug.Logf("metadata cache: %s\n", path)
	return telemetry.WrapStore(store)
}

func newClient() (*todoist.Client, error) {
	if settings.APIToken == "" {
		return nil, errNoToken
	}
	c := todoist.NewClient(settings.APIURL, settings.APIToken)
	if settings.RetryMaxElapsed > 0 {
		c.MaxElapsed = settings.RetryMaxElapsed
	}
	return c, nil
}

// connect hands the adapter its client and runs the first sync.
func (s *session) connect(ctx context.Context) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	s.client = c
	return s.adapter.Initialize(ctx, c)
}

// mustSession opens a connected session or exits.
func mustSession() *session {
	s, err := newSession(rootCtx)
	if err != nil {
		FatalError("%v", err)
	}
	if err := s.connect(rootCtx); err != nil {
		s.Close()
		if errors.Is(err, errNoToken) {
			FatalErrorWithHint(err.Error(), tokenHint)
		}
		FatalError("%v", err)
	}
	return s
}

// openBoard subscribes a note's blocks, then connects. A failed first sync
// is only a warning: each block is fetched on its own so it can show its
// own error callout.
func openBoard(blocks []noteBlock) (*session, *board) {
	s, err := newSession(rootCtx)
	if err != nil {
		FatalError("%v", err)
	}
	b := newBoard(s.adapter, blocks)
	if err := s.connect(rootCtx); err != nil {
		if errors.Is(err, errNoToken) {
			s.Close()
			FatalErrorWithHint(err.Error(), tokenHint)
		}
		WarnError("%v", err)
		b.refresh(rootCtx)
	}
	return s, b
}

func (s *session) Close() {
	if s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		debug.Logf("closing metadata cache: %v\n", err)
	}
}

// registerNoticeHandlers prints a line for each user-visible adapter event.
func registerNoticeHandlers(bus *eventbus.Bus, t *i18n.Translations) {
	bus.Register(&eventbus.FuncHandler{
		Name:  "cli-notices",
		Types: []eventbus.EventType{eventbus.EventTaskClosed, eventbus.EventTaskCreated, eventbus.EventTaskCloseFailed},
		Fn: func(ctx context.Context, event *eventbus.Event, result *eventbus.Result) error {
			var line string
			switch event.Type {
			case eventbus.EventTaskClosed:
				line = ui.RenderPassIcon() + " " + t.Render.Closed + ": " + event.TaskID
			case eventbus.EventTaskCreated:
				line = ui.RenderPassIcon() + " " + t.Render.Created + ": " + event.Content
			case eventbus.EventTaskCloseFailed:
				line = ui.RenderFailIcon() + " " + t.Errors.CloseFailed + ": " + event.TaskID
				result.Warnings = append(result.Warnings, line)
			}
			result.Notices = append(result.Notices, line)
			if !jsonOutput && !debug.IsQuiet() {
				fmt.Fprintln(noticeWriter, line)
			}
			return nil
		},
	})
	bus.Register(&eventbus.FuncHandler{
		Name:  "sync-log",
		Types: []eventbus.EventType{eventbus.EventSyncCompleted, eventbus.EventSyncFailed, eventbus.EventNoteChanged},
		Order: 10,
		Fn: func(ctx context.Context, event *eventbus.Event, result *eventbus.Result) error {
			switch {
			case event.Type == eventbus.EventSyncFailed:
				logger.Warn("sync failed", "error", event.Error)
			case event.Sync != nil:
				logger.Debug("sync completed",
					"projects", event.Sync.Projects,
					"sections", event.Sync.Sections,
					"labels", event.Sync.Labels,
					"subscriptions", event.Sync.Subscriptions,
					"duration", event.Sync.Duration)
			default:
				logger.Debug("note changed", "path", event.Path)
			}
			return nil
		},
	})
}
