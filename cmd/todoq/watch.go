package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/steveyegge/todoq/internal/adapter"
	"github.com/steveyegge/todoq/internal/eventbus"
	"github.com/steveyegge/todoq/internal/ui"
)

const (
	redrawDelay = 100 * time.Millisecond
	reloadDelay = 300 * time.Millisecond
)

var watchCmd = &cobra.Command{
	Use:   "watch <note.md>",
	Short: "Render a note and keep it up to date",
	Long: `Render a note like 'todoq render', then keep running: the output is
redrawn when a query's results change, and the note is re-read when it is
saved.

Blocks with an autorefresh setting are refetched on that interval. With
auto-refresh.enabled set, metadata is synced every auto-refresh.interval
and all blocks are refetched.

Press Ctrl+C to exit.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path, err := filepath.Abs(args[0])
		if err != nil {
			FatalError("%v", err)
		}
		blocks, err := loadNote(path)
		if err != nil {
			FatalError("%v", err)
		}

		s, b := openBoard(blocks)
		defer s.Close()

		w := newNoteWatcher(s, path, b)
		if err := w.run(rootCtx); err != nil {
			FatalError("%v", err)
		}
	},
}

// noteWatcher keeps one note's board on screen.
type noteWatcher struct {
	s    *session
	path string

	mu          sync.Mutex
	board       *board
	blockCancel context.CancelFunc

	redraw *Debouncer
	reload chan struct{}
}

func newNoteWatcher(s *session, path string, b *board) *noteWatcher {
	w := &noteWatcher{s: s, path: filepath.Clean(path), board: b, reload: make(chan struct{}, 1)}
	w.redraw = NewDebouncer(redrawDelay, w.draw)
	return w
}

func (w *noteWatcher) run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }() // Best effort cleanup

	// Editors often save by renaming a temp file over the note, which
	// drops a watch on the file itself.
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}

	reload := NewDebouncer(reloadDelay, func() {
		select {
		case w.reload <- struct{}{}:
		default:
		}
	})
	defer reload.CancelAndWait()
	defer w.redraw.CancelAndWait()

	if settings.AutoRefresh {
		go w.s.adapter.RunAutoRefresh(ctx, settings.AutoRefreshInterval)
	}
	w.mu.Lock()
	w.startBlockRefresh(ctx)
	w.mu.Unlock()
	defer w.stopBoard()

	w.draw()

	for {
		w.mu.Lock()
		changed := w.board.changed
		w.mu.Unlock()

		select {
		case <-ctx.Done():
			if !jsonOutput {
				fmt.Fprintln(os.Stderr, "\nStopped watching.")
			}
			return nil
		case <-changed:
			w.redraw.Trigger()
		case <-w.reload:
			w.reloadNote(ctx)
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) == w.path && event.Has(fsnotify.Write|fsnotify.Create) {
				reload.Trigger()
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			WarnError("watcher error: %v", err)
		}
	}
}

// reloadNote re-reads the note and swaps in a board for its new blocks. A
// note that cannot be read keeps the old board.
func (w *noteWatcher) reloadNote(ctx context.Context) {
	blocks, err := loadNote(w.path)
	if err != nil {
		logger.Warn("reloading note failed", "path", w.path, "error", err)
		return
	}
	nb := newBoard(w.s.adapter, blocks)

	w.mu.Lock()
	old := w.board
	if w.blockCancel != nil {
		w.blockCancel()
	}
	w.board = nb
	w.startBlockRefresh(ctx)
	w.mu.Unlock()
	old.close()

	if _, err := w.s.bus.Dispatch(ctx, &eventbus.Event{Type: eventbus.EventNoteChanged, At: time.Now(), Path: w.path}); err != nil {
		logger.Debug("note changed handlers failed", "error", err)
	}
	w.redraw.Trigger()
	go nb.refresh(ctx)
}

// startBlockRefresh starts a refetch loop for each block with an
// autorefresh interval. Callers hold w.mu.
func (w *noteWatcher) startBlockRefresh(ctx context.Context) {
	bctx, cancel := context.WithCancel(ctx)
	w.blockCancel = cancel
	for i, nb := range w.board.blocks {
		if nb.Query == nil || nb.Query.AutoRefresh <= 0 {
			continue
		}
		if refresh := w.board.refreshFunc(i); refresh != nil {
			go adapter.Every(bctx, nb.Query.AutoRefresh, refresh)
		}
	}
}

func (w *noteWatcher) stopBoard() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.blockCancel != nil {
		w.blockCancel()
	}
	w.board.close()
}

func (w *noteWatcher) draw() {
	w.mu.Lock()
	b := w.board
	w.mu.Unlock()

	if jsonOutput {
		outputJSON(b.json(w.s.renderer))
		return
	}
	text, err := b.text(w.s.renderer)
	if err != nil {
		WarnError("render failed: %v", err)
		return
	}
	if ui.IsTerminal() {
		fmt.Print("\x1b[H\x1b[2J")
	}
	fmt.Print(text)
	if !quietFlag {
		fmt.Fprintln(os.Stderr, ui.RenderMuted("\nWatching "+w.path+"... (Press Ctrl+C to exit)"))
	}
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
