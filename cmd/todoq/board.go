package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/steveyegge/todoq/internal/adapter"
	"github.com/steveyegge/todoq/internal/render"
)

// board holds the live results of a note's query blocks.
type board struct {
	mu      sync.Mutex
	blocks  []noteBlock
	results []adapter.Result
	loaded  []bool

	unsubs    []func()
	refreshes []func(ctx context.Context)

	// changed receives a value after any block's result changes.
	changed chan struct{}
}

// newBoard subscribes every block that parsed. Nothing is fetched until the
// adapter syncs or refresh is called.
func newBoard(a *adapter.Adapter, blocks []noteBlock) *board {
	b := &board{
		blocks:    blocks,
		results:   make([]adapter.Result, len(blocks)),
		loaded:    make([]bool, len(blocks)),
		refreshes: make([]func(ctx context.Context), len(blocks)),
		changed:   make(chan struct{}, 1),
	}
	for i, nb := range blocks {
		if nb.Err != nil {
			continue
		}
		unsub, refresh := a.Subscribe(nb.Query.Filter, func(r adapter.Result) {
			b.mu.Lock()
			b.results[i] = r
			b.loaded[i] = true
			b.mu.Unlock()
			select {
			case b.changed <- struct{}{}:
			default:
			}
		})
		b.unsubs = append(b.unsubs, unsub)
		b.refreshes[i] = refresh
	}
	return b
}

// refresh refetches every subscribed block, in order.
func (b *board) refresh(ctx context.Context) {
	for _, r := range b.refreshes {
		if r != nil {
			r(ctx)
		}
	}
}

// refreshFunc returns the refresh for block i, or nil if it is not subscribed.
func (b *board) refreshFunc(i int) func(ctx context.Context) {
	return b.refreshes[i]
}

func (b *board) close() {
	for _, u := range b.unsubs {
		u()
	}
}

func (b *board) renderBlocks() []render.Block {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]render.Block, len(b.blocks))
	for i, nb := range b.blocks {
		res := b.results[i]
		if !b.loaded[i] {
			res = adapter.Result{State: adapter.StateNotReady}
		}
		out[i] = render.Block{Query: nb.Query, Warnings: nb.Warnings, ParseErr: nb.Err, Result: res}
	}
	return out
}

// text renders every block, separated by blank lines.
func (b *board) text(r *render.Renderer) (string, error) {
	var out strings.Builder
	for i, rb := range b.renderBlocks() {
		if i > 0 {
			out.WriteString("\n")
		}
		if err := r.Render(&out, rb); err != nil {
			return "", err
		}
	}
	return out.String(), nil
}

// blockJSON is the --json shape of one block.
type blockJSON struct {
	Index    int          `json:"index"`
	Line     int          `json:"line"`
	Filter   string       `json:"filter,omitempty"`
	Warnings []string     `json:"warnings,omitempty"`
	Error    string       `json:"error,omitempty"`
	State    string       `json:"state"`
	View     *render.View `json:"view,omitempty"`
}

func (b *board) json(r *render.Renderer) []blockJSON {
	rbs := b.renderBlocks()
	out := make([]blockJSON, len(rbs))
	for i, rb := range rbs {
		nb := b.blocks[i]
		j := blockJSON{Index: nb.Index, Line: nb.Line, Warnings: rb.Warnings}
		switch {
		case rb.ParseErr != nil:
			j.State = "parse-error"
			j.Error = rb.ParseErr.Error()
		case rb.Result.State == adapter.StateSuccess:
			j.Filter = rb.Query.Filter
			j.State = rb.Result.State.String()
			v := r.Build(rb)
			j.View = &v
		default:
			j.Filter = rb.Query.Filter
			j.State = rb.Result.State.String()
			if rb.Result.Cause != nil {
				j.Error = rb.Result.Cause.Error()
			}
		}
		out[i] = j
	}
	return out
}

func (b *board) write(w io.Writer, r *render.Renderer) error {
	text, err := b.text(r)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, text)
	return err
}
