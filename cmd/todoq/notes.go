package main

import (
	"github.com/steveyegge/todoq/internal/markdown"
	"github.com/steveyegge/todoq/internal/query"
)

// noteBlock is a query block with its parse outcome.
type noteBlock struct {
	markdown.Block
	Query    *query.Query
	Warnings []string
	Err      error
}

// loadNote extracts and parses every query block of a note. Blocks that
// fail to parse are kept with Err set.
func loadNote(path string) ([]noteBlock, error) {
	blocks, err := markdown.ExtractFile(path)
	if err != nil {
		return nil, err
	}
	return parseBlocks(blocks), nil
}

func parseBlocks(blocks []markdown.Block) []noteBlock {
	out := make([]noteBlock, 0, len(blocks))
	for _, b := range blocks {
		q, warnings, err := query.Parse(b.Source)
		out = append(out, noteBlock{Block: b, Query: q, Warnings: warnings, Err: err})
	}
	return out
}
