// Package markdown finds the query blocks embedded in a note.
package markdown

import (
	"bytes"
	"fmt"
	"os"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Language is the fence info string that marks a query block.
const Language = "todoist"

// Block is one ```todoist fenced code block.
type Block struct {
	Index  int    // position among the note's query blocks, from 0
	Line   int    // 1-based line of the opening fence
	Source string // block body without the fences
}

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Extract returns the query blocks of a note in document order. Blocks nested
// in lists and blockquotes are included.
func Extract(src []byte) []Block {
	doc := md.Parser().Parse(text.NewReader(src))

	var blocks []Block
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fence, ok := n.(*ast.FencedCodeBlock)
		if !ok || fence.Info == nil {
			return ast.WalkContinue, nil
		}
		if string(fence.Language(src)) != Language {
			return ast.WalkSkipChildren, nil
		}

		var body bytes.Buffer
		lines := fence.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			body.Write(seg.Value(src))
		}
		blocks = append(blocks, Block{
			Index:  len(blocks),
			Line:   bytes.Count(src[:fence.Info.Segment.Start], []byte("\n")) + 1,
			Source: body.String(),
		})
		return ast.WalkSkipChildren, nil
	})
	return blocks
}

// ExtractFile reads a note and returns its query blocks.
func ExtractFile(path string) ([]Block, error) {
	src, err := os.ReadFile(path) //nolint:gosec // path is a user-supplied note
	if err != nil {
		return nil, fmt.Errorf("failed to read note: %w", err)
	}
	return Extract(src), nil
}
