package ui

import (
	"github.com/charmbracelet/glamour"
)

// maxReadableWidth caps the wrap width on wide terminals.
const maxReadableWidth = 100

// RenderMarkdown renders task content and descriptions written in Todoist's
// markdown dialect. Returns the original text when color is off or
// rendering fails.
func RenderMarkdown(markdown string) string {
	if !ShouldUseColor() {
		return markdown
	}

	wrapWidth := min(TerminalWidth(80), maxReadableWidth)

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrapWidth),
	)
	if err != nil {
		return markdown
	}

	rendered, err := renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return rendered
}
