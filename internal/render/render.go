package render

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/steveyegge/todoq/internal/adapter"
	"github.com/steveyegge/todoq/internal/duedate"
	"github.com/steveyegge/todoq/internal/i18n"
	"github.com/steveyegge/todoq/internal/query"
	"github.com/steveyegge/todoq/internal/taskview"
	"github.com/steveyegge/todoq/internal/types"
	"github.com/steveyegge/todoq/internal/ui"
)

// Options configure a Renderer.
type Options struct {
	Translations *i18n.Translations
	Formatter    *duedate.Formatter
	Sort         taskview.SortOptions

	// Markdown renders descriptions through glamour.
	Markdown bool
	// Width wraps descriptions; zero means 80 columns.
	Width int
}

// Renderer writes query blocks as styled text.
type Renderer struct {
	t        *i18n.Translations
	f        *duedate.Formatter
	sort     taskview.SortOptions
	markdown bool
	width    int
}

// New creates a Renderer. Missing translations and formatter default to
// English at the wall clock.
func New(opts Options) *Renderer {
	t := opts.Translations
	if t == nil {
		t = i18n.English()
	}
	f := opts.Formatter
	if f == nil {
		f = duedate.NewFormatter(t, nil, opts.Sort.Location)
	}
	width := opts.Width
	if width <= 0 {
		width = 80
	}
	return &Renderer{t: t, f: f, sort: opts.Sort, markdown: opts.Markdown, width: width}
}

// Block is everything known about one query block at render time.
type Block struct {
	Query    *query.Query
	Warnings []string
	ParseErr error
	Result   adapter.Result
}

// Build returns the view for a successfully fetched block.
func (r *Renderer) Build(b Block) View {
	return Build(b.Query, b.Result.Tasks, r.sort, r.f)
}

// Render writes one block. Parse errors and fetch failures become callouts
// in place of the task list.
func (r *Renderer) Render(w io.Writer, b Block) error {
	var out strings.Builder

	if len(b.Warnings) > 0 {
		out.WriteString(ui.RenderWarn(ui.IconWarn+" "+r.t.Render.Warnings) + "\n")
		for _, warning := range b.Warnings {
			out.WriteString(ui.RenderWarn("  - "+warning) + "\n")
		}
	}

	switch {
	case b.ParseErr != nil:
		out.WriteString(r.parseError(b.ParseErr) + "\n")
	case b.Result.State == adapter.StateNotReady:
		out.WriteString(ui.RenderMuted(r.t.Errors.NotReady) + "\n")
	case b.Result.State == adapter.StateError:
		out.WriteString(ui.RenderCallout(ui.IconFail+" "+b.Result.Error.Message(r.t)) + "\n")
	default:
		r.view(&out, b.Query, r.Build(b))
	}

	_, err := io.WriteString(w, out.String())
	return err
}

func (r *Renderer) parseError(err error) string {
	lines := []string{ui.IconFail + " " + r.t.Errors.ParseFailed}
	var pe *query.ParseError
	if errors.As(err, &pe) {
		lines = append(lines, pe.Lines()...)
	} else {
		lines = append(lines, err.Error())
	}
	return ui.RenderCallout(lines...)
}

func (r *Renderer) view(out *strings.Builder, q *query.Query, v View) {
	if v.Empty() && q.View.HideNoTasks {
		return
	}
	if v.Title != "" {
		out.WriteString(ui.RenderTitle(v.Title) + "\n")
	}
	if v.Empty() {
		msg := q.View.NoTasksMessage
		if msg == "" {
			msg = r.t.Render.NoTasks
		}
		out.WriteString(ui.RenderMuted(msg) + "\n")
		return
	}

	for i, g := range v.Groups {
		if g.Header != "" {
			if i > 0 {
				out.WriteString("\n")
			}
			out.WriteString(ui.RenderCategory(g.Header) + "\n")
		}
		for _, tree := range g.Tasks {
			r.tree(out, q, tree, "", "")
		}
	}
}

// tree writes node at lead and its children below it. cont is the prefix
// carried under node for its descendants.
func (r *Renderer) tree(out *strings.Builder, q *query.Query, node *types.TaskTree, lead, cont string) {
	r.task(out, q, &node.Task, lead)
	for i, child := range node.Children {
		branch, next := ui.TreeChild, ui.RenderMuted("│  ")
		if i == len(node.Children)-1 {
			branch, next = ui.TreeLast, "   "
		}
		base := cont + ui.TreeIndent
		r.tree(out, q, child, base+ui.RenderMuted(branch), base+next)
	}
}

func (r *Renderer) task(out *strings.Builder, q *query.Query, t *types.Task, indent string) {
	box := ui.RenderPriority(t.Priority.Display(), ui.IconOpen)
	fmt.Fprintf(out, "%s%s %s\n", indent, box, t.Content)

	pad := strings.Repeat(" ", lipgloss.Width(indent)+2)
	if meta := r.metadata(q, t); meta != "" {
		out.WriteString(pad + meta + "\n")
	}
	if q.Show.Has(query.ShowDescription) && t.Description != "" {
		out.WriteString(ui.Indent(r.description(t.Description, len(pad)), pad) + "\n")
	}
}

func (r *Renderer) metadata(q *query.Query, t *types.Task) string {
	var parts []string
	if q.Show.Has(query.ShowDue) && t.Due != nil {
		due := r.f.FormatDue(t.Due)
		if r.f.IsOverdue(t.Due) {
			due = ui.RenderFail(due)
		} else {
			due = ui.RenderAccent(due)
		}
		parts = append(parts, due)
	}
	if q.Show.Has(query.ShowProject) {
		parts = append(parts, ui.RenderMuted(t.Project.Name))
	}
	if q.Show.Has(query.ShowSection) && t.Section != nil {
		parts = append(parts, ui.RenderMuted("/ "+t.Section.Name))
	}
	if q.Show.Has(query.ShowLabels) {
		for _, l := range t.Labels {
			parts = append(parts, ui.RenderLabel(l.Name))
		}
	}
	return strings.Join(parts, "  ")
}

func (r *Renderer) description(text string, pad int) string {
	text = ui.TruncateLines(strings.TrimSpace(text), ui.DefaultMaxLines, ui.DefaultContextLines)
	if r.markdown {
		return strings.TrimRight(ui.RenderMarkdown(text), "\n")
	}
	return ui.RenderMuted(ui.WrapText(text, max(r.width-pad, 20)))
}
