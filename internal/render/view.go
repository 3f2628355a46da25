// Package render turns a query and its fetched tasks into terminal output.
package render

import (
	"github.com/steveyegge/todoq/internal/duedate"
	"github.com/steveyegge/todoq/internal/query"
	"github.com/steveyegge/todoq/internal/taskview"
	"github.com/steveyegge/todoq/internal/types"
)

// GroupView is one group of a rendered query with its task trees.
type GroupView struct {
	Header string            `json:"header,omitempty"`
	Tasks  []*types.TaskTree `json:"tasks"`
}

// View is a query result after sorting, grouping and tree building. It is
// also the --json output shape.
type View struct {
	Title  string      `json:"title,omitempty"`
	Count  int         `json:"count"`
	Groups []GroupView `json:"groups"`
}

// Build runs the transformation pipeline. The tasks are sorted first, then
// split into groups in that order, and each group gets its own tree so a
// subtask whose parent landed in another group becomes a root there.
func Build(q *query.Query, tasks []types.Task, sortOpts taskview.SortOptions, f *duedate.Formatter) View {
	sorted := append([]types.Task(nil), tasks...)
	taskview.SortTasks(sorted, q.Sorting, sortOpts)

	v := View{Title: q.Title(len(sorted)), Count: len(sorted)}
	for _, g := range taskview.GroupBy(sorted, q.GroupBy, f) {
		v.Groups = append(v.Groups, GroupView{
			Header: g.Header,
			Tasks:  taskview.BuildTaskTree(g.Tasks),
		})
	}
	return v
}

// Empty reports whether the view has no tasks.
func (v View) Empty() bool {
	return v.Count == 0
}
