package adapter

import (
	"cmp"
	"slices"

	"github.com/steveyegge/todoq/internal/types"
)

// ProjectNode is a project with its active sections and sub-projects.
type ProjectNode struct {
	Project  types.Project
	Sections []types.Section
	Children []*ProjectNode
}

// ProjectHierarchy builds the tree of active projects, ordered by child
// order at every level. Projects whose parent is not active become roots.
func (d Data) ProjectHierarchy() []*ProjectNode {
	nodes := make(map[types.ProjectID]*ProjectNode)
	var all []*ProjectNode
	for p := range d.Projects.IterActive() {
		n := &ProjectNode{Project: p}
		nodes[p.ID] = n
		all = append(all, n)
	}
	for s := range d.Sections.IterActive() {
		if n, ok := nodes[s.ProjectID]; ok {
			n.Sections = append(n.Sections, s)
		}
	}

	byOrder := func(a, b *ProjectNode) int { return cmp.Compare(a.Project.ChildOrder, b.Project.ChildOrder) }
	slices.SortStableFunc(all, byOrder)

	var roots []*ProjectNode
	for _, n := range all {
		slices.SortStableFunc(n.Sections, func(a, b types.Section) int {
			return cmp.Compare(a.SectionOrder, b.SectionOrder)
		})
		if n.Project.ParentID != nil {
			if parent, ok := nodes[*n.Project.ParentID]; ok && parent != n {
				parent.Children = append(parent.Children, n)
				continue
			}
		}
		roots = append(roots, n)
	}
	return roots
}
