package taskview

import "github.com/steveyegge/todoq/internal/types"

// BuildTaskTree nests tasks under their parents. A task whose parent is not
// in the list becomes a root. Roots and each children list keep input
// order.
func BuildTaskTree(tasks []types.Task) []*types.TaskTree {
	nodes := make(map[types.TaskID]*types.TaskTree, len(tasks))
	ordered := make([]*types.TaskTree, len(tasks))
	for i, t := range tasks {
		n := &types.TaskTree{Task: t}
		ordered[i] = n
		if _, dup := nodes[t.ID]; !dup {
			nodes[t.ID] = n
		}
	}

	var roots []*types.TaskTree
	for _, n := range ordered {
		if n.ParentID != nil {
			if parent, ok := nodes[*n.ParentID]; ok && !cyclic(nodes, n) {
				parent.Children = append(parent.Children, n)
				continue
			}
		}
		roots = append(roots, n)
	}
	return roots
}

// cyclic reports whether following parent links from n leads back to n.
// Such tasks are kept as roots so none of them disappears.
func cyclic(nodes map[types.TaskID]*types.TaskTree, n *types.TaskTree) bool {
	seen := map[*types.TaskTree]bool{n: true}
	for cur := n; cur.ParentID != nil; {
		next, ok := nodes[*cur.ParentID]
		if !ok {
			return false
		}
		if next == n {
			return true
		}
		if seen[next] {
			return false // a cycle further up, not through n
		}
		seen[next] = true
		cur = next
	}
	return false
}

// Flatten lists a forest in pre-order: each parent directly before its
// subtasks.
func Flatten(trees []*types.TaskTree) []types.Task {
	var out []types.Task
	var walk func([]*types.TaskTree)
	walk = func(nodes []*types.TaskTree) {
		for _, n := range nodes {
			out = append(out, n.Task)
			walk(n.Children)
		}
	}
	walk(trees)
	return out
}

// Count returns the number of tasks in a forest.
func Count(trees []*types.TaskTree) int {
	n := 0
	for _, t := range trees {
		n += 1 + Count(t.Children)
	}
	return n
}
