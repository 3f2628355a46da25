package taskview

import (
	"cmp"
	"slices"

	"cloud.google.com/go/civil"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/steveyegge/todoq/internal/duedate"
	"github.com/steveyegge/todoq/internal/query"
	"github.com/steveyegge/todoq/internal/types"
)

// Group is one headed bucket of a grouped result. Tasks keep their input
// order.
type Group struct {
	Header string       `json:"header"`
	Tasks  []types.Task `json:"tasks"`
}

// GroupBy buckets tasks along one dimension and orders the buckets. f
// supplies the clock, zone and strings for headers.
func GroupBy(tasks []types.Task, variant query.GroupVariant, f *duedate.Formatter) []Group {
	switch variant {
	case query.GroupPriority:
		return groupByPriority(tasks, f)
	case query.GroupProject:
		return groupByProject(tasks)
	case query.GroupSection:
		return groupBySection(tasks)
	case query.GroupDate:
		return groupByDate(tasks, f)
	case query.GroupLabel:
		return groupByLabel(tasks, f)
	}
	return []Group{{Tasks: tasks}}
}

// bucketer collects tasks under comparable keys, remembering the order keys
// were first seen in.
type bucketer[K comparable] struct {
	keys    []K
	buckets map[K][]types.Task
}

func newBucketer[K comparable]() *bucketer[K] {
	return &bucketer[K]{buckets: make(map[K][]types.Task)}
}

func (b *bucketer[K]) add(key K, t types.Task) {
	if _, ok := b.buckets[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.buckets[key] = append(b.buckets[key], t)
}

// groupByPriority emits the most urgent priority first. Raw priority 4 is
// shown as "Priority 1".
func groupByPriority(tasks []types.Task, f *duedate.Formatter) []Group {
	b := newBucketer[types.Priority]()
	for _, t := range tasks {
		b.add(t.Priority, t)
	}
	slices.SortFunc(b.keys, func(x, y types.Priority) int { return cmp.Compare(y, x) })

	groups := make([]Group, 0, len(b.keys))
	for _, p := range b.keys {
		groups = append(groups, Group{Header: f.T.PriorityHeader(p.Display()), Tasks: b.buckets[p]})
	}
	return groups
}

func groupByProject(tasks []types.Task) []Group {
	b := newBucketer[types.ProjectID]()
	projects := make(map[types.ProjectID]types.Project)
	for _, t := range tasks {
		b.add(t.Project.ID, t)
		if _, ok := projects[t.Project.ID]; !ok {
			projects[t.Project.ID] = t.Project
		}
	}
	slices.SortStableFunc(b.keys, func(x, y types.ProjectID) int {
		return cmp.Compare(projects[x].ChildOrder, projects[y].ChildOrder)
	})

	groups := make([]Group, 0, len(b.keys))
	for _, id := range b.keys {
		groups = append(groups, Group{Header: projects[id].Name, Tasks: b.buckets[id]})
	}
	return groups
}

type sectionKey struct {
	project types.ProjectID
	section types.SectionID // empty for tasks outside any section
}

// groupBySection orders by project, then puts tasks without a section ahead
// of the project's named sections.
func groupBySection(tasks []types.Task) []Group {
	b := newBucketer[sectionKey]()
	projects := make(map[types.ProjectID]types.Project)
	rank := make(map[types.ProjectID]int) // first-seen order, breaks ChildOrder ties
	sections := make(map[sectionKey]*types.Section)
	for _, t := range tasks {
		key := sectionKey{project: t.Project.ID}
		if t.Section != nil {
			key.section = t.Section.ID
		}
		if _, ok := b.buckets[key]; !ok {
			sections[key] = t.Section
		}
		if _, ok := projects[t.Project.ID]; !ok {
			projects[t.Project.ID] = t.Project
			rank[t.Project.ID] = len(rank)
		}
		b.add(key, t)
	}

	slices.SortStableFunc(b.keys, func(x, y sectionKey) int {
		if c := cmp.Compare(projects[x.project].ChildOrder, projects[y.project].ChildOrder); c != 0 {
			return c
		}
		if x.project != y.project {
			return cmp.Compare(rank[x.project], rank[y.project])
		}
		sx, sy := sections[x], sections[y]
		switch {
		case sx == nil && sy == nil:
			return 0
		case sx == nil:
			return -1
		case sy == nil:
			return 1
		}
		return cmp.Compare(sx.SectionOrder, sy.SectionOrder)
	})

	groups := make([]Group, 0, len(b.keys))
	for _, key := range b.keys {
		header := projects[key.project].Name
		if s := sections[key]; s != nil {
			header += " / " + s.Name
		}
		groups = append(groups, Group{Header: header, Tasks: b.buckets[key]})
	}
	return groups
}

// groupByDate collapses everything overdue into one leading group, buckets
// the rest by calendar day ascending and puts undated tasks last.
func groupByDate(tasks []types.Task, f *duedate.Formatter) []Group {
	var overdue, undated []types.Task
	b := newBucketer[civil.Date]()
	for _, t := range tasks {
		switch {
		case t.Due == nil:
			undated = append(undated, t)
		case f.IsOverdue(t.Due):
			overdue = append(overdue, t)
		default:
			b.add(t.Due.Day(f.Location), t)
		}
	}
	slices.SortFunc(b.keys, func(x, y civil.Date) int {
		switch {
		case x.Before(y):
			return -1
		case x.After(y):
			return 1
		}
		return 0
	})

	groups := make([]Group, 0, len(b.keys)+2)
	if len(overdue) > 0 {
		groups = append(groups, Group{Header: f.T.Groups.Overdue, Tasks: overdue})
	}
	for _, day := range b.keys {
		groups = append(groups, Group{Header: f.FormatDay(day), Tasks: b.buckets[day]})
	}
	if len(undated) > 0 {
		groups = append(groups, Group{Header: f.T.Groups.NoDueDate, Tasks: undated})
	}
	return groups
}

// groupByLabel puts a task under each of its labels, so the groups can hold
// more tasks than the input. Unlabelled tasks share one trailing group.
func groupByLabel(tasks []types.Task, f *duedate.Formatter) []Group {
	var unlabelled []types.Task
	b := newBucketer[string]()
	for _, t := range tasks {
		if len(t.Labels) == 0 {
			unlabelled = append(unlabelled, t)
			continue
		}
		seen := make(map[string]bool, len(t.Labels))
		for _, l := range t.Labels {
			if seen[l.Name] {
				continue
			}
			seen[l.Name] = true
			b.add(l.Name, t)
		}
	}

	tag, err := language.Parse(f.T.Language)
	if err != nil {
		tag = language.English
	}
	collator := collate.New(tag, collate.IgnoreCase)
	slices.SortStableFunc(b.keys, collator.CompareString)

	groups := make([]Group, 0, len(b.keys)+1)
	for _, name := range b.keys {
		groups = append(groups, Group{Header: name, Tasks: b.buckets[name]})
	}
	if len(unlabelled) > 0 {
		groups = append(groups, Group{Header: f.T.Groups.NoLabel, Tasks: unlabelled})
	}
	return groups
}
