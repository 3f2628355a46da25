// Package taskview turns a flat list of hydrated tasks into what a query
// renders: sorted, grouped and nested under parent tasks. Everything here
// is a pure function of its inputs.
package taskview

import (
	"cmp"
	"slices"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/steveyegge/todoq/internal/query"
	"github.com/steveyegge/todoq/internal/types"
)

// SortOptions carry the locale-dependent inputs of sorting.
type SortOptions struct {
	// Language selects the collation for alphabetical sorting.
	Language language.Tag
	// Location decides which calendar day a timed due date falls on.
	Location *time.Location
}

type comparator func(a, b *types.Task) int

// SortTasks sorts tasks in place by keys, in order: ties on one key fall
// through to the next, and tasks still tied keep their input order.
func SortTasks(tasks []types.Task, keys []query.SortingVariant, opts SortOptions) {
	if len(keys) == 0 || len(tasks) < 2 {
		return
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	var collator *collate.Collator
	cmps := make([]comparator, 0, len(keys))
	for _, key := range keys {
		switch key {
		case query.SortPriority:
			cmps = append(cmps, func(a, b *types.Task) int { return cmp.Compare(b.Priority, a.Priority) })
		case query.SortPriorityAscending:
			cmps = append(cmps, func(a, b *types.Task) int { return cmp.Compare(a.Priority, b.Priority) })
		case query.SortDateAscending:
			cmps = append(cmps, func(a, b *types.Task) int { return compareDate(a, b, loc, false) })
		case query.SortDateDescending:
			cmps = append(cmps, func(a, b *types.Task) int { return compareDate(a, b, loc, true) })
		case query.SortOrder:
			cmps = append(cmps, func(a, b *types.Task) int { return cmp.Compare(a.Order, b.Order) })
		case query.SortDateAddedAscending:
			cmps = append(cmps, func(a, b *types.Task) int { return a.CreatedAt.Compare(b.CreatedAt) })
		case query.SortDateAddedDescending:
			cmps = append(cmps, func(a, b *types.Task) int { return b.CreatedAt.Compare(a.CreatedAt) })
		case query.SortAlphabeticalAscending, query.SortAlphabeticalDescending:
			if collator == nil {
				collator = collate.New(opts.Language, collate.IgnoreCase)
			}
			c := collator
			if key == query.SortAlphabeticalAscending {
				cmps = append(cmps, func(a, b *types.Task) int { return c.CompareString(a.Content, b.Content) })
			} else {
				cmps = append(cmps, func(a, b *types.Task) int { return c.CompareString(b.Content, a.Content) })
			}
		}
	}

	slices.SortStableFunc(tasks, func(a, b types.Task) int {
		for _, c := range cmps {
			if r := c(&a, &b); r != 0 {
				return r
			}
		}
		return 0
	})
}

// compareDate orders by due date. Undated tasks go last in either
// direction.
func compareDate(a, b *types.Task, loc *time.Location, descending bool) int {
	switch {
	case a.Due == nil && b.Due == nil:
		return 0
	case a.Due == nil:
		return 1
	case b.Due == nil:
		return -1
	}
	r := compareDue(a.Due, b.Due, loc)
	if descending {
		return -r
	}
	return r
}

// compareDue orders by calendar day; on the same day a timed due comes
// before an all-day one, and two timed dues compare by instant.
func compareDue(a, b *types.DueDate, loc *time.Location) int {
	da, db := a.Day(loc), b.Day(loc)
	switch {
	case da.Before(db):
		return -1
	case da.After(db):
		return 1
	}
	switch {
	case a.HasTime() && b.HasTime():
		return a.DateTime.Compare(*b.DateTime)
	case a.HasTime():
		return -1
	case b.HasTime():
		return 1
	}
	return 0
}
