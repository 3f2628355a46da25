// Package query parses the ```todoist code blocks embedded in notes into a
// Query: a Todoist filter plus how its results are sorted, grouped and
// displayed.
package query

import (
	"strconv"
	"strings"
	"time"
)

// SortingVariant is one key of a query's sort order.
type SortingVariant int

const (
	SortPriority SortingVariant = iota + 1 // most urgent first
	SortPriorityAscending
	SortDateAscending
	SortDateDescending
	SortOrder
	SortDateAddedAscending
	SortDateAddedDescending
	SortAlphabeticalAscending
	SortAlphabeticalDescending
)

// String returns the canonical name of a SortingVariant.
func (s SortingVariant) String() string {
	switch s {
	case SortPriority:
		return "priority"
	case SortPriorityAscending:
		return "priorityAscending"
	case SortDateAscending:
		return "dateAscending"
	case SortDateDescending:
		return "dateDescending"
	case SortOrder:
		return "order"
	case SortDateAddedAscending:
		return "dateAddedAscending"
	case SortDateAddedDescending:
		return "dateAddedDescending"
	case SortAlphabeticalAscending:
		return "alphabeticalAscending"
	case SortAlphabeticalDescending:
		return "alphabeticalDescending"
	default:
		return "unknown"
	}
}

// opposite returns the variant sorting the same dimension the other way.
func (s SortingVariant) opposite() (SortingVariant, bool) {
	switch s {
	case SortPriority:
		return SortPriorityAscending, true
	case SortPriorityAscending:
		return SortPriority, true
	case SortDateAscending:
		return SortDateDescending, true
	case SortDateDescending:
		return SortDateAscending, true
	case SortDateAddedAscending:
		return SortDateAddedDescending, true
	case SortDateAddedDescending:
		return SortDateAddedAscending, true
	case SortAlphabeticalAscending:
		return SortAlphabeticalDescending, true
	case SortAlphabeticalDescending:
		return SortAlphabeticalAscending, true
	}
	return 0, false
}

// ShowMetadataVariant is one piece of task metadata a query can display.
type ShowMetadataVariant int

const (
	ShowDue ShowMetadataVariant = iota + 1
	ShowDescription
	ShowLabels
	ShowProject
	ShowSection
)

func (s ShowMetadataVariant) String() string {
	switch s {
	case ShowDue:
		return "due"
	case ShowDescription:
		return "description"
	case ShowLabels:
		return "labels"
	case ShowProject:
		return "project"
	case ShowSection:
		return "section"
	default:
		return "unknown"
	}
}

// ShowSet is the set of metadata a query displays.
type ShowSet map[ShowMetadataVariant]bool

// Has reports whether v is displayed.
func (s ShowSet) Has(v ShowMetadataVariant) bool { return s[v] }

// DefaultShow returns the metadata displayed when a query does not say.
func DefaultShow() ShowSet {
	return ShowSet{
		ShowDue:         true,
		ShowDescription: true,
		ShowLabels:      true,
		ShowProject:     true,
	}
}

// GroupVariant is the dimension tasks are grouped by.
type GroupVariant int

const (
	GroupNone GroupVariant = iota
	GroupProject
	GroupSection
	GroupPriority
	GroupDate
	GroupLabel
)

func (g GroupVariant) String() string {
	switch g {
	case GroupProject:
		return "project"
	case GroupSection:
		return "section"
	case GroupPriority:
		return "priority"
	case GroupDate:
		return "date"
	case GroupLabel:
		return "label"
	default:
		return "none"
	}
}

// ViewOptions adjust how an empty result is displayed.
type ViewOptions struct {
	HideNoTasks    bool
	NoTasksMessage string
}

// Query is one parsed code block. It is immutable once Parse returns it.
type Query struct {
	Name        string
	Filter      string
	AutoRefresh time.Duration // zero means use the global default, if enabled
	Sorting     []SortingVariant
	Show        ShowSet
	GroupBy     GroupVariant
	View        ViewOptions
}

// TaskCountToken is replaced by the number of tasks in a query's title.
const TaskCountToken = "{task_count}"

// Title returns the query name with the task count filled in. An empty name
// means no title is shown.
func (q *Query) Title(taskCount int) string {
	return strings.ReplaceAll(q.Name, TaskCountToken, strconv.Itoa(taskCount))
}
