package query

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Top-level keys a query block may contain.
const (
	keyName        = "name"
	keyFilter      = "filter"
	keyAutoRefresh = "autorefresh"
	keySorting     = "sorting"
	keyShow        = "show"
	keyGroupBy     = "groupBy"
	keyView        = "view"

	keyHideNoTasks    = "hideNoTasks"
	keyNoTasksMessage = "noTasksMessage"
)

var knownKeys = []string{keyName, keyFilter, keyAutoRefresh, keySorting, keyShow, keyGroupBy, keyView}

var knownViewKeys = []string{keyHideNoTasks, keyNoTasksMessage}

// showNone is the literal that turns off all metadata.
const showNone = "none"

var sortingAliases = map[string]SortingVariant{
	"priority":               SortPriority,
	"priorityDescending":     SortPriority,
	"priorityAscending":      SortPriorityAscending,
	"date":                   SortDateAscending,
	"dateAscending":          SortDateAscending,
	"dateDescending":         SortDateDescending,
	"order":                  SortOrder,
	"dateAdded":              SortDateAddedAscending,
	"dateAddedAscending":     SortDateAddedAscending,
	"dateAddedDescending":    SortDateAddedDescending,
	"alphabetical":           SortAlphabeticalAscending,
	"alphabeticalAscending":  SortAlphabeticalAscending,
	"alphabeticalDescending": SortAlphabeticalDescending,
}

var showAliases = map[string]ShowMetadataVariant{
	"due":         ShowDue,
	"date":        ShowDue,
	"description": ShowDescription,
	"labels":      ShowLabels,
	"label":       ShowLabels,
	"project":     ShowProject,
	"section":     ShowSection,
}

var groupAliases = map[string]GroupVariant{
	"project":  GroupProject,
	"section":  GroupSection,
	"priority": GroupPriority,
	"date":     GroupDate,
	"due":      GroupDate,
	"label":    GroupLabel,
	"labels":   GroupLabel,
}

// aliasNames lists the accepted spellings of an alias table, sorted.
func aliasNames[V any](table map[string]V) []string {
	return slices.Sorted(maps.Keys(table))
}

// suggest returns the candidate closest to key, if any is within two edits.
func suggest(key string, candidates []string) string {
	best, bestDist := "", 3
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(strings.ToLower(key), strings.ToLower(c))
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func unknownKeyWarning(key string, candidates []string, prefix string) string {
	msg := fmt.Sprintf("unknown key '%s%s'", prefix, key)
	if s := suggest(key, candidates); s != "" {
		msg += fmt.Sprintf(" (did you mean '%s%s'?)", prefix, s)
	}
	return msg
}

func unknownValue(field, value string, candidates []string) string {
	msg := fmt.Sprintf("%s: unknown value '%s'", field, value)
	if s := suggest(value, candidates); s != "" {
		return msg + fmt.Sprintf(" (did you mean '%s'?)", s)
	}
	return msg + " (expected one of: " + strings.Join(candidates, ", ") + ")"
}
