package query

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DeprecatedJSONWarning is returned for blocks written in the old JSON
// syntax. They still parse.
const DeprecatedJSONWarning = "JSON query syntax is deprecated, please use YAML instead"

// maxAutoRefresh bounds a block's refresh interval.
const maxAutoRefresh = 24 * time.Hour

// Parse reads a query block. YAML is the preferred syntax; a block that is a
// JSON object is accepted with DeprecatedJSONWarning. Unknown keys and
// questionable combinations produce warnings. Any schema violation makes
// the whole block fail with a *ParseError listing every problem found.
func Parse(source string) (*Query, []string, error) {
	src := strings.TrimSpace(source)
	if src == "" {
		return nil, nil, newParseError("query is empty")
	}

	var warnings []string
	raw, legacy, err := decode(src)
	if err != nil {
		return nil, nil, err
	}
	if legacy {
		warnings = append(warnings, DeprecatedJSONWarning)
	}

	v := &validator{}
	q := v.validate(raw)
	warnings = append(warnings, v.warnings...)
	if len(v.errs) > 0 {
		return nil, warnings, &ParseError{Messages: v.errs}
	}
	return q, warnings, nil
}

// decode turns the block source into a generic mapping. legacy is set when
// the source was JSON.
func decode(src string) (raw map[string]any, legacy bool, err error) {
	if strings.HasPrefix(src, "{") && json.Valid([]byte(src)) {
		var obj map[string]any
		if err := json.Unmarshal([]byte(src), &obj); err == nil {
			return obj, true, nil
		}
	}

	var doc any
	if err := yaml.Unmarshal([]byte(src), &doc); err != nil {
		return nil, false, newParseError(fmt.Sprintf("invalid YAML: %v", err))
	}
	m, ok := asMap(doc)
	if !ok {
		return nil, false, newParseError("query must be a mapping of keys to values")
	}
	return m, false, nil
}

// asMap accepts both map shapes yaml.v3 can produce.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

type validator struct {
	warnings []string
	errs     []ErrorNode
}

func (v *validator) warnf(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) fail(msg string, children ...ErrorNode) {
	v.errs = append(v.errs, ErrorNode{Message: msg, Children: children})
}

func (v *validator) validate(raw map[string]any) *Query {
	q := &Query{
		Sorting: []SortingVariant{SortOrder},
		Show:    DefaultShow(),
	}

	for _, key := range slices.Sorted(maps.Keys(raw)) {
		if !slices.Contains(knownKeys, key) {
			v.warnings = append(v.warnings, unknownKeyWarning(key, knownKeys, ""))
		}
	}

	switch f, ok := raw[keyFilter]; {
	case !ok || f == nil:
		v.fail("filter: is required")
	default:
		if s, isStr := f.(string); isStr {
			q.Filter = s
		} else {
			v.fail("filter: must be a string")
		}
	}

	if n, ok := raw[keyName]; ok && n != nil {
		if s, isStr := n.(string); isStr {
			q.Name = s
		} else {
			v.fail("name: must be a string")
		}
	}

	if a, ok := raw[keyAutoRefresh]; ok && a != nil {
		secs, isNum := asNumber(a)
		switch {
		case !isNum:
			v.fail("autorefresh: must be a number of seconds")
		case secs < 0:
			v.fail("autorefresh: must not be negative")
		case secs > maxAutoRefresh.Seconds():
			v.fail(fmt.Sprintf("autorefresh: must be at most %d seconds", int(maxAutoRefresh.Seconds())))
		default:
			q.AutoRefresh = time.Duration(secs * float64(time.Second))
		}
	}

	if s, ok := raw[keySorting]; ok && s != nil {
		if sorting, ok := v.parseSorting(s); ok {
			q.Sorting = sorting
		}
	}

	if s, ok := raw[keyShow]; ok && s != nil {
		if show, ok := v.parseShow(s); ok {
			q.Show = show
		}
	}

	if g, ok := raw[keyGroupBy]; ok && g != nil {
		s, isStr := g.(string)
		group, known := groupAliases[s]
		switch {
		case !isStr:
			v.fail("groupBy: must be a string")
		case !known:
			v.fail(unknownValue(keyGroupBy, s, aliasNames(groupAliases)))
		default:
			q.GroupBy = group
		}
	}

	if view, ok := raw[keyView]; ok && view != nil {
		v.parseView(view, &q.View)
	}

	if len(v.errs) == 0 {
		v.checkSemantics(q)
	}
	return q
}

func (v *validator) parseSorting(raw any) ([]SortingVariant, bool) {
	list, ok := raw.([]any)
	if !ok {
		v.fail("sorting: must be an array of strings")
		return nil, false
	}
	valid := true
	out := make([]SortingVariant, 0, len(list))
	for i, item := range list {
		field := fmt.Sprintf("sorting[%d]", i)
		s, isStr := item.(string)
		if !isStr {
			v.fail(field + ": must be a string")
			valid = false
			continue
		}
		variant, known := sortingAliases[s]
		if !known {
			v.fail(unknownValue(field, s, aliasNames(sortingAliases)))
			valid = false
			continue
		}
		out = append(out, variant)
	}
	return out, valid
}

func (v *validator) parseShow(raw any) (ShowSet, bool) {
	noneAlt := ErrorNode{Message: fmt.Sprintf("show is the string '%s'", showNone)}
	listAlt := ErrorNode{Message: "show is an array of: " + strings.Join(aliasNames(showAliases), ", ")}

	switch val := raw.(type) {
	case string:
		if val == showNone {
			return ShowSet{}, true
		}
		noneAlt.Children = []ErrorNode{{Message: fmt.Sprintf("got the string '%s'", val)}}
		listAlt.Children = []ErrorNode{{Message: "got a string, not an array"}}
	case []any:
		out := ShowSet{}
		var problems []ErrorNode
		for i, item := range val {
			s, isStr := item.(string)
			variant, known := showAliases[s]
			switch {
			case !isStr:
				problems = append(problems, ErrorNode{Message: fmt.Sprintf("show[%d]: must be a string", i)})
			case !known:
				problems = append(problems, ErrorNode{Message: unknownValue(fmt.Sprintf("show[%d]", i), s, aliasNames(showAliases))})
			default:
				out[variant] = true
			}
		}
		if len(problems) == 0 {
			return out, true
		}
		noneAlt.Children = []ErrorNode{{Message: "got an array"}}
		listAlt.Children = problems
	default:
		noneAlt.Children = []ErrorNode{{Message: fmt.Sprintf("got %s", describe(raw))}}
		listAlt.Children = []ErrorNode{{Message: fmt.Sprintf("got %s", describe(raw))}}
	}

	v.fail("show: one of the following must hold", noneAlt, listAlt)
	return nil, false
}

func (v *validator) parseView(raw any, view *ViewOptions) {
	m, ok := asMap(raw)
	if !ok {
		v.fail("view: must be a mapping")
		return
	}
	for _, key := range slices.Sorted(maps.Keys(m)) {
		if !slices.Contains(knownViewKeys, key) {
			v.warnings = append(v.warnings, unknownKeyWarning(key, knownViewKeys, keyView+"."))
		}
	}
	if h, ok := m[keyHideNoTasks]; ok && h != nil {
		if b, isBool := h.(bool); isBool {
			view.HideNoTasks = b
		} else {
			v.fail("view.hideNoTasks: must be a boolean")
		}
	}
	if msg, ok := m[keyNoTasksMessage]; ok && msg != nil {
		if s, isStr := msg.(string); isStr {
			view.NoTasksMessage = s
		} else {
			v.fail("view.noTasksMessage: must be a string")
		}
	}
}

// checkSemantics warns about settings that are valid but cannot all take
// effect.
func (v *validator) checkSemantics(q *Query) {
	seen := make(map[SortingVariant]bool, len(q.Sorting))
	for _, s := range q.Sorting {
		if seen[s] {
			v.warnf("sorting: '%s' is listed more than once", s)
			continue
		}
		if opp, ok := s.opposite(); ok && seen[opp] {
			v.warnf("sorting: '%s' has no effect after '%s'", s, opp)
		}
		seen[s] = true
	}

	if q.Show.Has(ShowProject) && (q.GroupBy == GroupProject || q.GroupBy == GroupSection) {
		v.warnf("show: 'project' is redundant when grouping by %s", q.GroupBy)
	}

	if q.View.HideNoTasks && q.View.NoTasksMessage != "" {
		v.warnf("view: 'noTasksMessage' has no effect when 'hideNoTasks' is true")
	}
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func describe(v any) string {
	switch v.(type) {
	case bool:
		return "a boolean"
	case int, int64, uint64, float64:
		return "a number"
	case string:
		return "a string"
	case []any:
		return "an array"
	case map[string]any, map[any]any:
		return "a mapping"
	}
	return fmt.Sprintf("%T", v)
}
