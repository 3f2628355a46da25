package timeparsing

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var nlp = newParser()

func newParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// ParseNaturalLanguage parses English expressions like "tomorrow",
// "next monday at 2pm" or "3 days ago" relative to now.
func ParseNaturalLanguage(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty time expression")
	}
	r, err := nlp.Parse(s, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %q: %w", s, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("no date found in %q", s)
	}
	return r.Time, nil
}

// ParseRelativeTime tries each layer in turn: compact duration, absolute
// date or timestamp, then natural language.
func ParseRelativeTime(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if IsCompactDuration(s) {
		return ParseCompactDuration(s, now)
	}
	if t, err := time.ParseInLocation("2006-01-02", s, now.Location()); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := ParseNaturalLanguage(s, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized time expression %q", s)
	}
	return t, nil
}

// clockRe spots an explicit time of day in an expression.
var clockRe = regexp.MustCompile(`(?i)\d\s*(am|pm)\b|\d{1,2}:\d{2}|\bnoon\b|\bmidnight\b`)

var recurringRe = regexp.MustCompile(`(?i)^(every|each|after)\b`)

// Due is a parsed due date ready for the task API. Exactly one field is set.
type Due struct {
	Date     string // YYYY-MM-DD
	DateTime string // RFC3339
	String   string // passed through for the server to interpret
}

// ParseDue turns a --due argument into a Due. Expressions with a time of
// day or an hour offset become DateTime; other recognized expressions
// become Date. Anything unrecognized is passed through as String so the
// server's own parser can handle recurring phrases like "every monday".
func ParseDue(s string, now time.Time) Due {
	s = strings.TrimSpace(s)
	if s == "" {
		return Due{}
	}
	if recurringRe.MatchString(s) {
		return Due{String: s}
	}
	t, err := ParseRelativeTime(s, now)
	if err != nil {
		return Due{String: s}
	}
	timed := clockRe.MatchString(s) || strings.HasSuffix(s, "h") && IsCompactDuration(s)
	if _, rfcErr := time.Parse(time.RFC3339, s); rfcErr == nil {
		timed = true
	}
	if timed {
		return Due{DateTime: t.UTC().Format(time.RFC3339)}
	}
	return Due{Date: t.Format("2006-01-02")}
}
