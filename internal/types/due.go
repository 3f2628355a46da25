package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Priority is Todoist's raw priority: 1 (normal) through 4 (urgent).
// The Todoist UI labels these the other way round, so raw 4 is shown as
// "Priority 1".
type Priority int

const (
	PriorityNormal Priority = 1
	PriorityMedium Priority = 2
	PriorityHigh   Priority = 3
	PriorityUrgent Priority = 4
)

// Display returns the number the Todoist UI shows for this priority.
func (p Priority) Display() int {
	return 5 - int(p)
}

// IsValid reports whether p is inside the API range.
func (p Priority) IsValid() bool {
	return p >= PriorityNormal && p <= PriorityUrgent
}

// ParsePriority accepts either the UI form ("p1".."p4") or the raw API
// number ("1".."4").
func ParsePriority(s string) (Priority, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.HasPrefix(s, "p") {
		n, err := strconv.Atoi(s[1:])
		if err != nil || n < 1 || n > 4 {
			return 0, fmt.Errorf("invalid priority %q (expected p1-p4)", s)
		}
		return Priority(5 - n), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || !Priority(n).IsValid() {
		return 0, fmt.Errorf("invalid priority %q (expected 1-4 or p1-p4)", s)
	}
	return Priority(n), nil
}

// DueDate is the due information of a task. Date is always set; DateTime is
// set only when the task is due at a specific time of day.
type DueDate struct {
	Date        civil.Date `json:"date"`
	DateTime    *time.Time `json:"datetime,omitempty"`
	IsRecurring bool       `json:"is_recurring,omitempty"`
	String      string     `json:"string,omitempty"`
	Timezone    string     `json:"timezone,omitempty"`
}

// HasTime reports whether the due date carries a time of day.
func (d *DueDate) HasTime() bool {
	return d != nil && d.DateTime != nil
}

// Day returns the calendar day the task is due on as seen from loc.
func (d *DueDate) Day(loc *time.Location) civil.Date {
	if d.DateTime != nil {
		if loc == nil {
			loc = time.Local
		}
		return civil.DateOf(d.DateTime.In(loc))
	}
	return d.Date
}
