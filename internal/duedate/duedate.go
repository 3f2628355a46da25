// Package duedate classifies due dates relative to today and formats them
// for task lines and date group headers.
package duedate

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/steveyegge/todoq/internal/i18n"
	"github.com/steveyegge/todoq/internal/types"
)

// Bucket is where a calendar day falls relative to today.
type Bucket int

const (
	Other Bucket = iota
	Today
	Tomorrow
	Yesterday
	NextWeek // 2 to 6 days ahead, shown as a weekday name
	LastWeek // 2 to 7 days back, shown as "Last <weekday>"
)

func (b Bucket) String() string {
	switch b {
	case Today:
		return "today"
	case Tomorrow:
		return "tomorrow"
	case Yesterday:
		return "yesterday"
	case NextWeek:
		return "nextWeek"
	case LastWeek:
		return "lastWeek"
	default:
		return "other"
	}
}

// Classify buckets day relative to today. A day exactly one week ahead is
// Other: a bare weekday name would read as the coming one, not next week's.
func Classify(day, today civil.Date) Bucket {
	diff := day.DaysSince(today)
	switch {
	case diff == 0:
		return Today
	case diff == 1:
		return Tomorrow
	case diff == -1:
		return Yesterday
	case diff >= 2 && diff <= 6:
		return NextWeek
	case diff >= -7 && diff <= -2:
		return LastWeek
	}
	return Other
}

// IsOverdue reports whether due lies in the past. All-day dues are overdue
// once their day is over; timed dues as soon as the instant has passed.
func IsOverdue(due *types.DueDate, now time.Time, loc *time.Location) bool {
	if due == nil {
		return false
	}
	if due.DateTime != nil {
		return due.DateTime.Before(now)
	}
	if loc == nil {
		loc = time.Local
	}
	return due.Date.Before(civil.DateOf(now.In(loc)))
}

// Formatter turns due dates into display text. The zero value is not
// usable; build one with NewFormatter.
type Formatter struct {
	T        *i18n.Translations
	Now      func() time.Time
	Location *time.Location
}

// NewFormatter creates a formatter. nil arguments select English, the wall
// clock and the local zone.
func NewFormatter(t *i18n.Translations, now func() time.Time, loc *time.Location) *Formatter {
	if t == nil {
		t = i18n.English()
	}
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &Formatter{T: t, Now: now, Location: loc}
}

// Today returns the current calendar day in the formatter's zone.
func (f *Formatter) Today() civil.Date {
	return civil.DateOf(f.Now().In(f.Location))
}

// IsOverdue is IsOverdue at the formatter's clock.
func (f *Formatter) IsOverdue(due *types.DueDate) bool {
	return IsOverdue(due, f.Now(), f.Location)
}

// FormatDay renders a calendar day: a relative word near today, otherwise a
// plain date that includes the year only outside the current year.
func (f *Formatter) FormatDay(day civil.Date) string {
	today := f.Today()
	ds := f.T.Dates
	switch Classify(day, today) {
	case Today:
		return ds.Today
	case Tomorrow:
		return ds.Tomorrow
	case Yesterday:
		return ds.Yesterday
	case NextWeek:
		return f.T.Weekday(weekday(day))
	case LastWeek:
		return fmt.Sprintf(ds.LastWeekday, f.T.Weekday(weekday(day)))
	}
	layout := ds.DateLayout
	if day.Year != today.Year {
		layout = ds.DateWithYearLayout
	}
	return day.In(f.Location).Format(layout)
}

// FormatDue renders a task's due date, adding the time of day when set.
func (f *Formatter) FormatDue(due *types.DueDate) string {
	if due == nil {
		return ""
	}
	day := f.FormatDay(due.Day(f.Location))
	if due.DateTime == nil {
		return day
	}
	clock := due.DateTime.In(f.Location).Format(f.T.Dates.TimeLayout)
	return fmt.Sprintf(f.T.Dates.DateTime, day, clock)
}

func weekday(d civil.Date) time.Weekday {
	return d.In(time.UTC).Weekday()
}
