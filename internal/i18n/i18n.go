// Package i18n holds the translation tables used for user-facing strings:
// relative date words, group headers, placeholder names and error
// callouts.
//
// There is no process-wide active language. A *Translations value is built
// once at startup and passed to whatever formats text.
package i18n

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Translations is one language's string table. Keys missing from an
// override file keep their built-in value.
type Translations struct {
	Language string `toml:"language"`

	Dates        DateStrings        `toml:"dates"`
	Groups       GroupStrings       `toml:"groups"`
	Placeholders PlaceholderStrings `toml:"placeholders"`
	Errors       ErrorStrings       `toml:"errors"`
	Render       RenderStrings      `toml:"render"`
}

// DateStrings formats due dates. Layouts use Go reference-time syntax.
type DateStrings struct {
	Today       string `toml:"today"`
	Tomorrow    string `toml:"tomorrow"`
	Yesterday   string `toml:"yesterday"`
	LastWeekday string `toml:"last_weekday"` // %s is the weekday name

	// Weekdays overrides weekday names, Sunday first.
	Weekdays []string `toml:"weekdays"`

	DateLayout         string `toml:"date_layout"`
	DateWithYearLayout string `toml:"date_with_year_layout"`
	TimeLayout         string `toml:"time_layout"`
	DateTime           string `toml:"date_time"` // %[1]s is the date, %[2]s the time
}

// GroupStrings are the headers of synthetic groups.
type GroupStrings struct {
	Overdue   string `toml:"overdue"`
	NoDueDate string `toml:"no_due_date"`
	NoLabel   string `toml:"no_label"`
	Priority  string `toml:"priority"` // %d is the displayed priority
}

// PlaceholderStrings name entities a task references but the cache lacks.
type PlaceholderStrings struct {
	UnknownProject string `toml:"unknown_project"`
	UnknownSection string `toml:"unknown_section"`
	UnknownLabel   string `toml:"unknown_label"`
}

// ErrorStrings are the callouts shown in place of a query's tasks.
type ErrorStrings struct {
	ParseFailed  string `toml:"parse_failed"`
	BadRequest   string `toml:"bad_request"`
	Unauthorized string `toml:"unauthorized"`
	Forbidden    string `toml:"forbidden"`
	ServerError  string `toml:"server_error"`
	Unknown      string `toml:"unknown"`
	NotReady     string `toml:"not_ready"`
	CloseFailed  string `toml:"close_failed"`
}

// RenderStrings are miscellaneous labels used when printing a query.
type RenderStrings struct {
	NoTasks  string `toml:"no_tasks"`
	Warnings string `toml:"warnings"`
	Closed   string `toml:"closed"`
	Created  string `toml:"created"`
}

// English returns the built-in English table.
func English() *Translations {
	return &Translations{
		Language: "en",
		Dates: DateStrings{
			Today:              "Today",
			Tomorrow:           "Tomorrow",
			Yesterday:          "Yesterday",
			LastWeekday:        "Last %s",
			DateLayout:         "Jan 2",
			DateWithYearLayout: "Jan 2, 2006",
			TimeLayout:         "15:04",
			DateTime:           "%[1]s %[2]s",
		},
		Groups: GroupStrings{
			Overdue:   "Overdue",
			NoDueDate: "No due date",
			NoLabel:   "No label",
			Priority:  "Priority %d",
		},
		Placeholders: PlaceholderStrings{
			UnknownProject: "Unknown project",
			UnknownSection: "Unknown section",
			UnknownLabel:   "Unknown label",
		},
		Errors: ErrorStrings{
			ParseFailed:  "Error: Failed to parse query",
			BadRequest:   "The Todoist API rejected the request. Check that the filter is valid.",
			Unauthorized: "The Todoist API rejected the token. Check the configured API token.",
			Forbidden:    "The Todoist API denied access to this resource.",
			ServerError:  "The Todoist API had an internal error. Try again later.",
			Unknown:      "Unknown error while fetching tasks. Check the logs for details.",
			NotReady:     "Waiting for the first sync with Todoist.",
			CloseFailed:  "Failed to close task",
		},
		Render: RenderStrings{
			NoTasks:  "No tasks match this query",
			Warnings: "Warnings",
			Closed:   "Task closed",
			Created:  "Task created",
		},
	}
}

// German returns the built-in German table.
func German() *Translations {
	t := English()
	t.Language = "de"
	t.Dates = DateStrings{
		Today:              "Heute",
		Tomorrow:           "Morgen",
		Yesterday:          "Gestern",
		LastWeekday:        "Letzten %s",
		Weekdays:           []string{"Sonntag", "Montag", "Dienstag", "Mittwoch", "Donnerstag", "Freitag", "Samstag"},
		DateLayout:         "2. Jan",
		DateWithYearLayout: "2. Jan 2006",
		TimeLayout:         "15:04",
		DateTime:           "%[1]s %[2]s",
	}
	t.Groups = GroupStrings{
		Overdue:   "Überfällig",
		NoDueDate: "Kein Fälligkeitsdatum",
		NoLabel:   "Kein Label",
		Priority:  "Priorität %d",
	}
	t.Placeholders = PlaceholderStrings{
		UnknownProject: "Unbekanntes Projekt",
		UnknownSection: "Unbekannter Abschnitt",
		UnknownLabel:   "Unbekanntes Label",
	}
	t.Render.NoTasks = "Keine Aufgaben für diese Abfrage"
	t.Render.Warnings = "Warnungen"
	return t
}

var builtin = map[string]func() *Translations{
	"en": English,
	"de": German,
}

// ForLanguage returns the built-in table for a BCP 47 tag such as "de" or
// "en-GB". Unknown languages get English.
func ForLanguage(tag string) *Translations {
	base, _, _ := strings.Cut(strings.ToLower(tag), "-")
	if fn, ok := builtin[base]; ok {
		return fn()
	}
	return English()
}

// LoadFile reads a TOML override file on top of the built-in table for the
// language it declares (English if it declares none). Unknown keys are
// rejected so typos do not go unnoticed.
func LoadFile(path string) (*Translations, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read translations: %w", err)
	}
	return Parse(data)
}

// Parse is LoadFile for in-memory data.
func Parse(data []byte) (*Translations, error) {
	var head struct {
		Language string `toml:"language"`
	}
	if _, err := toml.Decode(string(data), &head); err != nil {
		return nil, fmt.Errorf("parse translations: %w", err)
	}

	t := ForLanguage(head.Language)
	md, err := toml.Decode(string(data), t)
	if err != nil {
		return nil, fmt.Errorf("parse translations: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("parse translations: unknown keys: %s", strings.Join(keys, ", "))
	}
	if n := len(t.Dates.Weekdays); n != 0 && n != 7 {
		return nil, fmt.Errorf("parse translations: dates.weekdays needs 7 names, got %d", n)
	}
	return t, nil
}

// Weekday returns the display name of d.
func (t *Translations) Weekday(d time.Weekday) string {
	if len(t.Dates.Weekdays) == 7 {
		return t.Dates.Weekdays[d]
	}
	return d.String()
}

// PriorityHeader formats the group header for a displayed priority.
func (t *Translations) PriorityHeader(display int) string {
	return fmt.Sprintf(t.Groups.Priority, display)
}
