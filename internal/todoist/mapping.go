// internal/todoist/mapping.go
package todoist

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/steveyegge/todoq/internal/types"
)

// floatingLayout is how the API writes due times that carry no offset.
const floatingLayout = "2006-01-02T15:04:05"

func (p Project) toDomain() types.Project {
	out := types.Project{
		ID:           types.ProjectID(p.ID),
		Name:         p.Name,
		Color:        p.Color,
		ChildOrder:   p.ChildOrder,
		InboxProject: p.InboxProject,
		IsDeleted:    p.IsDeleted,
		IsArchived:   p.IsArchived,
	}
	if p.ParentID != nil && *p.ParentID != "" {
		parent := types.ProjectID(*p.ParentID)
		out.ParentID = &parent
	}
	return out
}

func (s Section) toDomain() types.Section {
	return types.Section{
		ID:           types.SectionID(s.ID),
		Name:         s.Name,
		ProjectID:    types.ProjectID(s.ProjectID),
		SectionOrder: s.SectionOrder,
		IsDeleted:    s.IsDeleted,
		IsArchived:   s.IsArchived,
	}
}

func (l Label) toDomain() types.Label {
	return types.Label{
		ID:         types.LabelID(l.ID),
		Name:       l.Name,
		Color:      l.Color,
		ItemOrder:  l.ItemOrder,
		IsFavorite: l.IsFavorite,
		IsDeleted:  l.IsDeleted,
	}
}

// ParseDue converts the wire due object. A nil input yields nil.
func ParseDue(d *Due, loc *time.Location) (*types.DueDate, error) {
	if d == nil {
		return nil, nil
	}
	if loc == nil {
		loc = time.Local
	}

	date, err := civil.ParseDate(d.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid due date %q: %w", d.Date, err)
	}
	out := &types.DueDate{
		Date:        date,
		IsRecurring: d.IsRecurring,
		String:      d.String,
		Timezone:    d.Timezone,
	}
	if d.Datetime == "" {
		return out, nil
	}

	dt, err := ParseTimestamp(d.Datetime, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid due datetime %q: %w", d.Datetime, err)
	}
	out.DateTime = &dt
	return out, nil
}

// ParseTimestamp reads an API timestamp. Values without an offset are
// interpreted in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(floatingLayout, trimFraction(s), loc)
}

// trimFraction drops a fractional-seconds suffix from a floating timestamp.
func trimFraction(s string) string {
	if len(s) > len(floatingLayout) && s[len(floatingLayout)] == '.' {
		return s[:len(floatingLayout)]
	}
	return s
}
