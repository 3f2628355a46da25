package adapter

import (
	"github.com/steveyegge/todoq/internal/todoist"
	"github.com/steveyegge/todoq/internal/types"
)

// hydrate joins a raw task against the metadata caches. References the
// caches cannot resolve are replaced by placeholders, never reported as
// errors.
func (a *Adapter) hydrate(raw *todoist.Task) types.Task {
	t := types.Task{
		ID:          types.TaskID(raw.ID),
		Content:     raw.Content,
		Description: raw.Description,
		Priority:    types.Priority(raw.Priority),
		Order:       raw.Order,
		URL:         raw.URL,
	}

	if raw.CreatedAt != "" {
		created, err := todoist.ParseTimestamp(raw.CreatedAt, a.loc)
		if err != nil {
			a.logger.Debug("adapter: bad created_at", "task", raw.ID, "value", raw.CreatedAt, "error", err)
		} else {
			t.CreatedAt = created
		}
	}

	t.Project = a.resolveProject(types.ProjectID(raw.ProjectID))

	if raw.SectionID != nil && *raw.SectionID != "" {
		id := types.SectionID(*raw.SectionID)
		s, ok := a.sections.ByID(id)
		if !ok {
			s = types.UnknownSection(id, t.Project.ID, a.t.Placeholders.UnknownSection)
		}
		t.Section = &s
	}

	if raw.ParentID != nil && *raw.ParentID != "" {
		parent := types.TaskID(*raw.ParentID)
		t.ParentID = &parent
	}

	if len(raw.Labels) > 0 {
		t.Labels = make([]types.Label, 0, len(raw.Labels))
		for _, name := range raw.Labels {
			t.Labels = append(t.Labels, a.resolveLabel(name))
		}
	}

	if raw.Due != nil {
		due, err := todoist.ParseDue(raw.Due, a.loc)
		if err != nil {
			a.logger.Debug("adapter: bad due date", "task", raw.ID, "error", err)
		} else {
			t.Due = due
		}
	}
	return t
}

func (a *Adapter) resolveProject(id types.ProjectID) types.Project {
	if p, ok := a.projects.ByID(id); ok {
		return p
	}
	return types.UnknownProject(id, a.t.Placeholders.UnknownProject)
}

// resolveLabel looks a label up by name, since tasks reference labels by
// name. An unknown label keeps the name the task carries.
func (a *Adapter) resolveLabel(name string) types.Label {
	if l, ok := a.labels.ByName(name); ok {
		return l
	}
	if name == "" {
		name = a.t.Placeholders.UnknownLabel
	}
	return types.UnknownLabel(name)
}
