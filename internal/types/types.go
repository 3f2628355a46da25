// Package types defines the core data structures shared by the todoq packages:
// the cached Todoist metadata entities (projects, sections, labels) and the
// hydrated task that queries render.
package types

import (
	"math"
	"time"
)

// Identifiers are opaque strings issued by Todoist. Distinct types keep a
// section id from being looked up in the project cache by accident.
type (
	ProjectID string
	SectionID string
	LabelID   string
	TaskID    string
)

// Entity is the shape every cached metadata record has. Repositories are
// generic over it.
type Entity[ID comparable] interface {
	EntityID() ID
	EntityName() string
	Deleted() bool
	Archived() bool
}

// Project is a Todoist project as cached by the adapter.
type Project struct {
	ID           ProjectID  `json:"id"`
	Name         string     `json:"name"`
	ParentID     *ProjectID `json:"parent_id,omitempty"`
	Color        string     `json:"color,omitempty"`
	ChildOrder   int        `json:"child_order"`
	InboxProject bool       `json:"inbox_project,omitempty"`
	IsDeleted    bool       `json:"is_deleted,omitempty"`
	IsArchived   bool       `json:"is_archived,omitempty"`
}

func (p Project) EntityID() ProjectID { return p.ID }
func (p Project) EntityName() string { return p.Name }
func (p Project) Deleted() bool { return p.IsDeleted }
func (p Project) Archived() bool { return p.IsArchived }

// Section groups tasks inside one project.
type Section struct {
	ID           SectionID `json:"id"`
	Name         string    `json:"name"`
	ProjectID    ProjectID `json:"project_id"`
	SectionOrder int       `json:"section_order"`
	IsDeleted    bool      `json:"is_deleted,omitempty"`
	IsArchived   bool      `json:"is_archived,omitempty"`
}

func (s Section) EntityID() SectionID { return s.ID }
func (s Section) EntityName() string { return s.Name }
func (s Section) Deleted() bool { return s.IsDeleted }
func (s Section) Archived() bool { return s.IsArchived }

// Label is a personal label. Labels cannot be archived.
type Label struct {
	ID         LabelID `json:"id"`
	Name       string  `json:"name"`
	Color      string  `json:"color,omitempty"`
	ItemOrder  int     `json:"item_order"`
	IsFavorite bool    `json:"is_favorite,omitempty"`
	IsDeleted  bool    `json:"is_deleted,omitempty"`
}

func (l Label) EntityID() LabelID { return l.ID }
func (l Label) EntityName() string { return l.Name }
func (l Label) Deleted() bool { return l.IsDeleted }
func (l Label) Archived() bool { return false }

// Placeholder ids used when a task references metadata the cache does not
// know about (yet).
const (
	UnknownProjectID ProjectID = "unknown-project"
	UnknownSectionID SectionID = "unknown-section"
	UnknownLabelID   LabelID   = "unknown-label"
)

// UnknownProject builds the stand-in for a project missing from the cache.
// The original id is kept so grouping still separates distinct dangling
// references.
func UnknownProject(id ProjectID, name string) Project {
	if id == "" {
		id = UnknownProjectID
	}
	return Project{ID: id, Name: name, ChildOrder: math.MaxInt}
}

// UnknownSection builds the stand-in for a section missing from the cache.
func UnknownSection(id SectionID, projectID ProjectID, name string) Section {
	if id == "" {
		id = UnknownSectionID
	}
	return Section{ID: id, Name: name, ProjectID: projectID, SectionOrder: math.MaxInt}
}

// UnknownLabel builds the stand-in for a label missing from the cache.
func UnknownLabel(name string) Label {
	return Label{ID: UnknownLabelID, Name: name}
}

// Task is a task as fetched for a query and joined against the metadata
// caches. It is rebuilt on every fetch and never cached.
type Task struct {
	ID          TaskID    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Content     string    `json:"content"`
	Description string    `json:"description,omitempty"`
	Project     Project   `json:"project"`
	Section     *Section  `json:"section,omitempty"`
	ParentID    *TaskID   `json:"parent_id,omitempty"`
	Labels      []Label   `json:"labels,omitempty"`
	Priority    Priority  `json:"priority"`
	Due         *DueDate  `json:"due,omitempty"`
	Order       int       `json:"order"`
	URL         string    `json:"url,omitempty"`
}

// TaskTree is a task with its subtasks attached, built per render.
type TaskTree struct {
	Task
	Children []*TaskTree `json:"children,omitempty"`
}
