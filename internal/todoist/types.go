// internal/todoist/types.go
package todoist

// Task is a task as returned by the REST v2 API.
type Task struct {
	ID           string   `json:"id"`
	ProjectID    string   `json:"project_id"`
	SectionID    *string  `json:"section_id"`
	ParentID     *string  `json:"parent_id"`
	Content      string   `json:"content"`
	Description  string   `json:"description"`
	IsCompleted  bool     `json:"is_completed"`
	Labels       []string `json:"labels"` // label names, not ids
	Order        int      `json:"order"`
	Priority     int      `json:"priority"` // 1 (normal) - 4 (urgent)
	Due          *Due     `json:"due"`
	URL          string   `json:"url"`
	CommentCount int      `json:"comment_count"`
	CreatedAt    string   `json:"created_at"`
	CreatorID    string   `json:"creator_id,omitempty"`
}

// Due is the due object attached to a task.
type Due struct {
	Date        string `json:"date"`               // YYYY-MM-DD
	Datetime    string `json:"datetime,omitempty"` // RFC3339, or floating without offset
	String      string `json:"string"`
	IsRecurring bool   `json:"is_recurring"`
	Timezone    string `json:"timezone,omitempty"`
	Lang        string `json:"lang,omitempty"`
}

// CreateTaskParams are the optional fields accepted when creating a task.
type CreateTaskParams struct {
	Description string   `json:"description,omitempty"`
	ProjectID   string   `json:"project_id,omitempty"`
	SectionID   string   `json:"section_id,omitempty"`
	ParentID    string   `json:"parent_id,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	Priority    int      `json:"priority,omitempty"`
	DueString   string   `json:"due_string,omitempty"`
	DueDate     string   `json:"due_date,omitempty"`
	DueDatetime string   `json:"due_datetime,omitempty"`
	DueLang     string   `json:"due_lang,omitempty"`
}

// createTaskRequest is the request body of POST /rest/v2/tasks.
type createTaskRequest struct {
	Content string `json:"content"`
	CreateTaskParams
}

// Project is a project as returned by the Sync v9 API.
type Project struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Color        string  `json:"color"`
	ParentID     *string `json:"parent_id"`
	ChildOrder   int     `json:"child_order"`
	IsCollapsed  bool    `json:"collapsed"`
	InboxProject bool    `json:"inbox_project,omitempty"`
	IsDeleted    bool    `json:"is_deleted"`
	IsArchived   bool    `json:"is_archived"`
	IsFavorite   bool    `json:"is_favorite"`
	ViewStyle    string  `json:"view_style,omitempty"`
}

// Section is a section as returned by the Sync v9 API.
type Section struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ProjectID    string `json:"project_id"`
	SectionOrder int    `json:"section_order"`
	IsCollapsed  bool   `json:"collapsed"`
	IsDeleted    bool   `json:"is_deleted"`
	IsArchived   bool   `json:"is_archived"`
}

// Label is a personal label as returned by the Sync v9 API.
type Label struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Color      string `json:"color"`
	ItemOrder  int    `json:"item_order"`
	IsDeleted  bool   `json:"is_deleted"`
	IsFavorite bool   `json:"is_favorite"`
}

// syncResponse is the subset of a Sync v9 response the client reads.
type syncResponse struct {
	FullSync  bool      `json:"full_sync"`
	SyncToken string    `json:"sync_token"`
	Projects  []Project `json:"projects"`
	Sections  []Section `json:"sections"`
	Labels    []Label   `json:"labels"`
}

// User is the subset of the user resource returned by the Sync API.
type User struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Timezone struct {
		Timezone string `json:"timezone"`
	} `json:"tz_info"`
}

type userSyncResponse struct {
	User User `json:"user"`
}
