package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/steveyegge/todoq/internal/adapter"
	"github.com/steveyegge/todoq/internal/timeparsing"
	"github.com/steveyegge/todoq/internal/todoist"
	"github.com/steveyegge/todoq/internal/types"
	"github.com/steveyegge/todoq/internal/ui"
	"github.com/steveyegge/todoq/internal/util"
)

var (
	addProject     string
	addSection     string
	addLabels      []string
	addPriority    string
	addDue         string
	addDescription string
)

var addCmd = &cobra.Command{
	Use:   "add [content]",
	Short: "Create a task",
	Long: `Create a task in Todoist.

Projects and sections are given by name (or id). --due accepts dates such as
"2025-03-01", compact offsets such as "+3d" or "+2h", and phrases such as
"tomorrow 5pm". Recurring phrases like "every monday" are sent to Todoist
as written.

With no content on a terminal, an interactive form is shown.

Examples:
  todoq add "Pay rent" --due "+3d" --priority p1
  todoq add "Draft agenda" --project Work --section Meetings --labels prep,team`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var content string
		if len(args) == 1 {
			content = strings.TrimSpace(args[0])
		} else if ui.IsTerminal() && !jsonOutput {
			content = runAddForm()
		}
		if content == "" {
			FatalErrorWithHint("task content is required", "Pass it as an argument: todoq add \"Buy milk\"")
		}

		s := mustSession()
		defer s.Close()

		params, err := buildCreateParams(s.adapter.Data(), time.Now().In(s.loc))
		if err != nil {
			FatalError("%v", err)
		}
		task, err := s.adapter.Actions().CreateTask(rootCtx, content, params)
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(task)
		}
	},
}

// buildCreateParams resolves the add flags against the cached metadata.
func buildCreateParams(d adapter.Data, now time.Time) (todoist.CreateTaskParams, error) {
	p := todoist.CreateTaskParams{Description: addDescription}

	var projectID types.ProjectID
	if addProject != "" {
		proj, ok := d.Projects.ByName(addProject)
		if !ok {
			proj, ok = d.Projects.ByID(types.ProjectID(addProject))
		}
		if !ok {
			return p, fmt.Errorf("unknown project %q", addProject)
		}
		projectID = proj.ID
		p.ProjectID = string(proj.ID)
	}

	if addSection != "" {
		sec, ok := findSection(d, projectID, addSection)
		if !ok {
			return p, fmt.Errorf("unknown section %q", addSection)
		}
		p.SectionID = string(sec.ID)
		if p.ProjectID == "" {
			p.ProjectID = string(sec.ProjectID)
		}
	}

	if labels := util.NormalizeLabels(addLabels); len(labels) > 0 {
		p.Labels = labels
	}

	if addPriority != "" {
		pr, err := types.ParsePriority(addPriority)
		if err != nil {
			return p, err
		}
		p.Priority = int(pr)
	}

	due := timeparsing.ParseDue(addDue, now)
	p.DueDate, p.DueDatetime, p.DueString = due.Date, due.DateTime, due.String
	return p, nil
}

// findSection looks a section up by name, limited to projectID when set,
// then by id.
func findSection(d adapter.Data, projectID types.ProjectID, name string) (types.Section, bool) {
	for s := range d.Sections.IterActive() {
		if s.Name == name && (projectID == "" || s.ProjectID == projectID) {
			return s, true
		}
	}
	s, ok := d.Sections.ByID(types.SectionID(name))
	if ok && projectID != "" && s.ProjectID != projectID {
		return types.Section{}, false
	}
	return s, ok
}

// runAddForm prompts for the task fields and fills the add flags from the
// answers. Returns the task content.
func runAddForm() string {
	var content, labelsInput string
	if addPriority == "" {
		addPriority = "p4"
	}

	priorityOptions := []huh.Option[string]{
		huh.NewOption("P1 - Urgent", "p1"),
		huh.NewOption("P2 - High", "p2"),
		huh.NewOption("P3 - Medium", "p3"),
		huh.NewOption("P4 - Normal (default)", "p4"),
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Task").
				Placeholder("e.g., Review pull requests").
				Value(&content).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("task content is required")
					}
					return nil
				}),

			huh.NewText().
				Title("Description").
				Description("Optional, markdown allowed").
				CharLimit(16384).
				Value(&addDescription),

			huh.NewSelect[string]().
				Title("Priority").
				Options(priorityOptions...).
				Value(&addPriority),
		),

		huh.NewGroup(
			huh.NewInput().
				Title("Due").
				Description("e.g., tomorrow 5pm, +3d, 2025-03-01, every monday (optional)").
				Value(&addDue),

			huh.NewInput().
				Title("Project").
				Description("Project name (optional, default Inbox)").
				Value(&addProject),

			huh.NewInput().
				Title("Section").
				Description("Section name (optional)").
				Value(&addSection),

			huh.NewInput().
				Title("Labels").
				Description("Comma-separated (optional)").
				Value(&labelsInput),
		),
	).WithTheme(huh.ThemeDracula())

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Fprintln(os.Stderr, "Task creation cancelled.")
			os.Exit(0)
		}
		FatalError("form error: %v", err)
	}

	if labelsInput != "" {
		addLabels = append(addLabels, labelsInput)
	}
	return strings.TrimSpace(content)
}

func init() {
	addCmd.Flags().StringVarP(&addProject, "project", "p", "", "Project name or id")
	addCmd.Flags().StringVarP(&addSection, "section", "s", "", "Section name or id")
	addCmd.Flags().StringSliceVarP(&addLabels, "labels", "l", nil, "Comma-separated label names")
	addCmd.Flags().StringVar(&addPriority, "priority", "", "Priority p1 (urgent) to p4 (normal), or raw 1-4")
	addCmd.Flags().StringVar(&addDue, "due", "", "Due date: 2025-03-01, +3d, tomorrow 5pm, every monday")
	addCmd.Flags().StringVarP(&addDescription, "description", "d", "", "Task description")
	rootCmd.AddCommand(addCmd)
}
