package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steveyegge/todoq/internal/adapter"
	"github.com/steveyegge/todoq/internal/ui"
)

var projectsShowIDs bool

// projectJSON is the --json shape of a project node.
type projectJSON struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Sections []sectionJSON  `json:"sections,omitempty"`
	Children []*projectJSON `json:"children,omitempty"`
}

type sectionJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List projects and their sections as a tree",
	Long: `List active projects as a tree, with each project's sections.

Names are what filters use: #Project and /Section.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		s := mustSession()
		defer s.Close()

		roots := s.adapter.Data().ProjectHierarchy()
		if jsonOutput {
			out := make([]*projectJSON, 0, len(roots))
			for _, n := range roots {
				out = append(out, projectNodeJSON(n))
			}
			outputJSON(out)
			return
		}
		var b strings.Builder
		writeProjectTree(&b, roots, "", true)
		fmt.Print(b.String())
	},
}

func projectNodeJSON(n *adapter.ProjectNode) *projectJSON {
	j := &projectJSON{ID: string(n.Project.ID), Name: n.Project.Name}
	for _, s := range n.Sections {
		j.Sections = append(j.Sections, sectionJSON{ID: string(s.ID), Name: s.Name})
	}
	for _, c := range n.Children {
		j.Children = append(j.Children, projectNodeJSON(c))
	}
	return j
}

// writeProjectTree draws projects with box characters. Roots are drawn
// flush left; sections are listed before sub-projects.
func writeProjectTree(b *strings.Builder, nodes []*adapter.ProjectNode, prefix string, root bool) {
	for i, n := range nodes {
		branch, childPrefix := "", prefix
		if !root {
			branch, childPrefix = ui.TreeChild, prefix+"│  "
			if i == len(nodes)-1 {
				branch, childPrefix = ui.TreeLast, prefix+"   "
			}
		}
		name := ui.RenderCategory("#" + n.Project.Name)
		if projectsShowIDs {
			name += " " + ui.RenderMuted(string(n.Project.ID))
		}
		fmt.Fprintf(b, "%s%s\n", ui.RenderMuted(prefix+branch), name)

		for j, sec := range n.Sections {
			br := ui.TreeChild
			if j == len(n.Sections)-1 && len(n.Children) == 0 {
				br = ui.TreeLast
			}
			line := "/" + sec.Name
			if projectsShowIDs {
				line += " " + ui.RenderMuted(string(sec.ID))
			}
			fmt.Fprintf(b, "%s%s\n", ui.RenderMuted(childPrefix+br), line)
		}
		writeProjectTree(b, n.Children, childPrefix, false)
	}
}

func init() {
	projectsCmd.Flags().BoolVar(&projectsShowIDs, "ids", false, "Show project and section ids")
	rootCmd.AddCommand(projectsCmd)
}
