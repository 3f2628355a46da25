package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyegge/todoq/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Refresh the cached projects, sections and labels",
	Long: `Fetch project, section and label changes from Todoist and update the
local metadata cache.

The first sync after installation downloads everything; later runs only
fetch what changed.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		start := time.Now()
		s := mustSession()
		defer s.Close()

		d := s.adapter.Data()
		counts := map[string]int{
			"projects": d.Projects.Len(),
			"sections": d.Sections.Len(),
			"labels":   d.Labels.Len(),
		}
		if jsonOutput {
			outputJSON(counts)
			return
		}
		if quietFlag {
			return
		}
		fmt.Printf("%s Synced %d projects, %d sections, %d labels %s\n",
			ui.RenderPassIcon(), counts["projects"], counts["sections"], counts["labels"],
			ui.RenderMuted(fmt.Sprintf("(%s)", time.Since(start).Round(time.Millisecond))))
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
