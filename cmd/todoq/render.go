package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/steveyegge/todoq/internal/ui"
)

var renderNoPager bool

var renderCmd = &cobra.Command{
	Use:   "render <note.md>",
	Short: "Run every query block in a note and print the results",
	Long: `Find the todoist code blocks in a markdown note, fetch each query from
Todoist and print the sorted, grouped task lists.

Blocks that fail to parse are printed as error callouts; the other blocks
still render.

Examples:
  todoq render daily.md
  todoq render daily.md --json`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		blocks, err := loadNote(args[0])
		if err != nil {
			FatalError("%v", err)
		}

		s, b := openBoard(blocks)
		defer s.Close()
		defer b.close()

		if jsonOutput {
			outputJSON(b.json(s.renderer))
			return
		}
		text, err := b.text(s.renderer)
		if err != nil {
			FatalError("%v", err)
		}
		if err := ui.ToPager(text, ui.PagerOptions{NoPager: renderNoPager, Title: filepath.Base(args[0])}); err != nil {
			FatalError("%v", err)
		}
	},
}

func init() {
	renderCmd.Flags().BoolVar(&renderNoPager, "no-pager", false, "Print directly instead of through $TODOQ_PAGER or $PAGER")
	rootCmd.AddCommand(renderCmd)
}
