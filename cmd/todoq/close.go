package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/steveyegge/todoq/internal/types"
)

var closeCmd = &cobra.Command{
	Use:   "close <task-id>...",
	Short: "Complete one or more tasks",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := mustSession()
		defer s.Close()

		type failure struct {
			ID    string `json:"id"`
			Error string `json:"error"`
		}
		closed := []string{}
		var failed []failure
		for _, id := range args {
			if err := s.adapter.Actions().CloseTask(rootCtx, types.TaskID(id)); err != nil {
				failed = append(failed, failure{ID: id, Error: err.Error()})
				if !jsonOutput {
					WarnError("%v", err)
				}
				continue
			}
			closed = append(closed, id)
		}

		if jsonOutput {
			outputJSON(map[string]any{"closed": closed, "failed": failed})
		}
		if len(failed) > 0 {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(closeCmd)
}
