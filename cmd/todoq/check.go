package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steveyegge/todoq/internal/query"
	"github.com/steveyegge/todoq/internal/ui"
)

// checkJSON is the --json shape of one checked block.
type checkJSON struct {
	Index    int               `json:"index"`
	Line     int               `json:"line"`
	Valid    bool              `json:"valid"`
	Filter   string            `json:"filter,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
	Errors   []query.ErrorNode `json:"errors,omitempty"`
}

var checkCmd = &cobra.Command{
	Use:   "check <note.md>...",
	Short: "Validate the query blocks in notes without contacting Todoist",
	Long: `Parse every todoist code block and report warnings and errors.

Exits with status 1 if any block fails to parse.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var results []checkJSON
		failed := 0
		for _, path := range args {
			blocks, err := loadNote(path)
			if err != nil {
				FatalError("%v", err)
			}
			if !jsonOutput && len(args) > 1 {
				fmt.Println(ui.RenderCategory(path))
			}
			for _, nb := range blocks {
				r := checkBlock(nb)
				if !r.Valid {
					failed++
				}
				results = append(results, r)
				if !jsonOutput {
					printCheck(path, nb, r)
				}
			}
			if !jsonOutput && len(blocks) == 0 && !quietFlag {
				fmt.Println(ui.RenderMuted(path + ": no todoist blocks"))
			}
		}

		if jsonOutput {
			if results == nil {
				results = []checkJSON{}
			}
			outputJSON(results)
		}
		if failed > 0 {
			if !jsonOutput {
				fmt.Fprintf(os.Stderr, "\n%s %d block(s) failed to parse\n", ui.RenderFailIcon(), failed)
			}
			os.Exit(1)
		}
	},
}

func checkBlock(nb noteBlock) checkJSON {
	r := checkJSON{Index: nb.Index, Line: nb.Line, Warnings: nb.Warnings, Valid: nb.Err == nil}
	if nb.Query != nil {
		r.Filter = nb.Query.Filter
	}
	var pe *query.ParseError
	switch {
	case errors.As(nb.Err, &pe):
		r.Errors = pe.Messages
	case nb.Err != nil:
		r.Errors = []query.ErrorNode{{Message: nb.Err.Error()}}
	}
	return r
}

func printCheck(path string, nb noteBlock, r checkJSON) {
	loc := fmt.Sprintf("%s:%d", path, nb.Line)
	if r.Valid {
		if !quietFlag || len(r.Warnings) > 0 {
			fmt.Printf("%s %s %s\n", ui.RenderPassIcon(), loc, ui.RenderMuted(r.Filter))
		}
	} else {
		fmt.Printf("%s %s\n", ui.RenderFailIcon(), loc)
		var pe *query.ParseError
		if errors.As(nb.Err, &pe) {
			fmt.Println(ui.Indent(ui.RenderFail(strings.Join(pe.Lines(), "\n")), "    "))
		} else {
			fmt.Println("    " + ui.RenderFail(nb.Err.Error()))
		}
	}
	for _, w := range r.Warnings {
		fmt.Printf("    %s %s\n", ui.RenderWarnIcon(), ui.RenderWarn(w))
	}
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
