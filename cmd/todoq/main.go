package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/steveyegge/todoq/internal/config"
	"github.com/steveyegge/todoq/internal/telemetry"
)

var (
	configFile string
	apiToken   string
	jsonOutput bool
	noCache    bool

	verboseFlag bool // Enable verbose/debug output
	quietFlag   bool // Suppress non-essential output

	// Signal-aware context for graceful cancellation
	rootCtx    context.Context
	rootCancel context.CancelFunc

	settings config.Settings
	logger   *slog.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: .todoq.yaml or ~/.config/todoq/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", "", "Todoist API token (default: $TODOQ_API_TOKEN, $TODOIST_API_TOKEN)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "Do not read or write the metadata cache")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output (errors only)")
	rootCmd.Flags().Bool("version", false, "Print version information")
}

var rootCmd = &cobra.Command{
	Use:   "todoq",
	Short: "todoq - live Todoist queries from markdown notes",
	Long: `todoq finds the todoist code blocks in a markdown note, runs each query
against Todoist and prints the sorted, grouped task lists.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Println("todoq version " + FullVersionString())
			return
		}
		_ = cmd.Help() // Help() always returns nil for cobra commands
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupSignalContext()
		applyVerbosityFlags()
		if err := loadSettings(cmd); err != nil {
			return err
		}
		initTelemetry()
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		telemetry.Shutdown(context.Background())
		if rootCancel != nil {
			rootCancel()
		}
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if jsonOutput {
			outputJSONError(err, "")
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
