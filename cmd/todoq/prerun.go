package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/steveyegge/todoq/internal/config"
	"github.com/steveyegge/todoq/internal/debug"
	"github.com/steveyegge/todoq/internal/telemetry"
)

// setupSignalContext cancels rootCtx on Ctrl+C or SIGTERM.
func setupSignalContext() {
	rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// applyVerbosityFlags propagates --verbose and --quiet to the debug package
// and builds the process logger at the matching level.
func applyVerbosityFlags() {
	debug.SetVerbose(verboseFlag)
	debug.SetQuiet(quietFlag)
	logger = debug.NewLogger(os.Stderr)
}

// loadSettings reads config files and the environment, then lets flags that
// were set on the command line win.
// Priority: flags > env vars > config file > defaults.
func loadSettings(cmd *cobra.Command) error {
	if err := config.InitializeWithFile(configFile); err != nil {
		return err
	}
	for key, name := range map[string]string{
		config.KeyAPIToken: "token",
		config.KeyJSON:     "json",
	} {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			if err := config.BindPFlag(key, f); err != nil {
				return fmt.Errorf("failed to bind --%s: %w", name, err)
			}
		}
	}
	settings = config.Load()
	jsonOutput = settings.JSON
	if noCache {
		settings.CacheEnabled = false
	}
	debug.Logf("config file: %q\n", config.ConfigFileUsed())
	return nil
}

func initTelemetry() {
	if err := telemetry.Init(rootCtx, "todoq", Version); err != nil {
		WarnError("telemetry disabled: %v", err)
	}
}
