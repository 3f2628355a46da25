package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steveyegge/todoq/internal/config"
	"github.com/steveyegge/todoq/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration settings",
	Long: `Manage todoq settings.

Settings are read from, in order of precedence: command-line flags,
TODOQ_* environment variables, the nearest .todoq.yaml walking up from the
working directory, then ~/.config/todoq/config.yaml.

Examples:
  todoq config set auto-refresh.enabled true
  todoq config set auto-refresh.interval 2m
  todoq config set timezone Europe/Berlin
  todoq config get language
  todoq config list`,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a value in the config file in use, or in the user config file if
none was found.`,
	Args: cobra.ExactArgs(2),
	Run: func(_ *cobra.Command, args []string) {
		key, value := args[0], args[1]
		path := configWritePath()
		if err := config.SetInFile(path, key, value); err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(map[string]string{"key": key, "value": displayValue(key, value), "path": path})
			return
		}
		fmt.Printf("%s Set %s = %s %s\n", ui.RenderPassIcon(), key, displayValue(key, value), ui.RenderMuted("("+path+")"))
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the effective value of a setting",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		key := args[0]
		if !slices.Contains(config.KnownKeys(), key) {
			FatalErrorWithHint(fmt.Sprintf("unknown config key %q", key), "Run 'todoq config list' to see all keys")
		}
		value := displayValue(key, config.GetString(key))
		if jsonOutput {
			outputJSON(map[string]string{"key": key, "value": value})
			return
		}
		fmt.Println(value)
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all settings with their effective values",
	Args:  cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		entries := listEntries(config.Effective())
		if jsonOutput {
			out := make(map[string]string, len(entries))
			for _, e := range entries {
				out[e.key] = e.value
			}
			outputJSON(out)
			return
		}
		width := 0
		for _, e := range entries {
			width = max(width, len(e.key))
		}
		for _, e := range entries {
			line := fmt.Sprintf("%-*s  %s", width, e.key, e.value)
			if e.unknown {
				line += "  " + ui.RenderWarn("(unknown key, ignored)")
			}
			fmt.Println(line)
		}
		if used := config.ConfigFileUsed(); used != "" {
			fmt.Println(ui.RenderMuted("\nconfig file: " + used))
		}
	},
}

type configEntry struct {
	key, value string
	unknown    bool
}

// listEntries sorts the effective settings by key, masking the token and
// flagging keys todoq does not read.
func listEntries(effective map[string]string) []configEntry {
	known := config.KnownKeys()
	out := make([]configEntry, 0, len(effective))
	for k, v := range effective {
		out = append(out, configEntry{key: k, value: displayValue(k, v), unknown: !slices.Contains(known, k)})
	}
	slices.SortFunc(out, func(a, b configEntry) int { return strings.Compare(a.key, b.key) })
	return out
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file that is read and written",
	Args:  cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		used := config.ConfigFileUsed()
		if jsonOutput {
			outputJSON(map[string]string{"loaded": used, "write": configWritePath()})
			return
		}
		if used == "" {
			fmt.Println(ui.RenderMuted("no config file found; 'config set' writes to " + configWritePath()))
			return
		}
		fmt.Println(used)
	},
}

// configWritePath is where 'config set' writes: the loaded file, else the
// user config file.
func configWritePath() string {
	if used := config.ConfigFileUsed(); used != "" {
		return used
	}
	return config.UserConfigPath()
}

// displayValue masks the API token.
func displayValue(key, value string) string {
	if key != config.KeyAPIToken || value == "" {
		return value
	}
	if len(value) <= 4 {
		return "****"
	}
	return "****" + value[len(value)-4:]
}

func init() {
	configCmd.AddCommand(configSetCmd, configGetCmd, configListCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}
