package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

func init() {
	ApplyColorProfile()
}

// ApplyColorProfile drops lipgloss to plain text when color is off.
// Call again after changing NO_COLOR and friends.
func ApplyColorProfile() {
	switch {
	case !ShouldUseColor():
		lipgloss.SetColorProfile(termenv.Ascii)
	case IsTerminal():
		lipgloss.SetColorProfile(termenv.NewOutput(os.Stdout).EnvColorProfile())
	default:
		// CLICOLOR_FORCE into a pipe
		lipgloss.SetColorProfile(termenv.ANSI256)
	}
}

// IsTerminal reports whether stdout is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ShouldUseColor follows the NO_COLOR and CLICOLOR conventions:
// NO_COLOR (any value) wins, then CLICOLOR_FORCE, then CLICOLOR=0,
// and otherwise color is used only on a terminal.
func ShouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force := os.Getenv("CLICOLOR_FORCE"); force != "" && force != "0" {
		return true
	}
	if os.Getenv("CLICOLOR") == "0" {
		return false
	}
	return IsTerminal()
}

// TerminalWidth returns the width of stdout, or fallback when unknown.
func TerminalWidth(fallback int) int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return fallback
}
