package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Tests run without a terminal on stdout.
func TestShouldUseColor(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantOut bool
	}{
		{"not a terminal", nil, false},
		{"NO_COLOR", map[string]string{"NO_COLOR": "1"}, false},
		{"CLICOLOR=0", map[string]string{"CLICOLOR": "0"}, false},
		{"CLICOLOR_FORCE", map[string]string{"CLICOLOR_FORCE": "1"}, true},
		{"CLICOLOR_FORCE=0", map[string]string{"CLICOLOR_FORCE": "0"}, false},
		{"NO_COLOR beats force", map[string]string{"NO_COLOR": "1", "CLICOLOR_FORCE": "1"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"NO_COLOR", "CLICOLOR", "CLICOLOR_FORCE"} {
				t.Setenv(k, tt.env[k])
			}
			if got := ShouldUseColor(); got != tt.wantOut {
				t.Errorf("ShouldUseColor() = %v, want %v", got, tt.wantOut)
			}
		})
	}
}

func TestApplyColorProfile(t *testing.T) {
	t.Cleanup(ApplyColorProfile)

	t.Setenv("NO_COLOR", "")
	t.Setenv("CLICOLOR_FORCE", "1")
	ApplyColorProfile()
	if p := lipgloss.ColorProfile(); p != termenv.ANSI256 {
		t.Errorf("forced profile = %v, want ANSI256", p)
	}

	t.Setenv("NO_COLOR", "1")
	ApplyColorProfile()
	if p := lipgloss.ColorProfile(); p != termenv.Ascii {
		t.Errorf("NO_COLOR profile = %v, want Ascii", p)
	}
}

func TestTerminalWidthFallback(t *testing.T) {
	if IsTerminal() {
		t.Skip("stdout is a terminal")
	}
	if got := TerminalWidth(72); got != 72 {
		t.Errorf("TerminalWidth(72) = %d", got)
	}
}
