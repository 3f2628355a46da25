// Package ui provides terminal styling for todoq output.
// Uses the Ayu color theme with adaptive light/dark mode support.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Ayu theme color palette
// Dark: https://terminalcolors.com/themes/ayu/dark/
// Light: https://terminalcolors.com/themes/ayu/light/
var (
	ColorPass = lipgloss.AdaptiveColor{
		Light: "#86b300", // ayu light bright green
		Dark:  "#c2d94c", // ayu dark bright green
	}
	ColorWarn = lipgloss.AdaptiveColor{
		Light: "#f2ae49", // ayu light bright yellow
		Dark:  "#ffb454", // ayu dark bright yellow
	}
	ColorFail = lipgloss.AdaptiveColor{
		Light: "#f07171", // ayu light bright red
		Dark:  "#f07178", // ayu dark bright red
	}
	ColorMuted = lipgloss.AdaptiveColor{
		Light: "#828c99", // ayu light muted
		Dark:  "#6c7680", // ayu dark muted
	}
	ColorAccent = lipgloss.AdaptiveColor{
		Light: "#399ee6", // ayu light bright blue
		Dark:  "#59c2ff", // ayu dark bright blue
	}
	ColorOrange = lipgloss.AdaptiveColor{
		Light: "#fa8d3e", // ayu light orange
		Dark:  "#ff8f40", // ayu dark orange
	}
)

var (
	PassStyle   = lipgloss.NewStyle().Foreground(ColorPass)
	WarnStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
	FailStyle   = lipgloss.NewStyle().Foreground(ColorFail)
	MutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	AccentStyle = lipgloss.NewStyle().Foreground(ColorAccent)
)

// TitleStyle is the query title line.
var TitleStyle = lipgloss.NewStyle().Bold(true)

// CategoryStyle for group headers - bold with accent color
var CategoryStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)

// LabelStyle renders a task label chip.
var LabelStyle = lipgloss.NewStyle().Foreground(ColorAccent).Italic(true)

// CalloutStyle frames error messages.
var CalloutStyle = lipgloss.NewStyle().
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorFail).
	PaddingLeft(1)

// Priority checkbox styles, indexed by display priority (1 = most urgent).
var priorityStyles = map[int]lipgloss.Style{
	1: lipgloss.NewStyle().Foreground(ColorFail),
	2: lipgloss.NewStyle().Foreground(ColorOrange),
	3: lipgloss.NewStyle().Foreground(ColorAccent),
	4: lipgloss.NewStyle(),
}

const (
	IconPass = "✓"
	IconWarn = "⚠"
	IconFail = "✗"

	IconOpen = "○"
)

// Tree characters for hierarchical display
const (
	TreeChild  = "├─ "
	TreeLast   = "└─ "
	TreeIndent = "  " // 2-space indent per level
)

// RenderWarn renders text with warning (yellow) styling
func RenderWarn(s string) string {
	return WarnStyle.Render(s)
}

// RenderFail renders text with fail (red) styling
func RenderFail(s string) string {
	return FailStyle.Render(s)
}

// RenderMuted renders text with muted (gray) styling
func RenderMuted(s string) string {
	return MutedStyle.Render(s)
}

// RenderAccent renders text with accent (blue) styling
func RenderAccent(s string) string {
	return AccentStyle.Render(s)
}

// RenderCategory renders a group header in uppercase with accent color
func RenderCategory(s string) string {
	return CategoryStyle.Render(strings.ToUpper(s))
}

// RenderTitle renders a query title.
func RenderTitle(s string) string {
	return TitleStyle.Render(s)
}

// RenderLabel renders a label as #name.
func RenderLabel(name string) string {
	return LabelStyle.Render("#" + name)
}

// RenderPriority colors s by display priority.
func RenderPriority(display int, s string) string {
	style, ok := priorityStyles[display]
	if !ok {
		return s
	}
	return style.Render(s)
}

// RenderCallout frames lines as an error callout.
func RenderCallout(lines ...string) string {
	return CalloutStyle.Render(strings.Join(lines, "\n"))
}

// RenderPassIcon renders the pass icon with styling
func RenderPassIcon() string {
	return PassStyle.Render(IconPass)
}

// RenderWarnIcon renders the warning icon with styling
func RenderWarnIcon() string {
	return WarnStyle.Render(IconWarn)
}

// RenderFailIcon renders the fail icon with styling
func RenderFailIcon() string {
	return FailStyle.Render(IconFail)
}

