package ui

import (
	"strings"
	"testing"
)

func TestTruncateLines(t *testing.T) {
	short := "one\ntwo\nthree"
	if got := TruncateLines(short, 8, 3); got != short {
		t.Errorf("short text changed: %q", got)
	}
	if got := TruncateLines("", 8, 3); got != "" {
		t.Errorf("empty text = %q", got)
	}

	var lines []string
	for i := range 12 {
		lines = append(lines, string(rune('a'+i)))
	}
	got := TruncateLines(strings.Join(lines, "\n"), 8, 2)
	out := strings.Split(got, "\n")
	if len(out) != 5 {
		t.Fatalf("want 2+marker+2 lines, got %q", out)
	}
	if out[0] != "a" || out[1] != "b" || out[3] != "k" || out[4] != "l" {
		t.Errorf("context lines wrong: %q", out)
	}
	if !strings.Contains(out[2], "8 lines hidden") {
		t.Errorf("marker = %q", out[2])
	}

	// Too little room for context on both ends: plain cut.
	if got := TruncateLines("1\n2\n3\n4", 2, 3); got != "1\n2\n..." {
		t.Errorf("plain cut = %q", got)
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"buy milk", 20, "buy milk"},
		{"buy milk and eggs", 8, "buy milk\nand eggs"},
		{"supercalifragilistic word", 5, "supercalifragilistic\nword"},
		{"first\nsecond line here", 6, "first\nsecond\nline\nhere"},
		{"été à la mer", 6, "été à\nla mer"},
	}
	for _, tt := range tests {
		if got := WrapText(tt.in, tt.width); got != tt.want {
			t.Errorf("WrapText(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestIndent(t *testing.T) {
	if got := Indent("a\nb", "  "); got != "  a\n  b" {
		t.Errorf("Indent = %q", got)
	}
	if got := Indent("", "  "); got != "" {
		t.Errorf("Indent of empty = %q", got)
	}
}
