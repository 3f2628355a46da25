package ui

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/term"
)

// PagerOptions control ToPager.
type PagerOptions struct {
	NoPager bool
	// Title names the paged content in the less prompt, e.g. the note file.
	Title string
}

// ToPager prints content, through a pager when stdout is a terminal and the
// content is taller than it. TODOQ_NO_PAGER or NoPager print directly.
func ToPager(content string, opts PagerOptions) error {
	if opts.NoPager || os.Getenv("TODOQ_NO_PAGER") != "" || !IsTerminal() || fitsTerminal(content) {
		fmt.Print(content)
		return nil
	}
	name, args := pagerCommand(opts.Title)
	if name == "" {
		fmt.Print(content)
		return nil
	}

	cmd := exec.Command(name, args...) // #nosec G204 - the pager is user-configured
	cmd.Stdin = strings.NewReader(content)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = pagerEnv(os.Environ())
	return cmd.Run()
}

func fitsTerminal(content string) bool {
	_, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || height <= 0 {
		return false
	}
	return contentHeight(content) < height
}

func contentHeight(content string) int {
	if content == "" {
		return 0
	}
	return strings.Count(strings.TrimSuffix(content, "\n"), "\n") + 1
}

// pagerCommand resolves TODOQ_PAGER, then PAGER, then less. less gets a
// prompt naming title unless the user configured its flags.
func pagerCommand(title string) (string, []string) {
	spec := os.Getenv("TODOQ_PAGER")
	if spec == "" {
		spec = os.Getenv("PAGER")
	}
	if spec == "" {
		spec = "less"
	}
	parts := strings.Fields(spec)
	if len(parts) == 0 {
		return "", nil
	}
	name, args := parts[0], parts[1:]
	if filepath.Base(name) == "less" && len(args) == 0 && title != "" {
		args = append(args, "--prompt="+lessPromptEscape(title)+" ?e(END):%pB\\%.")
	}
	return name, args
}

// lessPromptEscape quotes the characters less treats as prompt syntax.
func lessPromptEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`?:.%\`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// pagerEnv sets LESS=-RFX (colors, quit if one screen, keep the output)
// unless the user has their own LESS.
func pagerEnv(environ []string) []string {
	for _, kv := range environ {
		if strings.HasPrefix(kv, "LESS=") {
			return environ
		}
	}
	return append(environ, "LESS=-RFX")
}
