package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/steveyegge/todoq/internal/config"
	"github.com/steveyegge/todoq/internal/todoist"
	"github.com/steveyegge/todoq/internal/ui"
)

var tokenSave bool

var tokenCmd = &cobra.Command{
	Use:   "token [token]",
	Short: "Check a Todoist API token",
	Long: `Check that an API token is accepted by Todoist and show whose it is.

Without an argument the configured token is checked. On a terminal with no
token configured, you are prompted for one. Use --save to store an accepted
token in the user config file.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		token := settings.APIToken
		if len(args) == 1 {
			token = strings.TrimSpace(args[0])
		}

		var checker *tokenChecker
		if token == "" && ui.IsTerminal() && !jsonOutput {
			// Debounced: the prompt checks as the user types.
			checker = newTokenChecker(todoist.NewTokenValidator(settings.APIURL, todoist.DefaultValidateDelay))
			token = promptToken(checker)
		} else {
			checker = newTokenChecker(todoist.NewTokenValidator(settings.APIURL, 0))
		}
		if token == "" {
			FatalErrorWithHint(errNoToken.Error(), tokenHint)
		}

		user, err := checker.final(rootCtx, token)
		if err != nil {
			if isRejected(err) {
				FatalErrorWithHint("token rejected by Todoist", "Copy the token from Todoist: Settings > Integrations > Developer")
			}
			FatalError("failed to validate token: %v", err)
		}

		if tokenSave {
			path := config.UserConfigPath()
			if err := config.SetInFile(path, config.KeyAPIToken, token); err != nil {
				FatalError("failed to save token: %v", err)
			}
			if !jsonOutput && !quietFlag {
				fmt.Printf("%s Saved to %s\n", ui.RenderPassIcon(), path)
			}
		}

		if jsonOutput {
			outputJSON(map[string]string{
				"id":       user.ID,
				"name":     user.FullName,
				"email":    user.Email,
				"timezone": user.Timezone.Timezone,
			})
			return
		}
		fmt.Printf("%s Token belongs to %s <%s>\n", ui.RenderPassIcon(), user.FullName, user.Email)
		if user.Timezone.Timezone != "" && settings.Timezone == "" {
			fmt.Println(ui.RenderMuted("Todoist timezone: " + user.Timezone.Timezone))
		}
	},
}

// tokenChecker validates tokens in the background while the prompt is
// open, so a rejected token is reported before the form is submitted.
type tokenChecker struct {
	v *todoist.TokenValidator

	mu       sync.Mutex
	verdicts map[string]tokenVerdict
	running  map[string]bool
}

type tokenVerdict struct {
	user *todoist.User
	err  error
}

func newTokenChecker(v *todoist.TokenValidator) *tokenChecker {
	return &tokenChecker{v: v, verdicts: make(map[string]tokenVerdict), running: make(map[string]bool)}
}

// check is the prompt's validation hook. It never blocks: an unchecked
// token starts a validation and passes for now.
func (c *tokenChecker) check(ctx context.Context, s string) error {
	token := strings.TrimSpace(s)
	if token == "" {
		return fmt.Errorf("token is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.verdicts[token]; ok {
		if isRejected(v.err) {
			return fmt.Errorf("token rejected by Todoist")
		}
		return nil
	}
	if !c.running[token] {
		c.running[token] = true
		go c.run(ctx, token)
	}
	return nil
}

func (c *tokenChecker) run(ctx context.Context, token string) {
	user, err := c.v.Validate(ctx, token)
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.running, token)
	// A newer keystroke superseded this one; the token is checked again
	// if it comes back.
	if errors.Is(err, todoist.ErrStale) || ctx.Err() != nil {
		return
	}
	c.verdicts[token] = tokenVerdict{user: user, err: err}
}

// final returns the verdict for token, validating it now if the prompt did
// not already.
func (c *tokenChecker) final(ctx context.Context, token string) (*todoist.User, error) {
	c.mu.Lock()
	v, ok := c.verdicts[token]
	c.mu.Unlock()
	if ok && v.err == nil {
		return v.user, nil
	}
	return c.v.Validate(ctx, token)
}

func isRejected(err error) bool {
	switch todoist.StatusCode(err) {
	case http.StatusUnauthorized, http.StatusForbidden:
		return true
	}
	return false
}

func promptToken(checker *tokenChecker) string {
	ctx, cancel := context.WithCancel(rootCtx)
	defer cancel()

	var token string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Todoist API token").
				Description("Settings > Integrations > Developer").
				EchoMode(huh.EchoModePassword).
				Value(&token).
				Validate(func(s string) error { return checker.check(ctx, s) }),
		),
	).WithTheme(huh.ThemeDracula())

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Fprintln(os.Stderr, "Cancelled.")
			os.Exit(0)
		}
		FatalError("form error: %v", err)
	}
	return strings.TrimSpace(token)
}

func init() {
	tokenCmd.Flags().BoolVar(&tokenSave, "save", false, "Store the token in the user config file once accepted")
	rootCmd.AddCommand(tokenCmd)
}
