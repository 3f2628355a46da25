package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

// knownKeys are the settings `todoq config set` may write.
var knownKeys = []string{
	KeyAPIToken,
	KeyAPIURL,
	KeyAutoRefresh,
	KeyAutoRefreshInterval,
	KeyLanguage,
	KeyTranslationsFile,
	KeyCacheEnabled,
	KeyCachePath,
	KeyRenderMarkdown,
	KeyRetryMaxElapsed,
	KeyTimezone,
	KeyJSON,
}

// KnownKeys returns the settable keys in a stable order.
func KnownKeys() []string {
	return slices.Clone(knownKeys)
}

// SetInFile sets key in the yaml file at path, creating the file and its
// directory if needed. Commented-out occurrences of the key are replaced in
// place so the surrounding comments survive.
func SetInFile(path, key, value string) error {
	if !slices.Contains(knownKeys, key) {
		return fmt.Errorf("unknown config key %q (known keys: %s)", key, strings.Join(knownKeys, ", "))
	}
	if err := validateValue(key, value); err != nil {
		return err
	}

	content, err := os.ReadFile(path) //nolint:gosec // path is the user's config file
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	newContent, err := updateYamlKey(string(content), key, value)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(newContent+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func validateValue(key, value string) error {
	switch key {
	case KeyAutoRefresh, KeyCacheEnabled, KeyRenderMarkdown, KeyJSON:
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("%s must be true or false, got %q", key, value)
		}
	case KeyAutoRefreshInterval, KeyRetryMaxElapsed:
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("%s must be a positive duration like 90s, got %q", key, value)
		}
	case KeyTimezone:
		if value == "" {
			return nil
		}
		if _, err := time.LoadLocation(value); err != nil {
			return fmt.Errorf("%s: unknown time zone %q", key, value)
		}
	}
	return nil
}

// updateYamlKey updates a key in yaml content, handling commented-out keys.
// If the key exists (commented or not), it updates it in place.
// If the key doesn't exist, it appends it at the end.
//
// Nested keys (auto-refresh.interval) are written as dotted top-level keys,
// which viper reads the same way as the nested form.
//
//nolint:unparam // error return kept for future validation
func updateYamlKey(content, key, value string) (string, error) {
	// Format the value appropriately
	formattedValue := formatYamlValue(value)
	newLine := fmt.Sprintf("%s: %s", key, formattedValue)

	// Build regex to match the key (commented or not)
	// Matches: "key: value" or "# key: value" with optional leading whitespace
	keyPattern := regexp.MustCompile(`^(\s*)(#\s*)?` + regexp.QuoteMeta(key) + `\s*:`)

	found := false
	var result []string

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		if keyPattern.MatchString(line) {
			// Found the key - replace with new value (uncommented)
			// Preserve leading whitespace
			matches := keyPattern.FindStringSubmatch(line)
			indent := ""
			if len(matches) > 1 {
				indent = matches[1]
			}
			result = append(result, indent+newLine)
			found = true
		} else {
			result = append(result, line)
		}
	}

	if !found {
		// Key not found - append at end
		// Add blank line before if content doesn't end with one
		if len(result) > 0 && result[len(result)-1] != "" {
			result = append(result, "")
		}
		result = append(result, newLine)
	}

	return strings.Join(result, "\n"), nil
}

// formatYamlValue formats a value appropriately for YAML.
func formatYamlValue(value string) string {
	// Boolean values
	lower := strings.ToLower(value)
	if lower == "true" || lower == "false" {
		return lower
	}

	// Numeric values - return as-is
	if isNumeric(value) {
		return value
	}

	// Duration values (like "30s", "5m") - return as-is
	if isDuration(value) {
		return value
	}

	// Everything else is a quoted string
	return fmt.Sprintf("%q", value)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		if c == '-' && i == 0 {
			continue
		}
		if c == '.' {
			continue
		}
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func isDuration(s string) bool {
	if len(s) < 2 {
		return false
	}
	suffix := s[len(s)-1]
	if suffix != 's' && suffix != 'm' && suffix != 'h' {
		return false
	}
	return isNumeric(s[:len(s)-1])
}
