// Package config loads todoq settings from config files, the environment
// and command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Setting keys.
const (
	KeyAPIToken            = "api-token"
	KeyAPIURL              = "api-url"
	KeyAutoRefresh         = "auto-refresh.enabled"
	KeyAutoRefreshInterval = "auto-refresh.interval"
	KeyLanguage            = "language"
	KeyTranslationsFile    = "translations-file"
	KeyCacheEnabled        = "cache.enabled"
	KeyCachePath           = "cache.path"
	KeyRenderMarkdown      = "render.markdown"
	KeyRetryMaxElapsed     = "retry.max-elapsed"
	KeyTimezone            = "timezone"
	KeyJSON                = "json"
)

// ProjectConfigName is looked up in the working directory and its parents.
const ProjectConfigName = ".todoq.yaml"

var v *viper.Viper

// Initialize sets up viper with defaults, environment binding and the first
// config file found on the search path.
func Initialize() error {
	return InitializeWithFile("")
}

// InitializeWithFile is Initialize with an explicit config file. An empty
// path searches the usual locations.
func InitializeWithFile(path string) error {
	v = viper.New()
	v.SetConfigType("yaml")

	// TODOQ_AUTO_REFRESH_INTERVAL -> auto-refresh.interval
	v.SetEnvPrefix("TODOQ")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	// Accept the token variable other Todoist tools already use.
	if err := v.BindEnv(KeyAPIToken, "TODOQ_API_TOKEN", "TODOIST_API_TOKEN"); err != nil {
		return fmt.Errorf("failed to bind %s: %w", KeyAPIToken, err)
	}

	setDefaults(v)

	if path == "" {
		path = findConfigFile()
	}
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyAPIToken, "")
	v.SetDefault(KeyAPIURL, "")
	v.SetDefault(KeyAutoRefresh, false)
	v.SetDefault(KeyAutoRefreshInterval, 60*time.Second)
	v.SetDefault(KeyLanguage, "en")
	v.SetDefault(KeyTranslationsFile, "")
	v.SetDefault(KeyCacheEnabled, true)
	v.SetDefault(KeyCachePath, "")
	v.SetDefault(KeyRenderMarkdown, false)
	v.SetDefault(KeyRetryMaxElapsed, 30*time.Second)
	v.SetDefault(KeyTimezone, "")
	v.SetDefault(KeyJSON, false)
}

// findConfigFile returns the project config nearest the working directory,
// falling back to the user config. Empty if neither exists.
func findConfigFile() string {
	if cwd, err := os.Getwd(); err == nil {
		for dir := cwd; ; dir = filepath.Dir(dir) {
			candidate := filepath.Join(dir, ProjectConfigName)
			if fileExists(candidate) {
				return candidate
			}
			if filepath.Dir(dir) == dir {
				break
			}
		}
	}
	if p := UserConfigPath(); p != "" && fileExists(p) {
		return p
	}
	return ""
}

// UserConfigPath is $XDG_CONFIG_HOME/todoq/config.yaml, or
// ~/.config/todoq/config.yaml when XDG_CONFIG_HOME is unset.
func UserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "todoq", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "todoq", "config.yaml")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ResetForTesting drops all loaded state.
func ResetForTesting() {
	v = nil
}

func ensure() *viper.Viper {
	if v == nil {
		v = viper.New()
		setDefaults(v)
	}
	return v
}

// ConfigFileUsed returns the path of the loaded config file, if any.
func ConfigFileUsed() string {
	if v == nil {
		return ""
	}
	return v.ConfigFileUsed()
}

// BindPFlag makes a command-line flag override key.
func BindPFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("no flag to bind for %s", key)
	}
	return ensure().BindPFlag(key, flag)
}

func GetString(key string) string          { return ensure().GetString(key) }
func GetBool(key string) bool              { return ensure().GetBool(key) }
func GetDuration(key string) time.Duration { return ensure().GetDuration(key) }
func Set(key string, value any)            { ensure().Set(key, value) }

// Effective returns every setting viper knows about, from defaults, files,
// environment and flags, keyed by dotted name. Keys found in a config file
// but unknown to todoq are included.
func Effective() map[string]string {
	out := make(map[string]string)
	flatten("", ensure().AllSettings(), out)
	return out
}

func flatten(prefix string, m map[string]any, out map[string]string) {
	for k, val := range m {
		key := prefix + k
		if nested, ok := val.(map[string]any); ok {
			flatten(key+".", nested, out)
			continue
		}
		out[key] = fmt.Sprint(val)
	}
}

// Settings is a typed view of the loaded configuration.
type Settings struct {
	APIToken            string
	APIURL              string
	AutoRefresh         bool
	AutoRefreshInterval time.Duration
	Language            string
	TranslationsFile    string
	CacheEnabled        bool
	CachePath           string
	RenderMarkdown      bool
	RetryMaxElapsed     time.Duration
	Timezone            string
	JSON                bool
}

// Load reads the current values into a Settings.
func Load() Settings {
	return Settings{
		APIToken:            strings.TrimSpace(GetString(KeyAPIToken)),
		APIURL:              GetString(KeyAPIURL),
		AutoRefresh:         GetBool(KeyAutoRefresh),
		AutoRefreshInterval: GetDuration(KeyAutoRefreshInterval),
		Language:            GetString(KeyLanguage),
		TranslationsFile:    GetString(KeyTranslationsFile),
		CacheEnabled:        GetBool(KeyCacheEnabled),
		CachePath:           GetString(KeyCachePath),
		RenderMarkdown:      GetBool(KeyRenderMarkdown),
		RetryMaxElapsed:     GetDuration(KeyRetryMaxElapsed),
		Timezone:            GetString(KeyTimezone),
		JSON:                GetBool(KeyJSON),
	}
}

// Location resolves Timezone. Empty means the system zone.
func (s Settings) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", KeyTimezone, s.Timezone, err)
	}
	return loc, nil
}
