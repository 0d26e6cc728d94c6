// Package config resolves claudeck's runtime configuration from flags,
// environment and an optional config file, with the documented path
// fallbacks applied in one place.
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Default and fallback locations. Flags override all of them.
const (
	DefaultTasksPath  = "TASKS.md"
	FallbackTasksPath = "docs/planning/06-tasks.md"
	DefaultHooksDir   = ".claude/hooks"
	DefaultLogLevel   = "INFO"
)

// SetDefaults registers configuration defaults with viper. Called from
// command initialization before any config file is read.
func SetDefaults() {
	viper.SetDefault("tasks", "")
	viper.SetDefault("hooks", "")
	viper.SetDefault("events", "")
	viper.SetDefault("log_level", DefaultLogLevel)
	viper.SetDefault("debounce_ms", 100)
}

// ConfigDir is where the optional config.yaml lives.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "claudeck")
	}
	return filepath.Join(home, ".config", "claudeck")
}

// StateDir holds run artifacts such as debug.log.
func StateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".claudeck")
	}
	return filepath.Join(home, ".claudeck")
}

// Paths is the fully resolved set of input locations.
type Paths struct {
	TasksPath string
	HooksDir  string
	EventsDir string
}

// ResolvePaths applies the fallback chain for each input:
//
//	tasks:  explicit > ./TASKS.md > ./docs/planning/06-tasks.md
//	hooks:  explicit > .claude/hooks > ~/.claude/hooks
//	events: explicit > ~/.claude/dashboard
//
// Explicit values are used verbatim even when missing, so the caller
// can report a precise error. Fallbacks require the path to exist;
// otherwise the primary default is returned for a clear diagnostic.
func ResolvePaths(tasks, hooks, events string) Paths {
	return Paths{
		TasksPath: resolveTasks(tasks),
		HooksDir:  resolveHooks(hooks),
		EventsDir: resolveEvents(events),
	}
}

func resolveTasks(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if fileExists(DefaultTasksPath) {
		return DefaultTasksPath
	}
	if fileExists(FallbackTasksPath) {
		return FallbackTasksPath
	}
	return DefaultTasksPath
}

func resolveHooks(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if dirExists(DefaultHooksDir) {
		return DefaultHooksDir
	}
	if home, err := os.UserHomeDir(); err == nil {
		global := filepath.Join(home, ".claude", "hooks")
		if dirExists(global) {
			return global
		}
	}
	return DefaultHooksDir
}

func resolveEvents(explicit string) string {
	if explicit != "" {
		return explicit
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".claude", "dashboard")
	}
	return filepath.Join(home, ".claude", "dashboard")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
