// Package cmd wires the claudeck command tree.
package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/claudeck/claudeck/internal/config"
)

// ErrUsage marks CLI argument problems; main maps it to exit code 2.
var ErrUsage = errors.New("invalid arguments")

var rootCmd = &cobra.Command{
	Use:   "claudeck",
	Short: "Real-time terminal dashboard for Claude Code task plans",
	Long: `Claudeck watches a TASKS.md task plan and the JSONL event stream
written by Claude Code hooks, and renders live task and agent activity
in the terminal. Failed tasks can be marked for retry directly from the
dashboard; only the status tag in the plan file is rewritten.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE:          runWatch,
}

// Execute runs the root command. Argument and flag problems are wrapped
// in ErrUsage so the caller can exit with the documented code.
func Execute() error {
	err := rootCmd.Execute()
	if err == nil || errors.Is(err, ErrUsage) {
		return err
	}
	msg := err.Error()
	if strings.Contains(msg, "unknown command") || strings.Contains(msg, "unknown flag") ||
		strings.Contains(msg, "invalid argument") || strings.Contains(msg, "accepts no arg") {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("tasks", "", "path to the task plan (default ./TASKS.md, fallback ./docs/planning/06-tasks.md)")
	flags.String("hooks", "", "hook events directory (default .claude/hooks, fallback ~/.claude/hooks)")
	flags.String("events", "", "dashboard JSONL events directory (default ~/.claude/dashboard)")
	flags.String("log-level", config.DefaultLogLevel, "log level (DEBUG, INFO, WARN, ERROR)")

	_ = viper.BindPFlag("tasks", flags.Lookup("tasks"))
	_ = viper.BindPFlag("hooks", flags.Lookup("hooks"))
	_ = viper.BindPFlag("events", flags.Lookup("events"))
	_ = viper.BindPFlag("log_level", flags.Lookup("log-level"))

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	})
}

func initConfig() {
	config.SetDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(config.ConfigDir())
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	viper.SetEnvPrefix("CLAUDECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	_ = viper.ReadInConfig()
}

// resolvedPaths applies the fallback chain to the flag/config values.
func resolvedPaths() config.Paths {
	return config.ResolvePaths(
		viper.GetString("tasks"),
		viper.GetString("hooks"),
		viper.GetString("events"),
	)
}
