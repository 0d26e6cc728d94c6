package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/claudeck/claudeck/internal/config"
	"github.com/claudeck/claudeck/internal/logging"
	"github.com/claudeck/claudeck/internal/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the task plan and hook events in real time (default)",
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	paths := resolvedPaths()

	log, err := logging.NewLogger(config.StateDir(), viper.GetString("log_level"))
	if err != nil {
		return err
	}
	defer log.Close()

	log.Info("starting dashboard",
		"tasks", paths.TasksPath,
		"hooks", paths.HooksDir,
		"events", paths.EventsDir,
	)
	return tui.Run(paths, log)
}
