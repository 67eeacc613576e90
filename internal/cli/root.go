package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"ticksched/internal/logging"
)

var (
	flagConfig    string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
)

// NewRootCmd creates the root cobra command for the ticksched CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ticksched",
		Short: "Cooperative weighted task scheduler for tick loops",
		Long:  "ticksched drains weighted task queues one task per tick, with timeouts and abort policies.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.NewLoggerWithWriter(logging.ParseLevel(flagLogLevel), flagLogFormat, cmd.ErrOrStderr())
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "config.yml", "Scheduler config file (YAML)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging and task lifecycle traces")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newRunCmd(),
		newConfigCmd(),
	)

	return root
}
