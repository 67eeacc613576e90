package cli

import (
	"fmt"

	yaml "github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"ticksched/internal/sched"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved scheduler configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

// loadConfig reads --config and applies --debug.
func loadConfig() (sched.Config, error) {
	cfg, err := sched.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	if flagDebug {
		cfg.Debug = true
	}
	return cfg, nil
}
