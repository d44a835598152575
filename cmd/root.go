package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/PabloGalante/farum-probe/internal/config"
	"github.com/PabloGalante/farum-probe/internal/observability"
)

func Execute() error {
	return newRootCmd().Execute()
}

type rootOptions struct {
	configPath string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "farum",
		Short:         "Farum probe: signal detection and escalating follow-up questions",
		Long:          "farum scores each utterance for avoidance, tracks a per-session press level, picks a voice and returns up to three follow-up questions.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(viper.New(), opts.configPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a TOML config file (default ./farum.toml if present)")

	rootCmd.AddCommand(
		newServeCmd(opts),
		newProbeCmd(opts),
		newReplayCmd(opts),
		newConfigCmd(opts),
	)

	return rootCmd
}

// configureLogging points the global logger at w with the configured level.
func configureLogging(cfg *config.Config, w io.Writer) error {
	if err := observability.Configure(cfg.Log.Level, w); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	return nil
}
