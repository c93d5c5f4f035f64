package main

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/mughesh/HVAC-VRB-sub000/config"
)

// RootOptions holds global flags and what PersistentPreRunE derives from
// them.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	Output     string // "text" | "json"

	cfg *config.Config
	log *slog.Logger
}

var outputFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "vrkit",
		Short: "VR training kit runtime",
		Long: `vrkit validates and rehearses training programs against interactive
scenes: valves, knobs, tools and sockets driven by a fixed-step physics loop.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(outputFormats, opts.Output) {
				return fmt.Errorf("invalid output %q: must be one of %v", opts.Output, outputFormats)
			}
			v, err := config.New(opts.ConfigPath)
			if err != nil {
				return err
			}
			if f := cmd.Flags().Lookup("log-level"); f != nil && f.Changed {
				v.Set("logging.level", opts.LogLevel)
			}
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			opts.log = cfg.Logging.NewLogger(cmd.ErrOrStderr())
			slog.SetDefault(opts.log)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default: ./vrkit.yaml)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override logging.level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVarP(&opts.Output, "output", "o", "text", "output format (text|json)")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewProfilesCommand(opts))

	return cmd
}
