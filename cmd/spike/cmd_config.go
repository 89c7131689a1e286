package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nvandessel/spike/internal/config"
	"github.com/nvandessel/spike/internal/constants"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage spike configuration",
		Long: `View spike configuration settings.

Configuration is stored in ~/.spike/config.yaml and may be overridden by
SPIKE_* environment variables.

Examples:
  spike config list               # Show all settings
  spike config get model.tau      # Get a specific setting
  spike config init               # Write the defaults to ~/.spike/config.yaml`,
	}

	cmd.AddCommand(
		newConfigListCmd(),
		newConfigGetCmd(),
		newConfigInitCmd(),
	)

	return cmd
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), cfg)
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			key := args[0]

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			value, found := getConfigValue(cfg, key)
			if !found {
				return fmt.Errorf("unknown configuration key: %s", key)
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"key": key, "value": value})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", key, value)
			return nil
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")

			dir, err := config.Dir()
			if err != nil {
				return err
			}
			path := filepath.Join(dir, constants.ConfigFile)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			data, err := yaml.Marshal(config.Default())
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			if err := os.MkdirAll(dir, 0700); err != nil {
				return fmt.Errorf("failed to create %s: %w", dir, err)
			}
			if err := os.WriteFile(path, data, 0600); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().Bool("force", false, "Overwrite an existing config file")
	return cmd
}

// getConfigValue retrieves a config value by dotted key.
func getConfigValue(cfg *config.SpikeConfig, key string) (any, bool) {
	switch key {
	case "model.a":
		return cfg.Model.A, true
	case "model.b":
		return cfg.Model.B, true
	case "model.tau":
		return cfg.Model.Tau, true
	case "model.dt":
		return cfg.Model.Dt, true
	case "model.v0":
		return cfg.Model.V0, true
	case "model.w0":
		return cfg.Model.W0, true
	case "stimulus.manual":
		return cfg.Stimulus.Manual, true
	case "links.weight_default":
		return cfg.Links.WeightDefault, true
	case "links.weight_min":
		return cfg.Links.WeightMin, true
	case "links.weight_max":
		return cfg.Links.WeightMax, true
	case "links.weight_steps":
		return cfg.Links.WeightSteps, true
	case "links.allow_self_loops":
		return cfg.Links.AllowSelfLoops, true
	case "clock.tick_interval":
		return cfg.Clock.TickInterval, true
	case "clock.sub_steps":
		return cfg.Clock.SubSteps, true
	case "logging.level":
		return cfg.Logging.Level, true
	case "trace.path":
		return cfg.Trace.Path, true
	case "trace.sample_every":
		return cfg.Trace.SampleEvery, true
	default:
		return nil, false
	}
}
