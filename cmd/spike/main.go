package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/nvandessel/spike/internal/config"
	"github.com/nvandessel/spike/internal/logging"
	"github.com/nvandessel/spike/internal/session"
	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "spike",
		Short: "Spike - a FitzHugh-Nagumo spiking network simulator",
		Long: `spike simulates small networks of FitzHugh-Nagumo neurons joined by
weighted directed links.

Networks can be driven from an interactive shell, from YAML scenario
files, or by an AI agent through the MCP server. Runs can be recorded to
SQLite and exported to Arrow for offline analysis.`,
		SilenceUsage: true,
	}
	addGlobalFlags(rootCmd)

	rootCmd.AddCommand(
		newVersionCmd(),
		newConfigCmd(),
		newRunCmd(),
		newShellCmd(),
		newGraphCmd(),
		newTraceCmd(),
		newMCPServerCmd(),
	)
	return rootCmd
}

func addGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	cmd.PersistentFlags().String("config", "", "Config file (default ~/.spike/config.yaml)")
	cmd.PersistentFlags().String("log-level", "", "Log level: info, debug, or trace (overrides config)")
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				writeJSON(cmd.OutOrStdout(), map[string]string{"version": version})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "spike version %s\n", version)
			}
		},
	}
}

// loadConfig resolves configuration for a command: the --config file when
// given, the default locations otherwise, then the --log-level flag.
func loadConfig(cmd *cobra.Command) (*config.SpikeConfig, error) {
	path, _ := cmd.Flags().GetString("config")

	var cfg *config.SpikeConfig
	var err error
	if path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the operational logger. Logs go to stderr so command
// output stays machine-readable.
func newLogger(cmd *cobra.Command, cfg *config.SpikeConfig) *slog.Logger {
	return logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
}

// newJournal opens the command journal in ~/.spike when the log level asks
// for it. The returned journal may be nil.
func newJournal(cfg *config.SpikeConfig, logger *slog.Logger) *logging.Journal {
	dir, err := config.Dir()
	if err != nil {
		logger.Warn("command journal disabled", "error", err)
		return nil
	}
	return logging.NewJournal(dir, cfg.Logging.Level)
}

// newSession builds an empty session from configuration.
func newSession(cfg *config.SpikeConfig, logger *slog.Logger, journal *logging.Journal) *session.Session {
	return session.New(sessionOptions(cfg, logger, journal))
}

func sessionOptions(cfg *config.SpikeConfig, logger *slog.Logger, journal *logging.Journal) session.Options {
	return session.Options{
		Network:      cfg.NetworkConfig(),
		TickInterval: cfg.Clock.TickInterval,
		Logger:       logger,
		Journal:      journal,
	}
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, shutdownSignals...)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
