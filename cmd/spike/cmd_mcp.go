package main

import (
	"fmt"

	"github.com/nvandessel/spike/internal/mcp"
	"github.com/nvandessel/spike/internal/trace"
	"github.com/spf13/cobra"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-server",
		Short: "Serve a live network to AI agents over MCP (stdio)",
		Long: `Run an MCP server on stdin/stdout that exposes the network commands as
tools (spike_add_neuron, spike_add_link, spike_stimulate, spike_tick, ...)
and the current graph as a resource.

Logs go to stderr; stdout carries only the MCP protocol.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cmd, cfg)
			journal := newJournal(cfg, logger)
			defer journal.Close()

			sess := newSession(cfg, logger, journal)
			if cfg.Trace.Path != "" {
				rec, err := trace.OpenRecorder(cmd.Context(), cfg.Trace.Path, "mcp", sess.Config())
				if err != nil {
					return fmt.Errorf("open trace: %w", err)
				}
				defer rec.Close()
				trace.Attach(sess, rec, cfg.Trace.SampleEvery, logger)
			}

			server, err := mcp.NewServer(&mcp.Config{
				Name:    "spike",
				Version: version,
				Session: sess,
				Logger:  logger,
				Journal: journal,
			})
			if err != nil {
				return fmt.Errorf("create MCP server: %w", err)
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			logger.Info("mcp server starting", "version", version)
			if err := server.Run(ctx); err != nil && ctx.Err() == nil {
				return fmt.Errorf("mcp server: %w", err)
			}
			return nil
		},
	}
}
