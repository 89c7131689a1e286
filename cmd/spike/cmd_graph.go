package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nvandessel/spike/internal/session"
	"github.com/nvandessel/spike/internal/simulation"
	"github.com/nvandessel/spike/internal/visualization"
	"github.com/spf13/cobra"
)

func newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph <scenario.yaml>",
		Short: "Visualize a scenario's network",
		Long: `Output a scenario's network in DOT (Graphviz) or JSON format, with
neurons coloured by membrane potential.

By default the scenario is run to completion first, so the graph shows the
final state. With --serve, the network is built and served live over HTTP
with the clock running; POST /api/stimulate?neuron=N stimulates a neuron.

Examples:
  spike graph scenarios/chain.yaml | neato -n -Tsvg > chain.svg
  spike graph scenarios/chain.yaml --format json --ticks 5
  spike graph scenarios/chain.yaml --serve`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatName, _ := cmd.Flags().GetString("format")
			ticks, _ := cmd.Flags().GetInt("ticks")
			serve, _ := cmd.Flags().GetBool("serve")
			addr, _ := cmd.Flags().GetString("addr")
			noOpen, _ := cmd.Flags().GetBool("no-open")

			format, err := visualization.ParseFormat(formatName)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cmd, cfg)

			sc, err := simulation.LoadScenario(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("ticks") {
				sc.Ticks = ticks
			}

			runner := simulation.NewRunner(cfg.NetworkConfig())
			runner.Logger = logger

			if serve {
				sess, _, err := runner.Build(sc, sessionOptions(cfg, logger, nil))
				if err != nil {
					return fmt.Errorf("build %s: %w", sc.Name, err)
				}
				return runGraphServer(cmd, sess, addr, noOpen)
			}

			res, err := runner.Run(cmd.Context(), sc)
			if err != nil {
				return fmt.Errorf("run %s: %w", sc.Name, err)
			}

			switch format {
			case visualization.FormatDOT:
				fmt.Fprint(cmd.OutOrStdout(), visualization.RenderDOT(res.Final))
			case visualization.FormatJSON:
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(visualization.RenderJSON(res.Final)); err != nil {
					return fmt.Errorf("encode JSON: %w", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().String("format", "dot", "Output format: dot or json")
	cmd.Flags().Int("ticks", 0, "Override the scenario's tick count")
	cmd.Flags().Bool("serve", false, "Serve the live network over HTTP with the clock running")
	cmd.Flags().String("addr", "localhost:0", "Listen address for --serve")
	cmd.Flags().Bool("no-open", false, "Don't open a browser with --serve")

	return cmd
}

// runGraphServer serves sess over HTTP with its clock running and blocks
// until Ctrl-C.
func runGraphServer(cmd *cobra.Command, sess *session.Session, addr string, noOpen bool) error {
	srv := visualization.NewServer(sess)

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(ctx, addr) }()

	// Wait for server to start
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) && srv.Addr() == "" {
		select {
		case err := <-errCh:
			if err == nil {
				err = context.Canceled
			}
			return fmt.Errorf("server failed to start: %w", err)
		case <-time.After(10 * time.Millisecond):
		}
	}

	listenAddr := srv.Addr()
	if listenAddr == "" {
		return fmt.Errorf("server failed to start")
	}

	sess.Start(ctx)
	defer sess.Stop()

	url := "http://" + listenAddr + "/api/graph"
	fmt.Fprintf(cmd.OutOrStdout(), "Graph server running at %s\n", url)
	fmt.Fprintf(cmd.OutOrStdout(), "Press Ctrl-C to stop.\n")

	if !noOpen {
		if err := visualization.OpenBrowser(url); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Could not open browser: %v\nOpen %s manually.\n", err, url)
		}
	}

	if err := <-errCh; err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
