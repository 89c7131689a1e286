package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/nvandessel/spike/internal/trace"
	"github.com/spf13/cobra"
)

func newTraceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect and export recorded runs",
		Long: `Work with runs recorded by "spike run" or "spike shell" when a trace
path is configured.

Examples:
  spike trace list --db /tmp/spike.db
  spike trace export --db /tmp/spike.db -o chain.arrow
  spike trace export --db /tmp/spike.db --run <id> -o run.arrow
  spike trace export --db /tmp/spike.db --events -o stimuli.arrow

Exports are Arrow IPC streams.`,
	}
	cmd.PersistentFlags().String("db", "", "Trace database (default trace.path from config)")

	cmd.AddCommand(
		newTraceListCmd(),
		newTraceExportCmd(),
	)
	return cmd
}

// openTraceDB opens the database named by --db or trace.path.
func openTraceDB(cmd *cobra.Command) (*trace.DB, error) {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return nil, err
		}
		path = cfg.Trace.Path
	}
	if path == "" {
		return nil, errors.New("no trace database: pass --db or set trace.path")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("trace database: %w", err)
	}
	return trace.Open(cmd.Context(), path)
}

func newTraceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			db, err := openTraceDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			runs, err := db.Runs(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOut {
				if runs == nil {
					runs = []trace.Run{}
				}
				return writeJSON(cmd.OutOrStdout(), runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
				return nil
			}
			for _, r := range runs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-16s %10s samples %6s events  %s\n",
					r.ID, r.Label, humanize.Comma(int64(r.Samples)), humanize.Comma(int64(r.Events)),
					humanize.Time(r.StartedAt))
			}
			return nil
		},
	}
}

func newTraceExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a run's samples or events as an Arrow IPC stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, _ := cmd.Flags().GetString("run")
			output, _ := cmd.Flags().GetString("output")
			events, _ := cmd.Flags().GetBool("events")

			db, err := openTraceDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			if runID == "" {
				latest, err := db.LatestRun(ctx)
				if err != nil {
					return err
				}
				runID = latest.ID
			}

			var buf bytes.Buffer
			var count int
			what := "samples"
			if events {
				what = "events"
				evs, err := db.Events(ctx, runID)
				if err != nil {
					return err
				}
				if err := trace.ExportEventsArrow(&buf, evs); err != nil {
					return fmt.Errorf("export: %w", err)
				}
				count = len(evs)
			} else {
				samples, err := db.Samples(ctx, runID)
				if err != nil {
					return err
				}
				if err := trace.ExportArrow(&buf, samples); err != nil {
					return fmt.Errorf("export: %w", err)
				}
				count = len(samples)
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				if err := os.WriteFile(output, buf.Bytes(), 0644); err != nil {
					return fmt.Errorf("write %s: %w", output, err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %s %s of run %s to %s (%s)\n",
					humanize.Comma(int64(count)), what, runID, output, humanize.Bytes(uint64(buf.Len())))
				return nil
			}
			_, err = w.Write(buf.Bytes())
			return err
		},
	}
	cmd.Flags().String("run", "", "Run ID (default: latest run)")
	cmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	cmd.Flags().Bool("events", false, "Export the run's stimulus events instead of samples")
	return cmd
}
