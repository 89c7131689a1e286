package main

import (
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/nvandessel/spike/internal/network"
	"github.com/nvandessel/spike/internal/simulation"
	"github.com/nvandessel/spike/internal/trace"
	"github.com/nvandessel/spike/internal/visualization"
	"github.com/spf13/cobra"
)

// neuronSummary is one neuron's line in a run summary.
type neuronSummary struct {
	Name       string           `json:"name"`
	ID         network.NeuronID `json:"id"`
	FirstSpike *int             `json:"first_spike,omitempty"`
	Spikes     int              `json:"spikes"`
	FinalV     *float64         `json:"final_v"`
	FinalW     *float64         `json:"final_w"`
	Diverged   bool             `json:"diverged,omitempty"`
}

type runSummary struct {
	Scenario  string          `json:"scenario"`
	Ticks     int             `json:"ticks"`
	Stimuli   int             `json:"stimuli"`
	ElapsedMs int64           `json:"elapsed_ms"`
	Neurons   []neuronSummary `json:"neurons"`
	TraceRun  string          `json:"trace_run,omitempty"`
	TracePath string          `json:"trace_path,omitempty"`
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario file",
		Long: `Build the network described by a scenario file, apply its stimuli and
tick it, then print a per-neuron summary.

When a trace path is configured (trace.path or --trace), every sampled
tick is recorded to SQLite for later export.

Examples:
  spike run scenarios/chain.yaml
  spike run scenarios/chain.yaml --ticks 200 --trace /tmp/spike.db
  spike run scenarios/latch.yaml --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			ticks, _ := cmd.Flags().GetInt("ticks")
			tracePath, _ := cmd.Flags().GetString("trace")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cmd, cfg)

			sc, err := simulation.LoadScenario(args[0])
			if err != nil {
				return err
			}
			if ticks > 0 {
				sc.Ticks = ticks
			}
			if tracePath == "" {
				tracePath = cfg.Trace.Path
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			runner := simulation.NewRunner(cfg.NetworkConfig())
			runner.Logger = logger
			runner.SampleEvery = cfg.Trace.SampleEvery

			var rec *trace.SQLiteRecorder
			if tracePath != "" {
				rec, err = trace.OpenRecorder(ctx, tracePath, sc.Name, sc.NetworkConfig(runner.Config))
				if err != nil {
					return fmt.Errorf("open trace: %w", err)
				}
				defer rec.Close()
				runner.Recorder = rec
			}

			res, err := runner.Run(ctx, sc)
			if err != nil {
				return fmt.Errorf("run %s: %w", sc.Name, err)
			}

			summary := summarize(res)
			if rec != nil {
				summary.TraceRun = rec.RunID()
				summary.TracePath = tracePath
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), summary)
			}
			printSummary(cmd, summary)
			return nil
		},
	}

	cmd.Flags().Int("ticks", 0, "Override the scenario's tick count")
	cmd.Flags().String("trace", "", "Record samples to this SQLite file (overrides trace.path)")

	return cmd
}

func summarize(res *simulation.Result) runSummary {
	s := runSummary{
		Scenario:  res.Name,
		Ticks:     res.Final.Tick,
		Stimuli:   res.Stimuli,
		ElapsedMs: res.Elapsed.Milliseconds(),
	}
	for name, id := range res.IDs {
		ns := neuronSummary{Name: name, ID: id, Spikes: res.SpikeCount(name)}
		if tick, ok := res.FirstSpike(name); ok {
			ns.FirstSpike = &tick
		}
		if n, ok := res.Final.Neuron(id); ok {
			ns.FinalV = visualization.Finite(n.V)
			ns.FinalW = visualization.Finite(n.W)
			ns.Diverged = visualization.Diverged(n.V, n.W)
		}
		s.Neurons = append(s.Neurons, ns)
	}
	sort.Slice(s.Neurons, func(i, j int) bool { return s.Neurons[i].ID < s.Neurons[j].ID })
	return s
}

func fmtState(x *float64) string {
	if x == nil {
		return "diverged"
	}
	return fmt.Sprintf("%.3f", *x)
}

func printSummary(cmd *cobra.Command, s runSummary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scenario %s: %s ticks, %s stimuli\n",
		s.Scenario, humanize.Comma(int64(s.Ticks)), humanize.Comma(int64(s.Stimuli)))
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %-12s %-12s %-8s %8s %8s\n", "NEURON", "FIRST SPIKE", "SPIKES", "V", "W")
	for _, n := range s.Neurons {
		first := "never"
		if n.FirstSpike != nil {
			first = fmt.Sprintf("tick %d", *n.FirstSpike)
		}
		fmt.Fprintf(out, "  %-12s %-12s %-8d %8s %8s\n", n.Name, first, n.Spikes, fmtState(n.FinalV), fmtState(n.FinalW))
	}
	if s.TraceRun != "" {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Trace run %s recorded to %s\n", s.TraceRun, s.TracePath)
	}
}
