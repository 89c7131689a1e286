package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nvandessel/spike/internal/logging"
	"github.com/nvandessel/spike/internal/network"
	"github.com/nvandessel/spike/internal/session"
	"github.com/nvandessel/spike/internal/trace"
)

// TickResult captures every named neuron's state after one tick.
type TickResult struct {
	Tick   int
	V      map[string]float64
	W      map[string]float64
	Firing map[string]bool
}

// Result captures a whole run.
type Result struct {
	Name    string
	IDs     map[string]network.NeuronID
	Links   map[string]network.LinkID // "from->to" -> link
	Ticks   []TickResult
	Final   session.Snapshot
	Stimuli int
	Elapsed time.Duration
}

// LinkKey builds the canonical map key for a link between two named neurons.
func LinkKey(from, to string) string {
	return from + "->" + to
}

// FirstSpike returns the first tick at which name was firing.
func (r *Result) FirstSpike(name string) (int, bool) {
	for _, tr := range r.Ticks {
		if tr.Firing[name] {
			return tr.Tick, true
		}
	}
	return 0, false
}

// SpikeCount returns the number of spike onsets of name: ticks where it is
// firing and was not firing on the previous tick.
func (r *Result) SpikeCount(name string) int {
	count := 0
	prev := false
	for _, tr := range r.Ticks {
		f := tr.Firing[name]
		if f && !prev {
			count++
		}
		prev = f
	}
	return count
}

// Potentials returns name's v after each tick.
func (r *Result) Potentials(name string) []float64 {
	out := make([]float64, len(r.Ticks))
	for i, tr := range r.Ticks {
		out[i] = tr.V[name]
	}
	return out
}

// Runner executes scenarios on fresh sessions.
type Runner struct {
	// Config is the base network configuration that scenarios override.
	Config network.Config

	Logger *slog.Logger

	// Recorder, when set, receives every SampleEvery-th tick and an event
	// per stimulus.
	Recorder    trace.Recorder
	SampleEvery int
}

// NewRunner creates a runner over base network constants.
func NewRunner(base network.Config) *Runner {
	return &Runner{Config: base, Logger: logging.Discard(), SampleEvery: 1}
}

// Build validates sc and returns a fresh session holding its network, with
// no stimuli applied and no ticks run. The session is not started.
func (r *Runner) Build(sc Scenario, opts session.Options) (*session.Session, map[string]network.NeuronID, error) {
	if err := sc.Validate(); err != nil {
		return nil, nil, err
	}
	if opts.Logger == nil {
		opts.Logger = r.logger()
	}
	opts.Network = sc.NetworkConfig(r.Config)
	sess := session.New(opts)
	res := &Result{
		IDs:   make(map[string]network.NeuronID, len(sc.Neurons)),
		Links: make(map[string]network.LinkID, len(sc.Links)),
	}
	if err := r.build(sess, sc, res); err != nil {
		return nil, nil, err
	}
	return sess, res.IDs, nil
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return logging.Discard()
	}
	return r.Logger
}

// Run builds the scenario's network, applies its stimuli and ticks it.
// The run stops early with ctx's error if ctx is cancelled.
func (r *Runner) Run(ctx context.Context, sc Scenario) (*Result, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	logger := r.logger()

	start := time.Now()
	sess := session.New(session.Options{
		Network: sc.NetworkConfig(r.Config),
		Logger:  logger,
	})

	res := &Result{
		Name:  sc.Name,
		IDs:   make(map[string]network.NeuronID, len(sc.Neurons)),
		Links: make(map[string]network.LinkID, len(sc.Links)),
		Ticks: make([]TickResult, 0, sc.Ticks),
	}

	if err := r.build(sess, sc, res); err != nil {
		return nil, err
	}

	names := make(map[network.NeuronID]string, len(res.IDs))
	for name, id := range res.IDs {
		names[id] = name
	}
	sess.OnTick(func(snap session.Snapshot) {
		res.Ticks = append(res.Ticks, tickResult(snap, names))
	})
	if r.Recorder != nil {
		trace.Attach(sess, r.Recorder, r.SampleEvery, logger)
	}

	for k := 0; k < sc.Ticks; k++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, st := range sc.Stimuli {
			if !st.Fires(k, sc.Ticks) {
				continue
			}
			id := res.IDs[st.Neuron]
			if err := sess.Stimulate(id); err != nil {
				return nil, fmt.Errorf("stimulate %s at tick %d: %w", st.Neuron, k, err)
			}
			res.Stimuli++
			if r.Recorder != nil {
				ev := trace.Event{Tick: k, Kind: "stimulate", Subject: int(id)}
				if err := r.Recorder.RecordEvent(ctx, ev); err != nil {
					logger.Warn("trace event failed", "tick", k, "error", err)
				}
			}
		}
		sess.Tick()
	}

	res.Final = sess.Snapshot()
	res.Elapsed = time.Since(start)
	logger.Info("scenario complete",
		"scenario", sc.Name, "ticks", sc.Ticks, "stimuli", res.Stimuli, "elapsed", res.Elapsed)
	return res, nil
}

func (r *Runner) build(sess *session.Session, sc Scenario, res *Result) error {
	for _, ns := range sc.Neurons {
		res.IDs[ns.Name] = sess.AddNeuron(network.Position{X: ns.X, Y: ns.Y})
	}
	for _, ls := range sc.Links {
		id, err := sess.AddLink(res.IDs[ls.From], res.IDs[ls.To])
		if err != nil {
			return fmt.Errorf("link %s -> %s: %w", ls.From, ls.To, err)
		}
		switch {
		case ls.Weight != nil:
			_, err = sess.SetWeight(id, *ls.Weight)
		case ls.Steps != 0:
			_, err = sess.AdjustWeight(id, ls.Steps)
		}
		if err != nil {
			return fmt.Errorf("weight %s -> %s: %w", ls.From, ls.To, err)
		}
		res.Links[LinkKey(ls.From, ls.To)] = id
	}
	return nil
}

func tickResult(snap session.Snapshot, names map[network.NeuronID]string) TickResult {
	tr := TickResult{
		Tick:   snap.Tick,
		V:      make(map[string]float64, len(snap.Neurons)),
		W:      make(map[string]float64, len(snap.Neurons)),
		Firing: make(map[string]bool, len(snap.Neurons)),
	}
	for _, n := range snap.Neurons {
		name := names[n.ID]
		tr.V[name] = n.V
		tr.W[name] = n.W
		tr.Firing[name] = n.Firing()
	}
	return tr
}
