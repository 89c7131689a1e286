// Package session wraps a network with a mutex and a periodic clock so that
// a shell, an MCP server and a trace recorder can drive the same simulation.
//
// All public methods are safe for concurrent use.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nvandessel/spike/internal/constants"
	"github.com/nvandessel/spike/internal/logging"
	"github.com/nvandessel/spike/internal/network"
)

// Options configures a Session.
type Options struct {
	// Network holds the model constants. The zero value means
	// network.DefaultConfig(); a partial Config keeps its fields and only
	// has zero SubSteps and WeightSteps defaulted.
	Network network.Config

	// TickInterval is the clock period. Default: 100ms.
	TickInterval time.Duration

	Logger  *slog.Logger
	Journal *logging.Journal
}

// Snapshot is a consistent view of the whole network at one instant.
type Snapshot struct {
	Tick           int                  `json:"tick"`
	Steps          int                  `json:"steps"`
	Neurons        []network.NeuronView `json:"neurons"`
	Links          []network.LinkView   `json:"links"`
	SelectedNeuron network.NeuronID     `json:"selected_neuron,omitempty"`
	SelectedLink   network.LinkID       `json:"selected_link,omitempty"`
}

// Neuron returns the snapshot of id, if present.
func (s Snapshot) Neuron(id network.NeuronID) (network.NeuronView, bool) {
	for _, n := range s.Neurons {
		if n.ID == id {
			return n, true
		}
	}
	return network.NeuronView{}, false
}

// TickObserver is called after every tick with the post-tick snapshot.
// Observers run on the ticking goroutine and must not call Tick.
type TickObserver func(Snapshot)

// Session is a concurrency-safe handle on a single network.
type Session struct {
	mu  sync.Mutex
	net *network.Network

	// tickMu serializes ticks with observer notification so observers see
	// snapshots in tick order.
	tickMu    sync.Mutex
	observers []TickObserver

	interval time.Duration
	logger   *slog.Logger
	journal  *logging.Journal

	clockMu sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a session over an empty network.
func New(opts Options) *Session {
	cfg := withDefaults(opts.Network)
	interval := opts.TickInterval
	if interval <= 0 {
		interval = constants.DefaultTickInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Session{
		net:      network.New(cfg),
		interval: interval,
		logger:   logger,
		journal:  opts.Journal,
	}
}

// withDefaults returns network.DefaultConfig() for the zero Config.
// Otherwise the caller's fields are kept and only the counts that cannot
// be zero (SubSteps, WeightSteps) fall back to their defaults.
func withDefaults(cfg network.Config) network.Config {
	def := network.DefaultConfig()
	if cfg == (network.Config{}) {
		return def
	}
	if cfg.SubSteps <= 0 {
		cfg.SubSteps = def.SubSteps
	}
	if cfg.WeightSteps <= 0 {
		cfg.WeightSteps = def.WeightSteps
	}
	return cfg
}

// Interval returns the clock period.
func (s *Session) Interval() time.Duration {
	return s.interval
}

// OnTick registers an observer for every subsequent tick.
func (s *Session) OnTick(fn TickObserver) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *Session) record(cmd string, args map[string]any, err error) {
	s.journal.Command(cmd, args, err)
	if err != nil {
		s.logger.Debug("command rejected", "command", cmd, "error", err)
		return
	}
	s.logger.Debug("command applied", "command", cmd)
}

// AddNeuron creates a neuron at pos.
func (s *Session) AddNeuron(pos network.Position) network.NeuronID {
	s.mu.Lock()
	id := s.net.AddNeuron(pos)
	s.mu.Unlock()

	s.record("add_neuron", map[string]any{"id": int(id), "x": pos.X, "y": pos.Y}, nil)
	return id
}

// RemoveNeuron deletes a neuron and every link touching it.
func (s *Session) RemoveNeuron(id network.NeuronID) error {
	s.mu.Lock()
	err := s.net.RemoveNeuron(id)
	s.mu.Unlock()

	s.record("remove_neuron", map[string]any{"id": int(id)}, err)
	return err
}

// AddLink creates a directed link from src to dst.
func (s *Session) AddLink(src, dst network.NeuronID) (network.LinkID, error) {
	s.mu.Lock()
	id, err := s.net.AddLink(src, dst)
	s.mu.Unlock()

	s.record("add_link", map[string]any{"id": int(id), "src": int(src), "dst": int(dst)}, err)
	return id, err
}

// RemoveLink deletes a link.
func (s *Session) RemoveLink(id network.LinkID) error {
	s.mu.Lock()
	err := s.net.RemoveLink(id)
	s.mu.Unlock()

	s.record("remove_link", map[string]any{"id": int(id)}, err)
	return err
}

// AdjustWeight moves a link's weight by delta steps and returns the new weight.
func (s *Session) AdjustWeight(id network.LinkID, delta float64) (float64, error) {
	s.mu.Lock()
	err := s.net.AdjustWeight(id, delta)
	var w float64
	if err == nil {
		v, _ := s.net.Link(id)
		w = v.Weight
	}
	s.mu.Unlock()

	s.record("adjust_weight", map[string]any{"id": int(id), "delta": delta}, err)
	return w, err
}

// SetWeight assigns a link's weight, clamped to the configured range, and
// returns the stored value.
func (s *Session) SetWeight(id network.LinkID, weight float64) (float64, error) {
	s.mu.Lock()
	err := s.net.SetWeight(id, weight)
	var w float64
	if err == nil {
		v, _ := s.net.Link(id)
		w = v.Weight
	}
	s.mu.Unlock()

	s.record("set_weight", map[string]any{"id": int(id), "weight": weight}, err)
	return w, err
}

// Stimulate adds the manual stimulus to a neuron's potential.
func (s *Session) Stimulate(id network.NeuronID) error {
	s.mu.Lock()
	err := s.net.Stimulate(id)
	s.mu.Unlock()

	s.record("stimulate", map[string]any{"id": int(id)}, err)
	return err
}

// MoveNeuron relocates a neuron.
func (s *Session) MoveNeuron(id network.NeuronID, pos network.Position) error {
	s.mu.Lock()
	err := s.net.MoveNeuron(id, pos)
	s.mu.Unlock()

	s.record("move_neuron", map[string]any{"id": int(id), "x": pos.X, "y": pos.Y}, err)
	return err
}

// SelectNeuron selects a neuron.
func (s *Session) SelectNeuron(id network.NeuronID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.net.SelectNeuron(id)
}

// SelectLink selects a link.
func (s *Session) SelectLink(id network.LinkID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.net.SelectLink(id)
}

// ClearSelection deselects everything.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.net.ClearSelection()
}

// Connect performs the interactive link gesture on target.
func (s *Session) Connect(target network.NeuronID) (network.LinkID, bool, error) {
	s.mu.Lock()
	id, created, err := s.net.Connect(target)
	s.mu.Unlock()

	s.record("connect", map[string]any{"target": int(target), "created": created}, err)
	return id, created, err
}

// NeuronStats returns the selected neuron's stats.
func (s *Session) NeuronStats() (network.NeuronStats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.net.CurrentNeuronStats()
}

// LinkStats returns the selected link's stats.
func (s *Session) LinkStats() (network.LinkStats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.net.CurrentLinkStats()
}

// Neuron returns a snapshot of one neuron.
func (s *Session) Neuron(id network.NeuronID) (network.NeuronView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.net.Neuron(id)
}

// Link returns a snapshot of one link.
func (s *Session) Link(id network.LinkID) (network.LinkView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.net.Link(id)
}

// Config returns the network constants.
func (s *Session) Config() network.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.net.Config()
}

// TickCount returns the number of completed ticks.
func (s *Session) TickCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.net.Ticks()
}

// Snapshot returns a consistent copy of the whole network.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		Tick:    s.net.Ticks(),
		Steps:   s.net.Steps(),
		Neurons: s.net.Neurons(),
		Links:   s.net.Links(),
	}
	snap.SelectedNeuron, _ = s.net.SelectedNeuron()
	snap.SelectedLink, _ = s.net.SelectedLink()
	return snap
}

// Tick advances the network by one tick and notifies observers.
func (s *Session) Tick() Snapshot {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	s.mu.Lock()
	s.net.Tick()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Log(context.Background(), logging.LevelTrace, "tick",
		"tick", snap.Tick, "neurons", len(snap.Neurons), "links", len(snap.Links))

	for _, fn := range s.observers {
		fn(snap)
	}
	return snap
}

// TickN runs k ticks and returns the final snapshot.
func (s *Session) TickN(k int) Snapshot {
	var snap Snapshot
	if k <= 0 {
		return s.Snapshot()
	}
	for range k {
		snap = s.Tick()
	}
	return snap
}
