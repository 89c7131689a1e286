package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nvandessel/spike/internal/logging"
	"github.com/nvandessel/spike/internal/network"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	return New(Options{TickInterval: 5 * time.Millisecond})
}

func TestNew_Defaults(t *testing.T) {
	s := New(Options{})

	if s.Interval() != 100*time.Millisecond {
		t.Errorf("Interval() = %v, want 100ms", s.Interval())
	}
	if got := s.Config(); got != network.DefaultConfig() {
		t.Errorf("Config() = %+v, want defaults", got)
	}
	if s.TickCount() != 0 {
		t.Errorf("TickCount() = %d, want 0", s.TickCount())
	}
	if s.Running() {
		t.Error("new session should not be running")
	}
}

func TestNew_PartialConfigKeepsOverrides(t *testing.T) {
	cfg := network.DefaultConfig()
	cfg.ManualStimulus = 2
	cfg.WeightDefault = 1.5
	cfg.SubSteps = 0
	cfg.WeightSteps = 0

	got := New(Options{Network: cfg}).Config()
	if got.ManualStimulus != 2 || got.WeightDefault != 1.5 {
		t.Errorf("overrides lost: %+v", got)
	}
	def := network.DefaultConfig()
	if got.SubSteps != def.SubSteps || got.WeightSteps != def.WeightSteps {
		t.Errorf("SubSteps/WeightSteps = %d/%d, want %d/%d",
			got.SubSteps, got.WeightSteps, def.SubSteps, def.WeightSteps)
	}

	s := New(Options{Network: cfg})
	id := s.AddNeuron(network.Position{})
	if err := s.Stimulate(id); err != nil {
		t.Fatal(err)
	}
	n, _ := s.Neuron(id)
	if want := def.V0 + 2; n.V != want {
		t.Errorf("v after stimulus = %v, want %v", n.V, want)
	}
}

func TestSession_Commands(t *testing.T) {
	s := newTestSession(t)

	a := s.AddNeuron(network.Position{X: 10, Y: 20})
	b := s.AddNeuron(network.Position{X: 30, Y: 40})

	l, err := s.AddLink(a, b)
	if err != nil {
		t.Fatalf("AddLink: %v", err)
	}
	if _, err := s.AddLink(a, b); !errors.Is(err, network.ErrDuplicateLink) {
		t.Errorf("second AddLink err = %v, want ErrDuplicateLink", err)
	}

	w, err := s.AdjustWeight(l, 5)
	if err != nil {
		t.Fatalf("AdjustWeight: %v", err)
	}
	if w != 1.0 {
		t.Errorf("weight = %v, want 1.0", w)
	}

	if err := s.Stimulate(a); err != nil {
		t.Fatalf("Stimulate: %v", err)
	}
	if err := s.MoveNeuron(b, network.Position{X: 1, Y: 2}); err != nil {
		t.Fatalf("MoveNeuron: %v", err)
	}
	view, err := s.Neuron(b)
	if err != nil {
		t.Fatalf("Neuron: %v", err)
	}
	if view.Position != (network.Position{X: 1, Y: 2}) {
		t.Errorf("Position = %v", view.Position)
	}

	if err := s.RemoveNeuron(a); err != nil {
		t.Fatalf("RemoveNeuron: %v", err)
	}
	if _, err := s.Link(l); !errors.Is(err, network.ErrInvalidReference) {
		t.Errorf("link should be gone after removing its source, err = %v", err)
	}
	if err := s.RemoveLink(l); !errors.Is(err, network.ErrInvalidReference) {
		t.Errorf("RemoveLink err = %v, want ErrInvalidReference", err)
	}
}

func TestSession_Selection(t *testing.T) {
	s := newTestSession(t)
	a := s.AddNeuron(network.Position{})
	b := s.AddNeuron(network.Position{})

	if err := s.SelectNeuron(a); err != nil {
		t.Fatalf("SelectNeuron: %v", err)
	}
	l, created, err := s.Connect(b)
	if err != nil || !created {
		t.Fatalf("Connect = (%v, %v, %v), want created", l, created, err)
	}

	stats, ok := s.NeuronStats()
	if !ok || stats.ID != b {
		t.Errorf("NeuronStats = (%+v, %v), want selected %v", stats, ok, b)
	}

	if err := s.SelectLink(l); err != nil {
		t.Fatalf("SelectLink: %v", err)
	}
	ls, ok := s.LinkStats()
	if !ok || ls.Source != a || ls.Target != b {
		t.Errorf("LinkStats = (%+v, %v)", ls, ok)
	}

	s.ClearSelection()
	if _, ok := s.NeuronStats(); ok {
		t.Error("expected no selected neuron after ClearSelection")
	}
	if _, ok := s.LinkStats(); ok {
		t.Error("expected no selected link after ClearSelection")
	}
}

func TestSession_TickNotifiesObservers(t *testing.T) {
	s := newTestSession(t)
	a := s.AddNeuron(network.Position{})

	var got []int
	s.OnTick(func(snap Snapshot) {
		got = append(got, snap.Tick)
		if _, ok := snap.Neuron(a); !ok {
			t.Errorf("snapshot at tick %d missing neuron %v", snap.Tick, a)
		}
	})

	snap := s.TickN(3)
	if snap.Tick != 3 {
		t.Errorf("Tick = %d, want 3", snap.Tick)
	}
	if snap.Steps != 6 {
		t.Errorf("Steps = %d, want 6", snap.Steps)
	}
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Errorf("observer ticks = %v, want [1 2 3]", got)
	}
}

func TestSession_TickNZero(t *testing.T) {
	s := newTestSession(t)
	s.AddNeuron(network.Position{})

	snap := s.TickN(0)
	if snap.Tick != 0 || len(snap.Neurons) != 1 {
		t.Errorf("TickN(0) = %+v, want untouched snapshot", snap)
	}
}

func TestSession_SnapshotMatchesNetwork(t *testing.T) {
	s := newTestSession(t)
	a := s.AddNeuron(network.Position{X: 1})
	b := s.AddNeuron(network.Position{X: 2})
	if _, err := s.AddLink(a, b); err != nil {
		t.Fatal(err)
	}
	s.SelectNeuron(b)

	snap := s.Snapshot()
	if len(snap.Neurons) != 2 || len(snap.Links) != 1 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.SelectedNeuron != b {
		t.Errorf("SelectedNeuron = %v, want %v", snap.SelectedNeuron, b)
	}
	if snap.Neurons[0].V != -0.9 || snap.Neurons[0].W != 0.24 {
		t.Errorf("initial state = (%v, %v), want (-0.9, 0.24)", snap.Neurons[0].V, snap.Neurons[0].W)
	}

	if _, ok := snap.Neuron(99); ok {
		t.Error("Snapshot.Neuron(99) should not be found")
	}
}

func TestSession_Clock(t *testing.T) {
	s := newTestSession(t)
	s.AddNeuron(network.Position{})

	ticked := make(chan struct{}, 16)
	s.OnTick(func(Snapshot) {
		select {
		case ticked <- struct{}{}:
		default:
		}
	})

	if !s.Start(context.Background()) {
		t.Fatal("Start() = false, want true")
	}
	if s.Start(context.Background()) {
		t.Error("second Start() = true, want false")
	}
	if !s.Running() {
		t.Error("Running() = false after Start")
	}

	for i := 0; i < 2; i++ {
		select {
		case <-ticked:
		case <-time.After(2 * time.Second):
			t.Fatal("clock did not tick")
		}
	}

	if !s.Stop() {
		t.Error("Stop() = false, want true")
	}
	if s.Running() {
		t.Error("Running() = true after Stop")
	}
	if s.Stop() {
		t.Error("second Stop() = true, want false")
	}

	n := s.TickCount()
	if n < 2 {
		t.Errorf("TickCount() = %d, want >= 2", n)
	}
	time.Sleep(20 * time.Millisecond)
	if s.TickCount() != n {
		t.Error("clock kept ticking after Stop")
	}
}

func TestSession_ClockStopsOnContextCancel(t *testing.T) {
	s := newTestSession(t)
	ctx, cancel := context.WithCancel(context.Background())

	s.Start(ctx)
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for s.Running() {
		if time.Now().After(deadline) {
			t.Fatal("clock still running after context cancel")
		}
		time.Sleep(time.Millisecond)
	}

	if !s.Start(context.Background()) {
		t.Error("Start after cancelled run should succeed")
	}
	s.Stop()
}

func TestSession_ConcurrentCommands(t *testing.T) {
	s := newTestSession(t)
	s.Start(context.Background())
	defer s.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				a := s.AddNeuron(network.Position{})
				b := s.AddNeuron(network.Position{})
				l, err := s.AddLink(a, b)
				if err != nil {
					t.Errorf("AddLink: %v", err)
					return
				}
				s.Stimulate(a)
				s.AdjustWeight(l, 1)
				s.Tick()
				s.RemoveNeuron(b)
				_ = s.Snapshot()
			}
		}()
	}
	wg.Wait()

	snap := s.Snapshot()
	if len(snap.Neurons) != 160 {
		t.Errorf("neurons = %d, want 160", len(snap.Neurons))
	}
	if len(snap.Links) != 0 {
		t.Errorf("links = %d, want 0", len(snap.Links))
	}
}

func TestSession_Journal(t *testing.T) {
	var buf bytes.Buffer
	s := New(Options{Journal: logging.NewWriterJournal(&buf)})

	a := s.AddNeuron(network.Position{})
	s.RemoveNeuron(a)
	s.RemoveNeuron(a)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("journal lines = %d, want 3: %q", len(lines), buf.String())
	}

	var last map[string]any
	if err := json.Unmarshal([]byte(lines[2]), &last); err != nil {
		t.Fatal(err)
	}
	if last["command"] != "remove_neuron" {
		t.Errorf("command = %v", last["command"])
	}
	if _, ok := last["error"]; !ok {
		t.Error("second removal should be journaled with an error")
	}
}

func TestSession_SetWeight(t *testing.T) {
	s := New(Options{})
	a := s.AddNeuron(network.Position{})
	b := s.AddNeuron(network.Position{X: 40})
	l, err := s.AddLink(a, b)
	if err != nil {
		t.Fatalf("AddLink: %v", err)
	}

	tests := []struct {
		in   float64
		want float64
	}{
		{2.0, 2.0},
		{9, 5.0},
		{-1, 0.0},
		{0.5, 0.5},
	}
	for _, tt := range tests {
		got, err := s.SetWeight(l, tt.in)
		if err != nil {
			t.Fatalf("SetWeight(%v): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("SetWeight(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := s.SetWeight(network.LinkID(99), 1); !errors.Is(err, network.ErrInvalidReference) {
		t.Errorf("unknown link err = %v, want ErrInvalidReference", err)
	}
}
