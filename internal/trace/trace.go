// Package trace records per-tick neuron samples from a running session for
// offline analysis. Recordings go to memory or SQLite and export to Arrow IPC.
package trace

import (
	"context"
	"log/slog"
	"time"

	"github.com/nvandessel/spike/internal/network"
	"github.com/nvandessel/spike/internal/session"
)

// Sample is one neuron's state at the end of one tick.
type Sample struct {
	Tick   int              `json:"tick"`
	Neuron network.NeuronID `json:"neuron"`
	V      float64          `json:"v"`
	W      float64          `json:"w"`
	Firing bool             `json:"firing"`
}

// Event is a labelled point in a recording, such as a stimulus.
type Event struct {
	Tick    int    `json:"tick"`
	Kind    string `json:"kind"`
	Subject int    `json:"subject"`
}

// Run describes one recording.
type Run struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	StartedAt time.Time `json:"started_at"`
	Samples   int       `json:"samples"`
	Events    int       `json:"events"`
}

// Recorder receives tick snapshots and events.
type Recorder interface {
	RecordTick(ctx context.Context, snap session.Snapshot) error
	RecordEvent(ctx context.Context, ev Event) error
	Close() error
}

// SamplesOf flattens a snapshot into one sample per neuron.
func SamplesOf(snap session.Snapshot) []Sample {
	out := make([]Sample, 0, len(snap.Neurons))
	for _, n := range snap.Neurons {
		out = append(out, Sample{
			Tick:   snap.Tick,
			Neuron: n.ID,
			V:      n.V,
			W:      n.W,
			Firing: n.Firing(),
		})
	}
	return out
}

// Attach registers rec as a tick observer on sess, recording every
// sampleEvery-th tick. Recording errors are logged and do not stop the
// session.
func Attach(sess *session.Session, rec Recorder, sampleEvery int, logger *slog.Logger) {
	if sampleEvery < 1 {
		sampleEvery = 1
	}
	sess.OnTick(func(snap session.Snapshot) {
		if snap.Tick%sampleEvery != 0 {
			return
		}
		if err := rec.RecordTick(context.Background(), snap); err != nil && logger != nil {
			logger.Warn("trace record failed", "tick", snap.Tick, "error", err)
		}
	})
}
