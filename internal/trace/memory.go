package trace

import (
	"context"
	"slices"
	"sync"

	"github.com/nvandessel/spike/internal/session"
)

// MemoryRecorder keeps a recording in memory.
type MemoryRecorder struct {
	mu      sync.Mutex
	samples []Sample
	events  []Event
}

// NewMemoryRecorder creates an empty in-memory recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

func (m *MemoryRecorder) RecordTick(_ context.Context, snap session.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = append(m.samples, SamplesOf(snap)...)
	return nil
}

func (m *MemoryRecorder) RecordEvent(_ context.Context, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *MemoryRecorder) Close() error { return nil }

// Samples returns a copy of everything recorded so far.
func (m *MemoryRecorder) Samples() []Sample {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.samples)
}

// Events returns a copy of the recorded events.
func (m *MemoryRecorder) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.events)
}
