package trace

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/nvandessel/spike/internal/network"
	"github.com/nvandessel/spike/internal/session"
)

func newPairSession(t *testing.T) *session.Session {
	t.Helper()
	sess := session.New(session.Options{})
	a := sess.AddNeuron(network.Position{})
	b := sess.AddNeuron(network.Position{X: 50})
	if _, err := sess.AddLink(a, b); err != nil {
		t.Fatalf("AddLink: %v", err)
	}
	return sess
}

func TestSamplesOf(t *testing.T) {
	snap := session.Snapshot{
		Tick: 4,
		Neurons: []network.NeuronView{
			{ID: 1, V: 0.5, W: 0.1},
			{ID: 3, V: -0.5, W: 0.2},
		},
	}
	got := SamplesOf(snap)
	want := []Sample{
		{Tick: 4, Neuron: 1, V: 0.5, W: 0.1, Firing: true},
		{Tick: 4, Neuron: 3, V: -0.5, W: 0.2, Firing: false},
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestAttach_MemoryRecorder(t *testing.T) {
	sess := newPairSession(t)
	rec := NewMemoryRecorder()
	Attach(sess, rec, 2, nil)

	sess.TickN(5)

	samples := rec.Samples()
	if len(samples) != 4 {
		t.Fatalf("samples = %d, want 4 (ticks 2 and 4, two neurons)", len(samples))
	}
	if samples[0].Tick != 2 || samples[2].Tick != 4 {
		t.Errorf("sampled ticks = %d, %d, want 2, 4", samples[0].Tick, samples[2].Tick)
	}

	snap := sess.Snapshot()
	n, _ := snap.Neuron(2)
	if samples[3].V == n.V {
		t.Error("tick-4 sample should differ from the tick-5 state")
	}
}

func TestAttach_SampleEveryDefaultsToOne(t *testing.T) {
	sess := newPairSession(t)
	rec := NewMemoryRecorder()
	Attach(sess, rec, 0, nil)

	sess.TickN(3)
	if len(rec.Samples()) != 6 {
		t.Errorf("samples = %d, want 6", len(rec.Samples()))
	}
}

func TestMemoryRecorder_Events(t *testing.T) {
	rec := NewMemoryRecorder()
	ctx := context.Background()
	rec.RecordEvent(ctx, Event{Tick: 1, Kind: "stimulate", Subject: 2})
	rec.RecordEvent(ctx, Event{Tick: 3, Kind: "stimulate", Subject: 1})

	events := rec.Events()
	if len(events) != 2 || events[1].Subject != 1 {
		t.Errorf("events = %+v", events)
	}
	if err := rec.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestSQLiteRecorder_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "trace.db")

	sess := newPairSession(t)
	rec, err := OpenRecorder(ctx, path, "pair", sess.Config())
	if err != nil {
		t.Fatalf("OpenRecorder: %v", err)
	}
	Attach(sess, rec, 1, nil)

	sess.Stimulate(1)
	if err := rec.RecordEvent(ctx, Event{Tick: 0, Kind: "stimulate", Subject: 1}); err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}
	sess.TickN(3)
	runID := rec.RunID()
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	run, err := db.LatestRun(ctx)
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if run.ID != runID || run.Label != "pair" || run.Samples != 6 || run.Events != 1 {
		t.Errorf("run = %+v, want id %s label pair with 6 samples and 1 event", run, runID)
	}
	if run.StartedAt.IsZero() {
		t.Error("StartedAt should be set")
	}

	samples, err := db.Samples(ctx, runID)
	if err != nil {
		t.Fatalf("Samples: %v", err)
	}
	if len(samples) != 6 {
		t.Fatalf("samples = %d, want 6", len(samples))
	}
	if samples[0].Tick != 1 || samples[0].Neuron != 1 || samples[1].Neuron != 2 {
		t.Errorf("ordering wrong: %+v", samples[:2])
	}

	snap := sess.Snapshot()
	last := samples[5]
	n, _ := snap.Neuron(2)
	if last.V != n.V || last.W != n.W || last.Firing != n.Firing() {
		t.Errorf("last sample %+v does not match final state %+v", last, n)
	}

	events, err := db.Events(ctx, runID)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events) != 1 || events[0].Kind != "stimulate" {
		t.Errorf("events = %+v", events)
	}
}

func TestDB_MultipleRuns(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "trace.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	first, err := db.NewRun(ctx, "first", network.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	second, err := db.NewRun(ctx, "second", network.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if first.RunID() == second.RunID() {
		t.Error("run IDs must be unique")
	}
	// Closing a recorder from NewRun leaves the database open.
	first.Close()

	runs, err := db.Runs(ctx)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	if runs[0].Label != "second" {
		t.Errorf("newest run = %q, want second", runs[0].Label)
	}
}

func TestDB_UnknownRun(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "trace.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if _, err := db.LatestRun(ctx); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("LatestRun on empty db err = %v, want ErrRunNotFound", err)
	}
	if _, err := db.Samples(ctx, "nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Samples err = %v, want ErrRunNotFound", err)
	}
}

func TestOpen_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "trace.db")

	for i := 0; i < 2; i++ {
		db, err := Open(ctx, path)
		if err != nil {
			t.Fatalf("Open #%d: %v", i, err)
		}
		db.Close()
	}
}

func sameFloat(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}

func TestSQLiteRecorder_DivergedRun(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "trace.db")

	sess := session.New(session.Options{})
	id := sess.AddNeuron(network.Position{})
	for i := 0; i < 5; i++ {
		sess.Stimulate(id)
	}

	rec, err := OpenRecorder(ctx, path, "diverged", sess.Config())
	if err != nil {
		t.Fatalf("OpenRecorder: %v", err)
	}
	mem := NewMemoryRecorder()
	Attach(sess, rec, 1, nil)
	Attach(sess, mem, 1, nil)

	sess.TickN(10)
	runID := rec.RunID()
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	n, _ := sess.Snapshot().Neuron(id)
	if !math.IsNaN(n.V) {
		t.Fatalf("final v = %v, want NaN after runaway growth", n.V)
	}

	db, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	got, err := db.Samples(ctx, runID)
	if err != nil {
		t.Fatalf("Samples: %v", err)
	}
	want := mem.Samples()
	if len(got) != 10 || len(want) != 10 {
		t.Fatalf("stored %d samples, observed %d, want 10 each", len(got), len(want))
	}
	for i := range want {
		if got[i].Tick != want[i].Tick || !sameFloat(got[i].V, want[i].V) || !sameFloat(got[i].W, want[i].W) {
			t.Errorf("sample[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
	if !math.IsNaN(got[9].V) {
		t.Errorf("tick-10 v = %v, want NaN", got[9].V)
	}
}

// schemaV1Samples is the samples table as first released, with v and w
// declared NOT NULL.
const schemaV1Samples = `
CREATE TABLE runs (
    id TEXT PRIMARY KEY,
    label TEXT NOT NULL DEFAULT '',
    config TEXT,
    started_at TEXT NOT NULL
);
CREATE TABLE samples (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    tick INTEGER NOT NULL,
    neuron INTEGER NOT NULL,
    v REAL NOT NULL,
    w REAL NOT NULL,
    firing INTEGER NOT NULL,
    PRIMARY KEY (run_id, tick, neuron)
);
CREATE TABLE events (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    tick INTEGER NOT NULL,
    kind TEXT NOT NULL,
    subject INTEGER NOT NULL
);
CREATE TABLE schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);
INSERT INTO schema_version VALUES (1, datetime('now'));
INSERT INTO runs VALUES ('old', 'old', NULL, '2026-01-01T00:00:00Z');
INSERT INTO samples VALUES ('old', 1, 1, -0.9, 0.24, 0);
`

func TestInitSchema_MigratesV1(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "trace.db")

	raw, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := raw.ExecContext(ctx, schemaV1Samples); err != nil {
		t.Fatalf("seed v1 schema: %v", err)
	}
	raw.Close()

	db, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	old, err := db.Samples(ctx, "old")
	if err != nil {
		t.Fatalf("Samples(old): %v", err)
	}
	if len(old) != 1 || old[0].V != -0.9 {
		t.Errorf("old samples = %+v", old)
	}

	rec, err := db.NewRun(ctx, "nan", network.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	snap := session.Snapshot{Tick: 1, Neurons: []network.NeuronView{{ID: 1, V: math.NaN(), W: math.Inf(1)}}}
	if err := rec.RecordTick(ctx, snap); err != nil {
		t.Fatalf("RecordTick with NaN after migration: %v", err)
	}
	got, err := db.Samples(ctx, rec.RunID())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || !math.IsNaN(got[0].V) || !math.IsInf(got[0].W, 1) {
		t.Errorf("samples = %+v, want v=NaN w=+Inf", got)
	}
}

func TestExportArrow(t *testing.T) {
	samples := []Sample{
		{Tick: 1, Neuron: 1, V: 0.25, W: 0.1, Firing: true},
		{Tick: 1, Neuron: 2, V: -0.9, W: 0.24, Firing: false},
		{Tick: 2, Neuron: 1, V: 0.5, W: 0.2, Firing: true},
	}

	var buf bytes.Buffer
	if err := ExportArrow(&buf, samples); err != nil {
		t.Fatalf("ExportArrow: %v", err)
	}

	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	r, err := ipc.NewReader(&buf, ipc.WithAllocator(mem))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Release()

	if !r.Schema().Equal(SampleSchema) {
		t.Errorf("schema = %v", r.Schema())
	}
	if !r.Next() {
		t.Fatalf("no record: %v", r.Err())
	}
	rec := r.Record()
	if rec.NumRows() != 3 {
		t.Fatalf("rows = %d, want 3", rec.NumRows())
	}

	ticks := rec.Column(0).(*array.Int64)
	neurons := rec.Column(1).(*array.Int64)
	vs := rec.Column(2).(*array.Float64)
	firing := rec.Column(4).(*array.Boolean)
	if ticks.Value(2) != 2 || neurons.Value(1) != 2 {
		t.Errorf("tick/neuron columns wrong")
	}
	if vs.Value(1) != -0.9 {
		t.Errorf("v[1] = %v, want -0.9", vs.Value(1))
	}
	if !firing.Value(0) || firing.Value(1) {
		t.Errorf("firing column wrong")
	}
	if r.Next() {
		t.Error("expected a single record batch")
	}
	if err := r.Err(); err != nil {
		t.Errorf("reader: %v", err)
	}
}

func TestExportArrow_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportArrow(&buf, nil); err != nil {
		t.Fatalf("ExportArrow(nil): %v", err)
	}
	r, err := ipc.NewReader(&buf)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Release()
	if !r.Next() {
		t.Fatalf("no record: %v", r.Err())
	}
	if r.Record().NumRows() != 0 {
		t.Errorf("rows = %d, want 0", r.Record().NumRows())
	}
}

func TestExportEventsArrow(t *testing.T) {
	events := []Event{
		{Tick: 0, Kind: "stimulate", Subject: 1},
		{Tick: 4, Kind: "stimulate", Subject: 3},
	}

	var buf bytes.Buffer
	if err := ExportEventsArrow(&buf, events); err != nil {
		t.Fatalf("ExportEventsArrow: %v", err)
	}

	r, err := ipc.NewReader(&buf)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Release()

	if !r.Schema().Equal(EventSchema) {
		t.Errorf("schema = %v", r.Schema())
	}
	if !r.Next() {
		t.Fatalf("no record: %v", r.Err())
	}
	rec := r.Record()
	if rec.NumRows() != 2 {
		t.Fatalf("rows = %d, want 2", rec.NumRows())
	}
	kinds := rec.Column(1).(*array.String)
	subjects := rec.Column(2).(*array.Int64)
	if kinds.Value(0) != "stimulate" || subjects.Value(1) != 3 {
		t.Errorf("event columns wrong: %v %v", kinds, subjects)
	}
}
