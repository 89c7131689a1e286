package trace

import (
	"fmt"
	"io"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// SampleSchema is the Arrow schema of exported samples.
var SampleSchema = arrow.NewSchema([]arrow.Field{
	{Name: "tick", Type: arrow.PrimitiveTypes.Int64},
	{Name: "neuron", Type: arrow.PrimitiveTypes.Int64},
	{Name: "v", Type: arrow.PrimitiveTypes.Float64},
	{Name: "w", Type: arrow.PrimitiveTypes.Float64},
	{Name: "firing", Type: arrow.FixedWidthTypes.Boolean},
}, nil)

// EventSchema is the Arrow schema of exported events.
var EventSchema = arrow.NewSchema([]arrow.Field{
	{Name: "tick", Type: arrow.PrimitiveTypes.Int64},
	{Name: "kind", Type: arrow.BinaryTypes.String},
	{Name: "subject", Type: arrow.PrimitiveTypes.Int64},
}, nil)

// ExportArrow writes samples to w as an Arrow IPC stream with a single
// record batch. Read it back with ipc.NewReader.
func ExportArrow(w io.Writer, samples []Sample) error {
	mem := memory.NewGoAllocator()

	b := array.NewRecordBuilder(mem, SampleSchema)
	defer b.Release()

	ticks := b.Field(0).(*array.Int64Builder)
	neurons := b.Field(1).(*array.Int64Builder)
	vs := b.Field(2).(*array.Float64Builder)
	ws := b.Field(3).(*array.Float64Builder)
	firing := b.Field(4).(*array.BooleanBuilder)

	for _, s := range samples {
		ticks.Append(int64(s.Tick))
		neurons.Append(int64(s.Neuron))
		vs.Append(s.V)
		ws.Append(s.W)
		firing.Append(s.Firing)
	}

	rec := b.NewRecord()
	defer rec.Release()
	return writeStream(w, mem, SampleSchema, rec)
}

// ExportEventsArrow writes events to w as an Arrow IPC stream.
func ExportEventsArrow(w io.Writer, events []Event) error {
	mem := memory.NewGoAllocator()

	b := array.NewRecordBuilder(mem, EventSchema)
	defer b.Release()

	ticks := b.Field(0).(*array.Int64Builder)
	kinds := b.Field(1).(*array.StringBuilder)
	subjects := b.Field(2).(*array.Int64Builder)

	for _, e := range events {
		ticks.Append(int64(e.Tick))
		kinds.Append(e.Kind)
		subjects.Append(int64(e.Subject))
	}

	rec := b.NewRecord()
	defer rec.Release()
	return writeStream(w, mem, EventSchema, rec)
}

func writeStream(w io.Writer, mem memory.Allocator, schema *arrow.Schema, rec arrow.Record) error {
	sw := ipc.NewWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err := sw.Write(rec); err != nil {
		sw.Close()
		return fmt.Errorf("failed to write arrow record: %w", err)
	}
	if err := sw.Close(); err != nil {
		return fmt.Errorf("failed to close arrow writer: %w", err)
	}
	return nil
}
