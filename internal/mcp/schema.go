// Package mcp provides an MCP (Model Context Protocol) server for spike.
package mcp

import "github.com/nvandessel/spike/internal/network"

// AddNeuronInput defines the input for the spike_add_neuron tool.
type AddNeuronInput struct {
	X float64 `json:"x,omitempty" jsonschema:"Canvas x position (no effect on dynamics)"`
	Y float64 `json:"y,omitempty" jsonschema:"Canvas y position (no effect on dynamics)"`
}

// AddNeuronOutput defines the output for the spike_add_neuron tool.
type AddNeuronOutput struct {
	ID    int    `json:"id" jsonschema:"Handle of the new neuron"`
	Label string `json:"label" jsonschema:"Display label, e.g. N 3"`
}

// NeuronRefInput names a single neuron.
type NeuronRefInput struct {
	ID int `json:"id" jsonschema:"Neuron handle"`
}

// LinkRefInput names a single link.
type LinkRefInput struct {
	ID int `json:"id" jsonschema:"Link handle"`
}

// RemoveOutput reports a removal.
type RemoveOutput struct {
	ID      int    `json:"id" jsonschema:"Handle that was removed"`
	Message string `json:"message" jsonschema:"Human-readable result message"`
}

// AddLinkInput defines the input for the spike_add_link tool.
type AddLinkInput struct {
	Source int `json:"source" jsonschema:"Handle of the presynaptic neuron"`
	Target int `json:"target" jsonschema:"Handle of the postsynaptic neuron"`
}

// LinkOutput describes one link.
type LinkOutput struct {
	ID     int     `json:"id" jsonschema:"Link handle"`
	Label  string  `json:"label" jsonschema:"Display label, e.g. N 1 -> N 2"`
	Weight float64 `json:"weight" jsonschema:"Current weight"`
}

// AdjustWeightInput defines the input for the spike_adjust_weight tool.
type AdjustWeightInput struct {
	ID    int     `json:"id" jsonschema:"Link handle"`
	Steps float64 `json:"steps" jsonschema:"Number of weight increments to move by (negative lowers the weight)"`
}

// StimulateOutput defines the output for the spike_stimulate tool.
type StimulateOutput struct {
	ID int      `json:"id" jsonschema:"Neuron handle"`
	V  *float64 `json:"v" jsonschema:"Membrane potential after the stimulus (null once diverged)"`
}

// SelectInput defines the input for the spike_select tool. Zero handles are
// ignored; Clear deselects everything first.
type SelectInput struct {
	Neuron int  `json:"neuron,omitempty" jsonschema:"Neuron handle to select"`
	Link   int  `json:"link,omitempty" jsonschema:"Link handle to select"`
	Clear  bool `json:"clear,omitempty" jsonschema:"Clear the selection before selecting"`
}

// SelectOutput reports the current selection.
type SelectOutput struct {
	Neuron *NeuronStatsOutput `json:"neuron,omitempty" jsonschema:"Selected neuron stats"`
	Link   *network.LinkStats `json:"link,omitempty" jsonschema:"Selected link stats"`
	Text   string             `json:"text" jsonschema:"Stats as displayed"`
}

// NeuronStatsOutput is the selected neuron's potential.
type NeuronStatsOutput struct {
	ID int      `json:"id" jsonschema:"Neuron handle"`
	V  *float64 `json:"v" jsonschema:"Membrane potential (null once diverged)"`
}

// TickInput defines the input for the spike_tick tool.
type TickInput struct {
	Count int `json:"count,omitempty" jsonschema:"Number of ticks to run (default 1, max 1000)"`
}

// TickOutput defines the output for the spike_tick tool.
type TickOutput struct {
	Tick   int   `json:"tick" jsonschema:"Completed tick count"`
	Firing []int `json:"firing" jsonschema:"Handles of neurons above threshold after the last tick"`
}

// StateInput defines the input for the spike_state tool.
type StateInput struct{}

// StateOutput defines the output for the spike_state tool.
type StateOutput struct {
	Tick    int                `json:"tick" jsonschema:"Completed tick count"`
	Running bool               `json:"running" jsonschema:"Whether the periodic clock is running"`
	Neurons []NeuronState      `json:"neurons" jsonschema:"Every neuron in creation order"`
	Links   []network.LinkView `json:"links" jsonschema:"Every link in creation order"`
}

// NeuronState is one neuron in a state report. State variables that have
// diverged to NaN or an infinity are null and Diverged is set.
type NeuronState struct {
	ID       network.NeuronID `json:"id" jsonschema:"Neuron handle"`
	Position network.Position `json:"position" jsonschema:"Canvas position"`
	V        *float64         `json:"v" jsonschema:"Membrane potential"`
	W        *float64         `json:"w" jsonschema:"Recovery variable"`
	I        *float64         `json:"i" jsonschema:"Input current accumulated for the next tick"`
	IPrev    *float64         `json:"i_prev" jsonschema:"Input current applied on the last tick"`
	Firing   bool             `json:"firing" jsonschema:"Whether v is above threshold"`
	Diverged bool             `json:"diverged,omitempty" jsonschema:"Whether any state variable is no longer finite"`
	Outgoing []network.LinkID `json:"outgoing" jsonschema:"Links leaving this neuron"`
	Incoming []network.LinkID `json:"incoming" jsonschema:"Links entering this neuron"`
}

// GraphInput defines the input for the spike_graph tool.
type GraphInput struct {
	Format string `json:"format,omitempty" jsonschema:"Output format: dot or json (default json)"`
}

// GraphOutput defines the output for the spike_graph tool.
type GraphOutput struct {
	Format string `json:"format" jsonschema:"Format of the rendered graph"`
	Graph  string `json:"graph" jsonschema:"Rendered graph"`
}
