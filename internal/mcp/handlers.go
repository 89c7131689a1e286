package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/spike/internal/network"
	"github.com/nvandessel/spike/internal/ratelimit"
	"github.com/nvandessel/spike/internal/visualization"
)

// maxTicksPerCall bounds spike_tick so a single call cannot stall the server.
const maxTicksPerCall = 1000

// errNoSelection is returned by spike_select when nothing ends up selected.
var errNoSelection = errors.New("nothing selected")

// registerTools registers all spike tools with the MCP server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "spike_add_neuron",
		Description: "Add a resting FitzHugh-Nagumo neuron at a canvas position. Returns its handle.",
	}, s.handleAddNeuron)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "spike_remove_neuron",
		Description: "Remove a neuron and every link that touches it.",
	}, s.handleRemoveNeuron)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "spike_add_link",
		Description: "Create a directed link from source to target at the default weight. Duplicate links are rejected.",
	}, s.handleAddLink)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "spike_remove_link",
		Description: "Remove a single link.",
	}, s.handleRemoveLink)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "spike_adjust_weight",
		Description: "Move a link's weight by a number of increments. The weight is clamped to its range.",
	}, s.handleAdjustWeight)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "spike_stimulate",
		Description: "Apply the manual stimulus to a neuron's membrane potential.",
	}, s.handleStimulate)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "spike_select",
		Description: "Select a neuron and/or a link and return their stats.",
	}, s.handleSelect)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "spike_tick",
		Description: "Advance the simulation by one or more ticks and report which neurons are firing.",
	}, s.handleTick)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "spike_state",
		Description: "Return the full state of every neuron and link.",
	}, s.handleState)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "spike_graph",
		Description: "Render the network as Graphviz DOT or JSON with potential colours.",
	}, s.handleGraph)
}

// registerResources registers MCP resources.
func (s *Server) registerResources() {
	s.server.AddResource(&sdk.Resource{
		URI:         "spike://network/state",
		Name:        "network-state",
		Description: "Current network graph as JSON",
		MIMEType:    "application/json",
	}, s.handleStateResource)

	s.server.AddResource(&sdk.Resource{
		URI:         "spike://network/graph.dot",
		Name:        "network-dot",
		Description: "Current network graph in Graphviz DOT format",
		MIMEType:    "text/vnd.graphviz",
	}, s.handleDOTResource)
}

func (s *Server) handleStateResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	data, err := json.MarshalIndent(visualization.RenderJSON(s.sess.Snapshot()), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode graph: %w", err)
	}
	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{{
			URI:      "spike://network/state",
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

func (s *Server) handleDOTResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{{
			URI:      "spike://network/graph.dot",
			MIMEType: "text/vnd.graphviz",
			Text:     visualization.RenderDOT(s.sess.Snapshot()),
		}},
	}, nil
}

// handleAddNeuron implements the spike_add_neuron tool.
func (s *Server) handleAddNeuron(ctx context.Context, req *sdk.CallToolRequest, args AddNeuronInput) (_ *sdk.CallToolResult, _ AddNeuronOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("spike_add_neuron", start, retErr, map[string]any{"x": args.X, "y": args.Y})
	}()
	if err := ratelimit.CheckLimit(s.toolLimiters, "spike_add_neuron"); err != nil {
		return nil, AddNeuronOutput{}, err
	}

	id := s.sess.AddNeuron(network.Position{X: args.X, Y: args.Y})
	return nil, AddNeuronOutput{ID: int(id), Label: id.String()}, nil
}

// handleRemoveNeuron implements the spike_remove_neuron tool.
func (s *Server) handleRemoveNeuron(ctx context.Context, req *sdk.CallToolRequest, args NeuronRefInput) (_ *sdk.CallToolResult, _ RemoveOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("spike_remove_neuron", start, retErr, map[string]any{"id": args.ID})
	}()
	if err := ratelimit.CheckLimit(s.toolLimiters, "spike_remove_neuron"); err != nil {
		return nil, RemoveOutput{}, err
	}

	if err := s.sess.RemoveNeuron(network.NeuronID(args.ID)); err != nil {
		return nil, RemoveOutput{}, fmt.Errorf("remove neuron: %w", err)
	}
	return nil, RemoveOutput{
		ID:      args.ID,
		Message: fmt.Sprintf("removed %s and its links", network.NeuronID(args.ID)),
	}, nil
}

// handleAddLink implements the spike_add_link tool.
func (s *Server) handleAddLink(ctx context.Context, req *sdk.CallToolRequest, args AddLinkInput) (_ *sdk.CallToolResult, _ LinkOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("spike_add_link", start, retErr, map[string]any{"source": args.Source, "target": args.Target})
	}()
	if err := ratelimit.CheckLimit(s.toolLimiters, "spike_add_link"); err != nil {
		return nil, LinkOutput{}, err
	}

	id, err := s.sess.AddLink(network.NeuronID(args.Source), network.NeuronID(args.Target))
	if err != nil {
		return nil, LinkOutput{}, fmt.Errorf("add link: %w", err)
	}
	out, err := s.linkOutput(id)
	return nil, out, err
}

// handleRemoveLink implements the spike_remove_link tool.
func (s *Server) handleRemoveLink(ctx context.Context, req *sdk.CallToolRequest, args LinkRefInput) (_ *sdk.CallToolResult, _ RemoveOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("spike_remove_link", start, retErr, map[string]any{"id": args.ID})
	}()
	if err := ratelimit.CheckLimit(s.toolLimiters, "spike_remove_link"); err != nil {
		return nil, RemoveOutput{}, err
	}

	if err := s.sess.RemoveLink(network.LinkID(args.ID)); err != nil {
		return nil, RemoveOutput{}, fmt.Errorf("remove link: %w", err)
	}
	return nil, RemoveOutput{ID: args.ID, Message: fmt.Sprintf("removed link %d", args.ID)}, nil
}

// handleAdjustWeight implements the spike_adjust_weight tool.
func (s *Server) handleAdjustWeight(ctx context.Context, req *sdk.CallToolRequest, args AdjustWeightInput) (_ *sdk.CallToolResult, _ LinkOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("spike_adjust_weight", start, retErr, map[string]any{"id": args.ID, "steps": args.Steps})
	}()
	if err := ratelimit.CheckLimit(s.toolLimiters, "spike_adjust_weight"); err != nil {
		return nil, LinkOutput{}, err
	}

	id := network.LinkID(args.ID)
	if _, err := s.sess.AdjustWeight(id, args.Steps); err != nil {
		return nil, LinkOutput{}, fmt.Errorf("adjust weight: %w", err)
	}
	out, err := s.linkOutput(id)
	return nil, out, err
}

// handleStimulate implements the spike_stimulate tool.
func (s *Server) handleStimulate(ctx context.Context, req *sdk.CallToolRequest, args NeuronRefInput) (_ *sdk.CallToolResult, _ StimulateOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("spike_stimulate", start, retErr, map[string]any{"id": args.ID})
	}()
	if err := ratelimit.CheckLimit(s.toolLimiters, "spike_stimulate"); err != nil {
		return nil, StimulateOutput{}, err
	}

	id := network.NeuronID(args.ID)
	if err := s.sess.Stimulate(id); err != nil {
		return nil, StimulateOutput{}, fmt.Errorf("stimulate: %w", err)
	}
	n, err := s.sess.Neuron(id)
	if err != nil {
		return nil, StimulateOutput{}, fmt.Errorf("stimulate: %w", err)
	}
	return nil, StimulateOutput{ID: args.ID, V: visualization.Finite(n.V)}, nil
}

// handleSelect implements the spike_select tool.
func (s *Server) handleSelect(ctx context.Context, req *sdk.CallToolRequest, args SelectInput) (_ *sdk.CallToolResult, _ SelectOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("spike_select", start, retErr, map[string]any{"neuron": args.Neuron, "link": args.Link, "clear": args.Clear})
	}()
	if err := ratelimit.CheckLimit(s.toolLimiters, "spike_select"); err != nil {
		return nil, SelectOutput{}, err
	}

	if args.Clear {
		s.sess.ClearSelection()
	}
	if args.Neuron != 0 {
		if err := s.sess.SelectNeuron(network.NeuronID(args.Neuron)); err != nil {
			return nil, SelectOutput{}, fmt.Errorf("select neuron: %w", err)
		}
	}
	if args.Link != 0 {
		if err := s.sess.SelectLink(network.LinkID(args.Link)); err != nil {
			return nil, SelectOutput{}, fmt.Errorf("select link: %w", err)
		}
	}

	var out SelectOutput
	var lines []string
	if st, ok := s.sess.NeuronStats(); ok {
		out.Neuron = &NeuronStatsOutput{ID: int(st.ID), V: visualization.Finite(st.V)}
		lines = append(lines, st.String())
	}
	if st, ok := s.sess.LinkStats(); ok {
		out.Link = &st
		lines = append(lines, st.String())
	}
	if len(lines) == 0 {
		if args.Clear {
			return nil, out, nil
		}
		return nil, SelectOutput{}, errNoSelection
	}
	out.Text = strings.Join(lines, "\n")
	return nil, out, nil
}

// handleTick implements the spike_tick tool.
func (s *Server) handleTick(ctx context.Context, req *sdk.CallToolRequest, args TickInput) (_ *sdk.CallToolResult, _ TickOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("spike_tick", start, retErr, map[string]any{"count": args.Count})
	}()
	if err := ratelimit.CheckLimit(s.toolLimiters, "spike_tick"); err != nil {
		return nil, TickOutput{}, err
	}

	count := args.Count
	if count == 0 {
		count = 1
	}
	if count < 0 || count > maxTicksPerCall {
		return nil, TickOutput{}, fmt.Errorf("count must be between 1 and %d, got %d", maxTicksPerCall, args.Count)
	}

	snap := s.sess.Snapshot()
	for range count {
		if err := ctx.Err(); err != nil {
			return nil, TickOutput{}, err
		}
		snap = s.sess.Tick()
	}

	out := TickOutput{Tick: snap.Tick, Firing: []int{}}
	for _, n := range snap.Neurons {
		if n.Firing() {
			out.Firing = append(out.Firing, int(n.ID))
		}
	}
	return nil, out, nil
}

// handleState implements the spike_state tool.
func (s *Server) handleState(ctx context.Context, req *sdk.CallToolRequest, args StateInput) (_ *sdk.CallToolResult, _ StateOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("spike_state", start, retErr, nil)
	}()
	if err := ratelimit.CheckLimit(s.toolLimiters, "spike_state"); err != nil {
		return nil, StateOutput{}, err
	}

	snap := s.sess.Snapshot()
	out := StateOutput{
		Tick:    snap.Tick,
		Running: s.sess.Running(),
		Neurons: make([]NeuronState, 0, len(snap.Neurons)),
		Links:   snap.Links,
	}
	for _, n := range snap.Neurons {
		out.Neurons = append(out.Neurons, NeuronState{
			ID:       n.ID,
			Position: n.Position,
			V:        visualization.Finite(n.V),
			W:        visualization.Finite(n.W),
			I:        visualization.Finite(n.I),
			IPrev:    visualization.Finite(n.IPrev),
			Firing:   n.Firing(),
			Diverged: visualization.Diverged(n.V, n.W),
			Outgoing: n.Outgoing,
			Incoming: n.Incoming,
		})
	}
	return nil, out, nil
}

// handleGraph implements the spike_graph tool.
func (s *Server) handleGraph(ctx context.Context, req *sdk.CallToolRequest, args GraphInput) (_ *sdk.CallToolResult, _ GraphOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("spike_graph", start, retErr, map[string]any{"format": args.Format})
	}()
	if err := ratelimit.CheckLimit(s.toolLimiters, "spike_graph"); err != nil {
		return nil, GraphOutput{}, err
	}

	name := args.Format
	if name == "" {
		name = string(visualization.FormatJSON)
	}
	format, err := visualization.ParseFormat(name)
	if err != nil {
		return nil, GraphOutput{}, err
	}

	snap := s.sess.Snapshot()
	switch format {
	case visualization.FormatDOT:
		return nil, GraphOutput{Format: string(format), Graph: visualization.RenderDOT(snap)}, nil
	default:
		data, err := json.MarshalIndent(visualization.RenderJSON(snap), "", "  ")
		if err != nil {
			return nil, GraphOutput{}, fmt.Errorf("failed to encode graph: %w", err)
		}
		return nil, GraphOutput{Format: string(format), Graph: string(data)}, nil
	}
}

func (s *Server) linkOutput(id network.LinkID) (LinkOutput, error) {
	l, err := s.sess.Link(id)
	if err != nil {
		return LinkOutput{}, err
	}
	return LinkOutput{ID: int(l.ID), Label: l.Label(), Weight: l.Weight}, nil
}
