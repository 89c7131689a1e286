// Package visualization renders network snapshots as Graphviz DOT or JSON,
// and serves them live over HTTP.
package visualization

import (
	"fmt"
	"math"
	"strings"

	"github.com/nvandessel/spike/internal/constants"
	"github.com/nvandessel/spike/internal/network"
	"github.com/nvandessel/spike/internal/session"
)

// Format specifies the output format for graph rendering.
type Format string

const (
	FormatDOT  Format = "dot"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatDOT:
		return FormatDOT, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q (want dot or json)", s)
	}
}

// RenderDOT produces a Graphviz DOT representation of a snapshot. Neurons
// are pinned at their canvas positions (render with `neato -n`) and filled
// by potential. Canvas y grows downward, so it is negated.
func RenderDOT(snap session.Snapshot) string {
	var b strings.Builder
	b.WriteString("digraph spike {\n")
	b.WriteString("  node [shape=circle, style=filled, fontname=\"Helvetica\", fixedsize=true];\n")
	b.WriteString("  edge [fontname=\"Helvetica\", fontsize=10];\n")
	fmt.Fprintf(&b, "  label=\"tick %d\";\n\n", snap.Tick)

	width := 2 * constants.NeuronRadius / 72.0
	for _, n := range snap.Neurons {
		pen := 1
		if n.ID == snap.SelectedNeuron {
			pen = 3
		}
		fmt.Fprintf(&b, "  n%d [label=%q, pos=\"%g,%g!\", width=%.3f, fillcolor=%q, penwidth=%d, tooltip=\"v=%.3f w=%.3f\"];\n",
			n.ID, n.ID.String(), n.Position.X, -n.Position.Y, width,
			PotentialColor(n.V), pen, n.V, n.W)
	}
	if len(snap.Links) > 0 {
		b.WriteString("\n")
	}

	for _, l := range snap.Links {
		style := "solid"
		if l.ID == snap.SelectedLink {
			style = "bold"
		}
		fmt.Fprintf(&b, "  n%d -> n%d [label=\"%.2f\", penwidth=%.2f, style=%s];\n",
			l.Source, l.Target, l.Weight, linkPen(l), style)
	}

	b.WriteString("}\n")
	return b.String()
}

func linkPen(l network.LinkView) float64 {
	return 0.5 + l.Weight
}

// GraphNode is the JSON form of a neuron. V and W are null once the
// neuron has diverged to NaN or an infinity, which JSON cannot carry.
type GraphNode struct {
	ID       network.NeuronID `json:"id"`
	Label    string           `json:"label"`
	X        float64          `json:"x"`
	Y        float64          `json:"y"`
	V        *float64         `json:"v"`
	W        *float64         `json:"w"`
	Firing   bool             `json:"firing"`
	Diverged bool             `json:"diverged,omitempty"`
	Color    string           `json:"color"`
}

// Finite returns a pointer to x, or nil when x is NaN or infinite.
func Finite(x float64) *float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil
	}
	return &x
}

// Diverged reports whether either state variable has left the finite range.
func Diverged(v, w float64) bool {
	return Finite(v) == nil || Finite(w) == nil
}

// GraphEdge is the JSON form of a link.
type GraphEdge struct {
	ID     network.LinkID   `json:"id"`
	Label  string           `json:"label"`
	Source network.NeuronID `json:"source"`
	Target network.NeuronID `json:"target"`
	Weight float64          `json:"weight"`
}

// Graph is the JSON representation of a snapshot.
type Graph struct {
	Tick           int              `json:"tick"`
	Nodes          []GraphNode      `json:"nodes"`
	Edges          []GraphEdge      `json:"edges"`
	NodeCount      int              `json:"node_count"`
	EdgeCount      int              `json:"edge_count"`
	SelectedNeuron network.NeuronID `json:"selected_neuron,omitempty"`
	SelectedLink   network.LinkID   `json:"selected_link,omitempty"`
}

// RenderJSON produces a JSON-ready graph with nodes and edges arrays.
func RenderJSON(snap session.Snapshot) Graph {
	g := Graph{
		Tick:           snap.Tick,
		Nodes:          make([]GraphNode, 0, len(snap.Neurons)),
		Edges:          make([]GraphEdge, 0, len(snap.Links)),
		SelectedNeuron: snap.SelectedNeuron,
		SelectedLink:   snap.SelectedLink,
	}
	for _, n := range snap.Neurons {
		g.Nodes = append(g.Nodes, GraphNode{
			ID:       n.ID,
			Label:    n.ID.String(),
			X:        n.Position.X,
			Y:        n.Position.Y,
			V:        Finite(n.V),
			W:        Finite(n.W),
			Firing:   n.Firing(),
			Diverged: Diverged(n.V, n.W),
			Color:    PotentialColor(n.V),
		})
	}
	for _, l := range snap.Links {
		g.Edges = append(g.Edges, GraphEdge{
			ID:     l.ID,
			Label:  l.Label(),
			Source: l.Source,
			Target: l.Target,
			Weight: l.Weight,
		})
	}
	g.NodeCount = len(g.Nodes)
	g.EdgeCount = len(g.Edges)
	return g
}
