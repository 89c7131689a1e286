package network

import (
	"fmt"
	"slices"

	"github.com/nvandessel/spike/internal/fhn"
)

// NeuronID is a neuron handle. IDs start at 1 and are never reused within a
// Network.
type NeuronID int

func (id NeuronID) String() string {
	return fmt.Sprintf("N %d", int(id))
}

type neuron struct {
	id    NeuronID
	pos   Position
	state fhn.State

	// i accumulates current from firing neighbours during the current
	// sub-step; iPrev is what the next integration consumes.
	i     float64
	iPrev float64

	outgoing []LinkID
	incoming []LinkID
}

// resetStep carries the accumulated current forward and clears the
// accumulator.
func (n *neuron) resetStep() {
	n.iPrev = n.i
	n.i = 0
}

func (n *neuron) integrate(p fhn.Params) {
	n.state = p.Step(n.state, n.iPrev)
}

func (n *neuron) detach(id LinkID) {
	if i := slices.Index(n.outgoing, id); i >= 0 {
		n.outgoing = slices.Delete(n.outgoing, i, i+1)
	}
	if i := slices.Index(n.incoming, id); i >= 0 {
		n.incoming = slices.Delete(n.incoming, i, i+1)
	}
}

// NeuronView is a read-only snapshot of a neuron.
type NeuronView struct {
	ID       NeuronID `json:"id"`
	Position Position `json:"position"`
	V        float64  `json:"v"`
	W        float64  `json:"w"`
	I        float64  `json:"i"`
	IPrev    float64  `json:"i_prev"`
	Outgoing []LinkID `json:"outgoing"`
	Incoming []LinkID `json:"incoming"`
}

// Firing reports whether the neuron was above threshold after its last
// integration.
func (v NeuronView) Firing() bool {
	return v.V > 0
}

func (n *neuron) view() NeuronView {
	return NeuronView{
		ID:       n.id,
		Position: n.pos,
		V:        n.state.V,
		W:        n.state.W,
		I:        n.i,
		IPrev:    n.iPrev,
		Outgoing: slices.Clone(n.outgoing),
		Incoming: slices.Clone(n.incoming),
	}
}

// AddNeuron creates a neuron at pos in its resting state and returns its
// handle.
func (net *Network) AddNeuron(pos Position) NeuronID {
	net.nextNeuron++
	n := &neuron{
		id:    net.nextNeuron,
		pos:   pos,
		state: fhn.State{V: net.config.V0, W: net.config.W0},
	}
	net.neurons[n.id] = n
	net.neuronOrder = append(net.neuronOrder, n.id)
	return n.id
}

// RemoveNeuron removes every link touching the neuron, incoming first, and
// then the neuron itself. A selected neuron is deselected.
func (net *Network) RemoveNeuron(id NeuronID) error {
	n, err := net.lookupNeuron(id)
	if err != nil {
		return err
	}

	for len(n.incoming) > 0 {
		net.removeLink(net.links[n.incoming[0]])
	}
	for len(n.outgoing) > 0 {
		net.removeLink(net.links[n.outgoing[0]])
	}

	delete(net.neurons, id)
	if i := slices.Index(net.neuronOrder, id); i >= 0 {
		net.neuronOrder = slices.Delete(net.neuronOrder, i, i+1)
	}
	if net.selectedNeuron == id {
		net.selectedNeuron = 0
	}
	return nil
}

// Stimulate adds the manual stimulus to the neuron's potential. The jump is
// visible to the neuron's next integration.
func (net *Network) Stimulate(id NeuronID) error {
	n, err := net.lookupNeuron(id)
	if err != nil {
		return err
	}
	n.state.V += net.config.ManualStimulus
	return nil
}

// MoveNeuron updates a neuron's position.
func (net *Network) MoveNeuron(id NeuronID, pos Position) error {
	n, err := net.lookupNeuron(id)
	if err != nil {
		return err
	}
	n.pos = pos
	return nil
}

// Neuron returns a snapshot of one neuron.
func (net *Network) Neuron(id NeuronID) (NeuronView, error) {
	n, err := net.lookupNeuron(id)
	if err != nil {
		return NeuronView{}, err
	}
	return n.view(), nil
}

// Neurons returns snapshots of all live neurons in creation order.
func (net *Network) Neurons() []NeuronView {
	views := make([]NeuronView, 0, len(net.neuronOrder))
	for _, id := range net.neuronOrder {
		views = append(views, net.neurons[id].view())
	}
	return views
}

func (net *Network) lookupNeuron(id NeuronID) (*neuron, error) {
	n, ok := net.neurons[id]
	if !ok {
		return nil, fmt.Errorf("%w: neuron %d", ErrInvalidReference, int(id))
	}
	return n, nil
}
