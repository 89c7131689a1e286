package network

import "fmt"

// NeuronStats is the display snapshot of the selected neuron.
type NeuronStats struct {
	ID NeuronID `json:"id"`
	V  float64  `json:"v"`
}

func (s NeuronStats) String() string {
	return fmt.Sprintf("Id: %s\nV: %.2f", s.ID, s.V)
}

// LinkStats is the display snapshot of the selected link.
type LinkStats struct {
	ID     LinkID   `json:"id"`
	Source NeuronID `json:"source"`
	Target NeuronID `json:"target"`
	Weight float64  `json:"weight"`
}

func (s LinkStats) String() string {
	return fmt.Sprintf("Id: %s -> %s\nWeight: %.2f", s.Source, s.Target, s.Weight)
}

// SelectNeuron makes id the selected neuron, replacing any previous one.
func (net *Network) SelectNeuron(id NeuronID) error {
	if _, err := net.lookupNeuron(id); err != nil {
		return err
	}
	net.selectedNeuron = id
	return nil
}

// SelectLink makes id the selected link, replacing any previous one.
func (net *Network) SelectLink(id LinkID) error {
	if _, err := net.lookupLink(id); err != nil {
		return err
	}
	net.selectedLink = id
	return nil
}

// ClearSelection deselects both the neuron and the link.
func (net *Network) ClearSelection() {
	net.selectedNeuron = 0
	net.selectedLink = 0
}

// SelectedNeuron returns the selected neuron handle, if any.
func (net *Network) SelectedNeuron() (NeuronID, bool) {
	return net.selectedNeuron, net.selectedNeuron != 0
}

// SelectedLink returns the selected link handle, if any.
func (net *Network) SelectedLink() (LinkID, bool) {
	return net.selectedLink, net.selectedLink != 0
}

// CurrentNeuronStats returns the selected neuron's stats.
func (net *Network) CurrentNeuronStats() (NeuronStats, bool) {
	n, ok := net.neurons[net.selectedNeuron]
	if !ok {
		return NeuronStats{}, false
	}
	return NeuronStats{ID: n.id, V: n.state.V}, true
}

// CurrentLinkStats returns the selected link's stats.
func (net *Network) CurrentLinkStats() (LinkStats, bool) {
	l, ok := net.links[net.selectedLink]
	if !ok {
		return LinkStats{}, false
	}
	return LinkStats{ID: l.id, Source: l.src, Target: l.dst, Weight: l.weight.Value}, true
}

// Connect is the interactive link gesture: if another neuron is selected
// and not yet linked to target, a link from it to target is created. Either
// way target becomes the selected neuron. The returned bool reports whether
// a link was created.
func (net *Network) Connect(target NeuronID) (LinkID, bool, error) {
	if _, err := net.lookupNeuron(target); err != nil {
		return 0, false, err
	}

	var created LinkID
	src := net.selectedNeuron
	if src != 0 && src != target && !net.Linked(src, target) {
		id, err := net.AddLink(src, target)
		if err != nil {
			return 0, false, err
		}
		created = id
	}
	net.selectedNeuron = target
	return created, created != 0, nil
}
