package network

// Tick advances the simulation by Config.SubSteps integration sub-steps.
func (net *Network) Tick() {
	for k := 0; k < net.config.SubSteps; k++ {
		net.Step()
	}
	net.ticks++
}

// Step runs one integration sub-step in two phases. First every neuron
// moves its accumulated current into iPrev. Then every neuron, in creation
// order, integrates on iPrev and, if firing, injects weight*v into each
// target's accumulator. Injected current is consumed one sub-step later.
func (net *Network) Step() {
	for _, id := range net.neuronOrder {
		net.neurons[id].resetStep()
	}
	for _, id := range net.neuronOrder {
		n := net.neurons[id]
		n.integrate(net.config.Model)
		net.propagate(n)
	}
	net.steps++
}

func (net *Network) propagate(n *neuron) {
	if !n.state.Firing() {
		return
	}
	for _, lid := range n.outgoing {
		l := net.links[lid]
		net.neurons[l.dst].i += l.weight.Value * n.state.V
	}
}
