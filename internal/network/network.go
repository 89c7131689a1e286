package network

// Network owns a set of neurons and the links between them.
type Network struct {
	config Config

	nextNeuron NeuronID
	nextLink   LinkID

	neurons     map[NeuronID]*neuron
	neuronOrder []NeuronID

	links     map[LinkID]*link
	linkOrder []LinkID
	pairs     map[linkKey]LinkID

	selectedNeuron NeuronID
	selectedLink   LinkID

	ticks int
	steps int
}

// New creates an empty network with the given constants.
func New(config Config) *Network {
	return &Network{
		config:  config,
		neurons: make(map[NeuronID]*neuron),
		links:   make(map[LinkID]*link),
		pairs:   make(map[linkKey]LinkID),
	}
}

// Config returns the network's constants.
func (net *Network) Config() Config {
	return net.config
}

// NeuronCount returns the number of live neurons.
func (net *Network) NeuronCount() int {
	return len(net.neurons)
}

// LinkCount returns the number of live links.
func (net *Network) LinkCount() int {
	return len(net.links)
}

// Ticks returns the number of completed ticks.
func (net *Network) Ticks() int {
	return net.ticks
}

// Steps returns the number of completed integration sub-steps.
func (net *Network) Steps() int {
	return net.steps
}
