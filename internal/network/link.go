package network

import (
	"fmt"
	"slices"
)

// LinkID is a link handle. IDs start at 1 and are never reused within a
// Network.
type LinkID int

type linkKey struct {
	src NeuronID
	dst NeuronID
}

type link struct {
	id     LinkID
	src    NeuronID
	dst    NeuronID
	weight ValueRange
}

// LinkView is a read-only snapshot of a link.
type LinkView struct {
	ID     LinkID   `json:"id"`
	Source NeuronID `json:"source"`
	Target NeuronID `json:"target"`
	Weight float64  `json:"weight"`
}

// Label returns the "N <src> -> N <dst>" form used in stats displays.
func (v LinkView) Label() string {
	return v.Source.String() + " -> " + v.Target.String()
}

func (l *link) view() LinkView {
	return LinkView{
		ID:     l.id,
		Source: l.src,
		Target: l.dst,
		Weight: l.weight.Value,
	}
}

// AddLink creates a directed link from src to dst with the default weight.
// It fails without mutating anything if either endpoint is missing, if the
// pair is already linked, or if src == dst and self-loops are disabled.
func (net *Network) AddLink(src, dst NeuronID) (LinkID, error) {
	from, err := net.lookupNeuron(src)
	if err != nil {
		return 0, err
	}
	to, err := net.lookupNeuron(dst)
	if err != nil {
		return 0, err
	}
	if src == dst && !net.config.AllowSelfLoops {
		return 0, fmt.Errorf("%w: %s", ErrSelfLoop, src)
	}
	key := linkKey{src: src, dst: dst}
	if existing, ok := net.pairs[key]; ok {
		return 0, fmt.Errorf("%w: %s -> %s (link %d)", ErrDuplicateLink, src, dst, int(existing))
	}

	net.nextLink++
	l := &link{
		id:  net.nextLink,
		src: src,
		dst: dst,
		weight: NewValueRange(
			net.config.WeightMin,
			net.config.WeightMax,
			net.config.WeightDefault,
			net.config.WeightSteps,
		),
	}
	net.links[l.id] = l
	net.linkOrder = append(net.linkOrder, l.id)
	net.pairs[key] = l.id
	from.outgoing = append(from.outgoing, l.id)
	to.incoming = append(to.incoming, l.id)
	return l.id, nil
}

// RemoveLink detaches the link from both endpoints and discards it.
// Removing a handle that is no longer present returns ErrInvalidReference.
func (net *Network) RemoveLink(id LinkID) error {
	l, err := net.lookupLink(id)
	if err != nil {
		return err
	}
	net.removeLink(l)
	return nil
}

func (net *Network) removeLink(l *link) {
	if n, ok := net.neurons[l.src]; ok {
		n.detach(l.id)
	}
	if n, ok := net.neurons[l.dst]; ok {
		n.detach(l.id)
	}
	delete(net.links, l.id)
	delete(net.pairs, linkKey{src: l.src, dst: l.dst})
	if i := slices.Index(net.linkOrder, l.id); i >= 0 {
		net.linkOrder = slices.Delete(net.linkOrder, i, i+1)
	}
	if net.selectedLink == l.id {
		net.selectedLink = 0
	}
}

// AdjustWeight moves a link's weight by delta increments of
// (WeightMax-WeightMin)/WeightSteps, clamped to the weight range.
func (net *Network) AdjustWeight(id LinkID, delta float64) error {
	l, err := net.lookupLink(id)
	if err != nil {
		return err
	}
	l.weight.Move(delta)
	return nil
}

// SetWeight assigns a link's weight, clamped to the weight range.
func (net *Network) SetWeight(id LinkID, weight float64) error {
	l, err := net.lookupLink(id)
	if err != nil {
		return err
	}
	l.weight.Set(weight)
	return nil
}

// Linked reports whether a link from src to dst exists.
func (net *Network) Linked(src, dst NeuronID) bool {
	_, ok := net.pairs[linkKey{src: src, dst: dst}]
	return ok
}

// Link returns a snapshot of one link.
func (net *Network) Link(id LinkID) (LinkView, error) {
	l, err := net.lookupLink(id)
	if err != nil {
		return LinkView{}, err
	}
	return l.view(), nil
}

// Links returns snapshots of all live links in creation order.
func (net *Network) Links() []LinkView {
	views := make([]LinkView, 0, len(net.linkOrder))
	for _, id := range net.linkOrder {
		views = append(views, net.links[id].view())
	}
	return views
}

func (net *Network) lookupLink(id LinkID) (*link, error) {
	l, ok := net.links[id]
	if !ok {
		return nil, fmt.Errorf("%w: link %d", ErrInvalidReference, int(id))
	}
	return l, nil
}
