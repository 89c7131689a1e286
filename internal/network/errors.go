package network

import "errors"

var (
	// ErrDuplicateLink is returned when a link with the same ordered
	// (source, target) pair already exists.
	ErrDuplicateLink = errors.New("duplicate link")

	// ErrSelfLoop is returned when a link would connect a neuron to itself
	// and self-loops are not enabled.
	ErrSelfLoop = errors.New("self-loop link")

	// ErrInvalidReference is returned when a handle does not name a live
	// neuron or link.
	ErrInvalidReference = errors.New("invalid reference")
)
