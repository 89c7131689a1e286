// Package network implements the spiking network core: an arena of
// FitzHugh-Nagumo neurons and weighted directed links keyed by integer
// handles, the two-phase tick that moves current along links, and the
// selection state used by interactive consumers.
//
// A Network is not safe for concurrent use. Callers that drive ticks from a
// timer while accepting commands (see package session) must serialise access
// so that a tick always runs to completion before a structural change.
package network
