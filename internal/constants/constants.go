// Package constants provides named constants used throughout spike.
// Model defaults live in network.DefaultConfig; these are the values shared
// by the outer layers.
package constants

import "time"

// Clock constants
const (
	// DefaultTickInterval is the period of the simulation clock.
	DefaultTickInterval = 100 * time.Millisecond

	// MinTickInterval guards the clock against busy-looping.
	MinTickInterval = time.Millisecond
)

// Weight scrolling constants
const (
	// DefaultWeightSteps is the number of scroll increments spanning the
	// weight range.
	DefaultWeightSteps = 50
)

// Display constants
const (
	// PotentialDisplayMin and PotentialDisplayMax bound the potential range
	// mapped onto the red/green colour ramp.
	PotentialDisplayMin = -1.5
	PotentialDisplayMax = 1.5

	// NeuronRadius is the rendered soma radius in canvas units.
	NeuronRadius = 20
)

// Directory and file names
const (
	// DirName is the per-user directory holding config and journals.
	DirName = ".spike"

	// ConfigFile is the config file name inside DirName.
	ConfigFile = "config.yaml"

	// JournalFile is the JSONL command journal inside DirName.
	JournalFile = "commands.jsonl"
)

// MCP rate limits
const (
	// ToolRatePerSecond is the sustained call rate allowed per MCP tool.
	ToolRatePerSecond = 50

	// ToolBurst is the burst size allowed per MCP tool.
	ToolBurst = 100
)
