package simulation

import (
	"errors"
	"fmt"
	"os"

	"github.com/nvandessel/spike/internal/fhn"
	"github.com/nvandessel/spike/internal/network"
	"gopkg.in/yaml.v3"
)

// ErrInvalidScenario is returned for scenarios that cannot run.
var ErrInvalidScenario = errors.New("invalid scenario")

// Scenario defines a complete simulation experiment.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`

	// Model replaces all four integrator parameters when non-nil.
	Model *fhn.Params `yaml:"model,omitempty"`

	// SubSteps overrides the number of sub-steps per tick when non-zero.
	SubSteps int `yaml:"sub_steps,omitempty"`

	AllowSelfLoops bool `yaml:"allow_self_loops,omitempty"`

	Neurons []NeuronSpec   `yaml:"neurons"`
	Links   []LinkSpec     `yaml:"links"`
	Stimuli []StimulusSpec `yaml:"stimuli"`

	// Ticks is the number of ticks to run.
	Ticks int `yaml:"ticks"`
}

// NeuronSpec declares a named neuron.
type NeuronSpec struct {
	Name string  `yaml:"name"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
}

// LinkSpec declares a link between two named neurons. Weight sets an
// absolute weight; Steps moves the default weight by that many increments.
// Weight wins when both are set.
type LinkSpec struct {
	From   string   `yaml:"from"`
	To     string   `yaml:"to"`
	Weight *float64 `yaml:"weight,omitempty"`
	Steps  float64  `yaml:"steps,omitempty"`
}

// StimulusSpec schedules stimulation of a neuron. A stimulus at tick k is
// applied after k ticks have completed, so At: 0 hits the initial state.
// With Every > 0 it repeats every Every ticks while the tick is below Until
// (or the end of the run when Until is 0).
type StimulusSpec struct {
	Neuron string `yaml:"neuron"`
	At     int    `yaml:"at"`
	Every  int    `yaml:"every,omitempty"`
	Until  int    `yaml:"until,omitempty"`
}

// Fires reports whether the stimulus is scheduled for tick k.
func (s StimulusSpec) Fires(k, runTicks int) bool {
	if k < s.At {
		return false
	}
	if s.Every <= 0 {
		return k == s.At
	}
	until := s.Until
	if until <= 0 {
		until = runTicks
	}
	return k < until && (k-s.At)%s.Every == 0
}

// NetworkConfig applies the scenario's overrides to base.
func (s Scenario) NetworkConfig(base network.Config) network.Config {
	cfg := base
	if s.Model != nil {
		cfg.Model = *s.Model
	}
	if s.SubSteps > 0 {
		cfg.SubSteps = s.SubSteps
	}
	if s.AllowSelfLoops {
		cfg.AllowSelfLoops = true
	}
	return cfg
}

// Validate checks that names are unique and every reference resolves.
// Link topology errors such as duplicates are left to the network.
func (s Scenario) Validate() error {
	if s.Ticks < 0 {
		return fmt.Errorf("%w: ticks must be >= 0, got %d", ErrInvalidScenario, s.Ticks)
	}
	names := make(map[string]bool, len(s.Neurons))
	for i, n := range s.Neurons {
		if n.Name == "" {
			return fmt.Errorf("%w: neuron %d has no name", ErrInvalidScenario, i)
		}
		if names[n.Name] {
			return fmt.Errorf("%w: duplicate neuron name %q", ErrInvalidScenario, n.Name)
		}
		names[n.Name] = true
	}
	for _, l := range s.Links {
		if !names[l.From] || !names[l.To] {
			return fmt.Errorf("%w: link %s -> %s references an unknown neuron", ErrInvalidScenario, l.From, l.To)
		}
	}
	for _, st := range s.Stimuli {
		if !names[st.Neuron] {
			return fmt.Errorf("%w: stimulus references unknown neuron %q", ErrInvalidScenario, st.Neuron)
		}
		if st.At < 0 || st.Every < 0 {
			return fmt.Errorf("%w: stimulus on %q has a negative schedule", ErrInvalidScenario, st.Neuron)
		}
	}
	return nil
}

// ParseScenario decodes a YAML scenario and validates it.
func ParseScenario(data []byte) (Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Scenario{}, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if err := s.Validate(); err != nil {
		return Scenario{}, err
	}
	return s, nil
}

// LoadScenario reads and parses a YAML scenario file.
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("failed to read scenario: %w", err)
	}
	s, err := ParseScenario(data)
	if err != nil {
		return Scenario{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}
