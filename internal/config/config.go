// Package config provides unified configuration loading for spike.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/nvandessel/spike/internal/constants"
	"github.com/nvandessel/spike/internal/fhn"
	"github.com/nvandessel/spike/internal/network"
	"gopkg.in/yaml.v3"
)

// SpikeConfig contains all spike configuration settings.
type SpikeConfig struct {
	// Model holds the FitzHugh-Nagumo coefficients and initial state.
	Model ModelConfig `json:"model" yaml:"model"`

	// Stimulus configures manual stimulation.
	Stimulus StimulusConfig `json:"stimulus" yaml:"stimulus"`

	// Links configures link weights and topology rules.
	Links LinksConfig `json:"links" yaml:"links"`

	// Clock configures the periodic tick trigger.
	Clock ClockConfig `json:"clock" yaml:"clock"`

	// Logging contains settings for operational logging and the command journal.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Trace configures recording of simulation samples.
	Trace TraceConfig `json:"trace" yaml:"trace"`
}

// ModelConfig holds the integrator parameters.
type ModelConfig struct {
	A   float64 `json:"a" yaml:"a"`
	B   float64 `json:"b" yaml:"b"`
	Tau float64 `json:"tau" yaml:"tau"`
	Dt  float64 `json:"dt" yaml:"dt"`

	// V0 and W0 are the resting state assigned to new neurons.
	V0 float64 `json:"v0" yaml:"v0"`
	W0 float64 `json:"w0" yaml:"w0"`
}

// StimulusConfig configures manual stimulation.
type StimulusConfig struct {
	// Manual is added to a neuron's potential by a stimulate command.
	Manual float64 `json:"manual" yaml:"manual"`
}

// LinksConfig configures link weights.
type LinksConfig struct {
	WeightDefault float64 `json:"weight_default" yaml:"weight_default"`
	WeightMin     float64 `json:"weight_min" yaml:"weight_min"`
	WeightMax     float64 `json:"weight_max" yaml:"weight_max"`

	// WeightSteps is the number of scroll increments spanning the range.
	WeightSteps int `json:"weight_steps" yaml:"weight_steps"`

	// AllowSelfLoops admits links from a neuron to itself.
	AllowSelfLoops bool `json:"allow_self_loops" yaml:"allow_self_loops"`
}

// ClockConfig configures the periodic trigger.
type ClockConfig struct {
	// TickInterval is the wall-clock period between ticks.
	TickInterval time.Duration `json:"tick_interval" yaml:"tick_interval"`

	// SubSteps is the number of integration sub-steps per tick.
	SubSteps int `json:"sub_steps" yaml:"sub_steps"`
}

// LoggingConfig configures spike's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables the command journal in ~/.spike/commands.jsonl.
	Level string `json:"level" yaml:"level"`
}

// TraceConfig configures sample recording.
type TraceConfig struct {
	// Path is the SQLite database to record into. Empty disables recording.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// SampleEvery records one sample row set every N ticks.
	SampleEvery int `json:"sample_every" yaml:"sample_every"`
}

// Default returns a SpikeConfig with the stock model constants.
func Default() *SpikeConfig {
	net := network.DefaultConfig()
	return &SpikeConfig{
		Model: ModelConfig{
			A:   net.Model.A,
			B:   net.Model.B,
			Tau: net.Model.Tau,
			Dt:  net.Model.Dt,
			V0:  net.V0,
			W0:  net.W0,
		},
		Stimulus: StimulusConfig{
			Manual: net.ManualStimulus,
		},
		Links: LinksConfig{
			WeightDefault: net.WeightDefault,
			WeightMin:     net.WeightMin,
			WeightMax:     net.WeightMax,
			WeightSteps:   constants.DefaultWeightSteps,
		},
		Clock: ClockConfig{
			TickInterval: constants.DefaultTickInterval,
			SubSteps:     net.SubSteps,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Trace: TraceConfig{
			SampleEvery: 1,
		},
	}
}

// NetworkConfig converts the configuration into network constants.
func (c *SpikeConfig) NetworkConfig() network.Config {
	return network.Config{
		Model: fhn.Params{
			A:   c.Model.A,
			B:   c.Model.B,
			Tau: c.Model.Tau,
			Dt:  c.Model.Dt,
		},
		V0:             c.Model.V0,
		W0:             c.Model.W0,
		ManualStimulus: c.Stimulus.Manual,
		WeightDefault:  c.Links.WeightDefault,
		WeightMin:      c.Links.WeightMin,
		WeightMax:      c.Links.WeightMax,
		WeightSteps:    c.Links.WeightSteps,
		SubSteps:       c.Clock.SubSteps,
		AllowSelfLoops: c.Links.AllowSelfLoops,
	}
}

// Dir returns the per-user spike directory (~/.spike).
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(homeDir, constants.DirName), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.spike/config.yaml -> environment variables
func Load() (*SpikeConfig, error) {
	config := Default()

	if dir, err := Dir(); err == nil {
		configPath := filepath.Join(dir, constants.ConfigFile)
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file. Fields absent
// from the file keep their defaults.
func LoadFromFile(path string) (*SpikeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Trace.Path = os.ExpandEnv(config.Trace.Path)

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *SpikeConfig) Validate() error {
	if c.Model.Tau == 0 {
		return fmt.Errorf("model.tau must be non-zero")
	}
	if c.Model.Dt <= 0 {
		return fmt.Errorf("model.dt must be positive, got %f", c.Model.Dt)
	}

	if c.Links.WeightMin > c.Links.WeightMax {
		return fmt.Errorf("links.weight_min (%f) must not exceed links.weight_max (%f)", c.Links.WeightMin, c.Links.WeightMax)
	}
	if c.Links.WeightDefault < c.Links.WeightMin || c.Links.WeightDefault > c.Links.WeightMax {
		return fmt.Errorf("links.weight_default must be within [%f, %f], got %f", c.Links.WeightMin, c.Links.WeightMax, c.Links.WeightDefault)
	}
	if c.Links.WeightSteps < 1 {
		return fmt.Errorf("links.weight_steps must be at least 1, got %d", c.Links.WeightSteps)
	}

	if c.Clock.SubSteps < 1 {
		return fmt.Errorf("clock.sub_steps must be at least 1, got %d", c.Clock.SubSteps)
	}
	if c.Clock.TickInterval < constants.MinTickInterval {
		return fmt.Errorf("clock.tick_interval must be at least %v, got %v", constants.MinTickInterval, c.Clock.TickInterval)
	}

	if c.Trace.SampleEvery < 1 {
		return fmt.Errorf("trace.sample_every must be at least 1, got %d", c.Trace.SampleEvery)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *SpikeConfig) {
	if v := os.Getenv("SPIKE_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}

	if v := os.Getenv("SPIKE_TICK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Clock.TickInterval = d
		}
	}

	if v := os.Getenv("SPIKE_SUB_STEPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Clock.SubSteps = n
		}
	}

	if v := os.Getenv("SPIKE_MANUAL_STIMULUS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Stimulus.Manual = f
		}
	}

	if v := os.Getenv("SPIKE_LINK_WEIGHT_MAX"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Links.WeightMax = f
		}
	}

	if v := os.Getenv("SPIKE_ALLOW_SELF_LOOPS"); v != "" {
		config.Links.AllowSelfLoops = v == "true" || v == "1"
	}

	if v := os.Getenv("SPIKE_TRACE_PATH"); v != "" {
		config.Trace.Path = v
	}
}
