// Package config holds the run configuration of the gbasim driver.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/gbasim/memory"
)

// Load regions.
const (
	RegionBIOS = "bios"
	RegionROM  = "rom"
)

// Undefined instruction policies.
const (
	// PolicyHalt stops the run with an error.
	PolicyHalt = "halt"
	// PolicyTrap enters the Undefined exception.
	PolicyTrap = "trap"
)

// Config describes how a program image is loaded and run.
type Config struct {
	// LoadRegion selects where a raw image is placed: "bios" at 0x00000000
	// or "rom" at the cartridge base 0x08000000. Default: "bios".
	LoadRegion string `json:"load_region"`

	// EntryPoint overrides the program's own entry address when non-zero.
	EntryPoint uint32 `json:"entry_point"`

	// ThumbEntry starts execution in Thumb state.
	ThumbEntry bool `json:"thumb_entry"`

	// MaxInstructions stops the run after this many executed instructions.
	// 0 means no limit.
	MaxInstructions uint64 `json:"max_instructions"`

	// Trace logs every executed instruction.
	Trace bool `json:"trace"`

	// TraceMemory also logs data loads and stores.
	TraceMemory bool `json:"trace_memory"`

	// UndefinedPolicy is "halt" or "trap". Default: "halt".
	UndefinedPolicy string `json:"undefined_policy"`

	// ReadOnlyBIOS rejects CPU writes to the BIOS region.
	ReadOnlyBIOS bool `json:"read_only_bios"`
}

// Default returns a Config that loads a raw image into the BIOS region and
// runs it until it fails.
func Default() *Config {
	return &Config{
		LoadRegion:      RegionBIOS,
		UndefinedPolicy: PolicyHalt,
	}
}

// Load reads a Config from a JSON file. Missing fields keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// Save writes the Config to a JSON file.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the region and policy names and the entry point
// alignment.
func (c *Config) Validate() error {
	if c.LoadRegion != RegionBIOS && c.LoadRegion != RegionROM {
		return fmt.Errorf("load_region must be %q or %q, got %q", RegionBIOS, RegionROM, c.LoadRegion)
	}
	if c.UndefinedPolicy != PolicyHalt && c.UndefinedPolicy != PolicyTrap {
		return fmt.Errorf("undefined_policy must be %q or %q, got %q",
			PolicyHalt, PolicyTrap, c.UndefinedPolicy)
	}
	if c.ThumbEntry && c.EntryPoint&1 != 0 {
		return fmt.Errorf("entry_point 0x%08X must be halfword aligned", c.EntryPoint)
	}
	if !c.ThumbEntry && c.EntryPoint&3 != 0 {
		return fmt.Errorf("entry_point 0x%08X must be word aligned", c.EntryPoint)
	}
	if c.TraceMemory && !c.Trace {
		return fmt.Errorf("trace_memory requires trace")
	}
	return nil
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// LoadBase returns the address a raw image is placed at.
func (c *Config) LoadBase() uint32 {
	if c.LoadRegion == RegionROM {
		return memory.ROM0Start
	}
	return memory.BIOSStart
}

// TrapUndefined reports whether undefined instructions enter the Undefined
// exception.
func (c *Config) TrapUndefined() bool {
	return c.UndefinedPolicy == PolicyTrap
}

// TraceVerbosity is the logger verbosity needed to see the configured
// trace events.
func (c *Config) TraceVerbosity() int {
	switch {
	case c.TraceMemory:
		return 2
	case c.Trace:
		return 1
	default:
		return 0
	}
}
