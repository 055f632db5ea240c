// Package config loads the optional YAML harness descriptor a test rig or
// demo can use to seed a run without a ROM file: an initial program
// counter, an initial stack pointer, and a set of memory fixups layered
// onto the 64 KiB image after the base image is loaded.
package config

import (
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Fixup pokes Data (hex-encoded in the YAML source) into memory starting at
// Address. Fixups are applied in file order, so a later fixup can overwrite
// an earlier one's bytes.
type Fixup struct {
	Address uint16 `yaml:"address"`
	Data    string `yaml:"data"`
}

// Bytes decodes Data from hex, matching the "A9 01 8D 00 02" style spec.md
// itself uses for example programs — hyphens and spaces are both accepted
// as separators.
func (f Fixup) Bytes() ([]byte, error) {
	clean := make([]byte, 0, len(f.Data))
	for i := 0; i < len(f.Data); i++ {
		c := f.Data[i]
		if c == ' ' || c == '-' || c == '\t' || c == '\n' {
			continue
		}
		clean = append(clean, c)
	}
	data, err := hex.DecodeString(string(clean))
	if err != nil {
		return nil, fmt.Errorf("fixup at $%04X: %w", f.Address, err)
	}
	return data, nil
}

// Harness is a run's optional starting configuration. A zero-value Harness
// (as produced by a missing config file) leaves the CPU's own Reset/reset
// vector behavior untouched.
type Harness struct {
	InitialPC *uint16 `yaml:"initial_pc"`
	InitialSP *uint16 `yaml:"initial_sp"`
	Fixups    []Fixup `yaml:"fixups"`
}

// Load reads and parses a harness descriptor from path. A missing file is
// not an error — the caller gets a zero-value Harness and runs against
// whatever the ROM/reset vector already provides — but a malformed one is.
func Load(path string) (Harness, error) {
	var h Harness

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return h, nil
		}
		return h, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &h); err != nil {
		return h, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return h, nil
}

// memWriter is satisfied by *bus.Memory; kept narrow so config never has to
// import bus and risk a cycle.
type memWriter interface {
	Write8(addr uint16, data uint8)
}

// Apply layers every fixup onto mem, in file order. It does not touch
// InitialPC/InitialSP — those are read directly by the CLI, since applying
// them is a CPU concern (SetInstructionPointer/SetStackPointer), not a
// memory concern.
func (h Harness) Apply(mem memWriter) error {
	for _, f := range h.Fixups {
		data, err := f.Bytes()
		if err != nil {
			return err
		}
		for i, b := range data {
			mem.Write8(f.Address+uint16(i), b)
		}
	}
	return nil
}
