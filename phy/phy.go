// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package phy implements the SerWB physical layer on top of the serwb
// simulator.
//
// A TX turns 32 bits words with 4 control flags into a stream of bytes, one
// per clock cycle: the word is framed, 8b10b encoded and split into five
// bytes. An RX does the reverse and reports the state of the link: valid,
// idle and comma. The receiver cannot know where groups start in the byte
// stream; a bit-slip stage, driven by an align.Controller, finds the
// boundaries from the comma words sent during training.
//
// Each of TX and RX is a separate circuit, or clock domain. A Link runs both
// in lockstep over a transport.Transport, and RunFree runs them in their own
// goroutines.
//
package phy

import (
	"github.com/db47h/serwb/align"
	"github.com/db47h/serwb/code8b10b"
	"github.com/pkg/errors"
)

// Config configures a transmitter, a receiver or a Link.
//
type Config struct {
	// Number of simulator goroutines per circuit. 0 uses GOMAXPROCS.
	Workers int `toml:"workers"`
	// Simulation steps per clock cycle.
	StepsPerCycle uint `toml:"steps_per_cycle"`
	// Master mode: the transmitter forwards a clock pattern.
	Master bool `toml:"master"`
	// Mount the bit-slip controller in the receiver circuit rather than
	// running it from Go code.
	AutoAlign bool `toml:"auto_align"`
	// Bit-slip controller configuration.
	Align align.Config `toml:"align"`
}

// DefaultConfig returns the default configuration.
//
func DefaultConfig() Config {
	return Config{
		Workers:       1,
		StepsPerCycle: 8,
		Align:         align.DefaultConfig(),
	}
}

// Validate checks that the configuration is usable.
//
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return errors.Errorf("invalid worker count %d", c.Workers)
	}
	if c.StepsPerCycle < minStepsPerCycle {
		return errors.Errorf("at least %d steps per cycle are needed, got %d", minStepsPerCycle, c.StepsPerCycle)
	}
	if c.Align.Width != code8b10b.GroupBits {
		return errors.Errorf("bit-slip width must be %d, got %d", code8b10b.GroupBits, c.Align.Width)
	}
	return c.Align.Validate()
}

// minStepsPerCycle is the longest combinational path in the receiver (decoder,
// comparators, AND gate, probe) plus one.
const minStepsPerCycle = 5
