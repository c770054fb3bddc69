// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package align implements the bit-slip offset search of a SerWB receiver.
//
// The controller watches the decoded groups of a receiver and drives the
// offset of its bit-slip stage. While searching, it tries every offset in
// turn until it sees a run of comma groups. Once locked, it goes back to
// searching after a run of bad groups.
//
// A Controller can be driven directly from Go code or mounted in a receiver
// circuit with Part.
//
package align

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// State is the state of a Controller.
//
type State int

// Controller states.
const (
	Searching State = iota
	Locked
)

func (s State) String() string {
	switch s {
	case Searching:
		return "searching"
	case Locked:
		return "locked"
	}
	return "State(" + strconv.Itoa(int(s)) + ")"
}

// Config holds the timing knobs of a Controller. All counts are in groups.
//
type Config struct {
	// Groups discarded after every offset change.
	Settle int `toml:"settle"`
	// Consecutive comma groups required to lock.
	Debounce int `toml:"debounce"`
	// Maximum number of non-comma groups looked at before moving to the
	// next offset.
	Dwell int `toml:"dwell"`
	// Consecutive bad groups that break the lock.
	LossThreshold int `toml:"loss_threshold"`
	// When set, a locked controller counts any non-comma group as bad.
	// Otherwise only groups with an invalid lane are.
	ExpectComma bool `toml:"expect_comma"`
	// Bit-slip window width, and number of offsets.
	Width int `toml:"width"`
}

// DefaultConfig returns the default controller configuration for 40 bits
// groups.
//
func DefaultConfig() Config {
	return Config{
		Settle:        1,
		Debounce:      8,
		Dwell:         4,
		LossThreshold: 4,
		Width:         40,
	}
}

// Validate checks that the configuration is usable.
//
func (c *Config) Validate() error {
	switch {
	case c.Settle < 0:
		return errors.Errorf("negative settle count %d", c.Settle)
	case c.Debounce < 1:
		return errors.Errorf("invalid debounce count %d", c.Debounce)
	case c.Dwell < 1:
		return errors.Errorf("invalid dwell count %d", c.Dwell)
	case c.LossThreshold < 1:
		return errors.Errorf("invalid loss threshold %d", c.LossThreshold)
	case c.Width < 2 || c.Width > 64:
		return errors.Errorf("invalid window width %d", c.Width)
	}
	return nil
}

// A Sample is what the controller sees of a decoded group.
//
type Sample struct {
	Comma   bool // comma word
	Invalid bool // at least one invalid lane
	Idle    bool // all lanes idle
}

// Controller searches the bit-slip offset of a receiver.
//
type Controller struct {
	cfg Config
	log zerolog.Logger

	enabled bool
	state   State
	offset  int

	settle int // groups left to discard
	seen   int // non-comma groups seen at the current offset
	good   int // consecutive comma groups
	bad    int // consecutive bad groups while locked
}

// New returns a new enabled Controller. It returns an error if cfg is not
// valid.
//
func New(cfg Config, log zerolog.Logger) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "bit-slip controller")
	}
	c := &Controller{cfg: cfg, log: log, enabled: true}
	c.Reset()
	return c, nil
}

// Offset returns the current bit-slip offset.
//
func (c *Controller) Offset() int { return c.offset }

// State returns the controller state.
//
func (c *Controller) State() State { return c.state }

// Enabled returns true if the controller is enabled.
//
func (c *Controller) Enabled() bool { return c.enabled }

// Reset moves the controller back to offset 0 and restarts the search.
//
func (c *Controller) Reset() {
	c.offset = 0
	c.restart()
	c.log.Debug().Msg("bit-slip reset")
}

// Enable enables or disables the controller. A disabled controller ignores
// samples and keeps its offset.
//
func (c *Controller) Enable(on bool) {
	if on != c.enabled {
		c.log.Debug().Bool("enabled", on).Msg("bit-slip controller")
	}
	c.enabled = on
}

// Increment moves to the next offset and restarts the search from there.
//
func (c *Controller) Increment() {
	c.offset++
	if c.offset == c.cfg.Width {
		c.offset = 0
	}
	c.restart()
}

func (c *Controller) restart() {
	if c.state != Searching {
		c.log.Info().Int("offset", c.offset).Msg("bit-slip search")
	}
	c.state = Searching
	c.settle = c.cfg.Settle
	c.seen, c.good, c.bad = 0, 0, 0
}

// Observe feeds the next decoded group to the controller. It returns true if
// the offset has changed.
//
func (c *Controller) Observe(s Sample) bool {
	if !c.enabled {
		return false
	}
	if c.state == Locked {
		if s.Invalid || c.cfg.ExpectComma && !s.Comma {
			c.bad++
		} else {
			c.bad = 0
		}
		if c.bad >= c.cfg.LossThreshold {
			c.log.Warn().Int("offset", c.offset).Int("bad", c.bad).Msg("bit-slip lock lost")
			c.restart()
		}
		return false
	}

	if c.settle > 0 {
		c.settle--
		return false
	}
	if s.Idle {
		// nothing to align on.
		return false
	}
	if s.Comma {
		c.good++
		if c.good >= c.cfg.Debounce {
			c.state = Locked
			c.bad = 0
			c.log.Info().Int("offset", c.offset).Msg("bit-slip locked")
		}
		return false
	}
	c.good = 0
	c.seen++
	if c.seen < c.cfg.Dwell {
		return false
	}
	c.Increment()
	c.log.Debug().Int("offset", c.offset).Msg("bit-slip increment")
	return true
}
