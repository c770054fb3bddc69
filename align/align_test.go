// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package align_test

import (
	"testing"

	"github.com/db47h/serwb"
	"github.com/db47h/serwb/align"
	"github.com/db47h/serwb/hwlib"
	"github.com/rs/zerolog"
)

var (
	comma   = align.Sample{Comma: true}
	garbage = align.Sample{Invalid: true}
	idle    = align.Sample{Idle: true}
	data    = align.Sample{}
)

func newController(t *testing.T, cfg align.Config) *align.Controller {
	t.Helper()
	c, err := align.New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	return c
}

// lockAt feeds garbage until the controller reaches offset, then commas
// until it locks. It returns the number of samples used.
func lockAt(t *testing.T, c *align.Controller, offset int) int {
	t.Helper()
	n := 0
	for c.Offset() != offset {
		c.Observe(garbage)
		if n++; n > 10000 {
			t.Fatalf("offset %d never reached", offset)
		}
	}
	for c.State() != align.Locked {
		c.Observe(comma)
		if n++; n > 10000 {
			t.Fatal("no lock")
		}
	}
	return n
}

func TestConfig(t *testing.T) {
	td := []struct {
		name string
		mod  func(*align.Config)
	}{
		{"settle", func(c *align.Config) { c.Settle = -1 }},
		{"debounce", func(c *align.Config) { c.Debounce = 0 }},
		{"dwell", func(c *align.Config) { c.Dwell = 0 }},
		{"loss", func(c *align.Config) { c.LossThreshold = 0 }},
		{"width", func(c *align.Config) { c.Width = 65 }},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			cfg := align.DefaultConfig()
			d.mod(&cfg)
			if _, err := align.New(cfg, zerolog.Nop()); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestSearch(t *testing.T) {
	cfg := align.DefaultConfig()
	c := newController(t, cfg)
	if c.State() != align.Searching || c.Offset() != 0 {
		t.Fatalf("bad initial state %v/%d", c.State(), c.Offset())
	}

	// settle, then dwell
	for i := 0; i < cfg.Settle+cfg.Dwell-1; i++ {
		if c.Observe(garbage) {
			t.Fatalf("offset changed after %d groups", i+1)
		}
	}
	if !c.Observe(garbage) || c.Offset() != 1 {
		t.Fatalf("expected offset 1, got %d", c.Offset())
	}

	// idle groups do not count.
	for i := 0; i < 100; i++ {
		c.Observe(idle)
	}
	if c.Offset() != 1 {
		t.Fatalf("offset moved on idle groups: %d", c.Offset())
	}

	// debounce
	for i := 0; i < cfg.Debounce-1; i++ {
		c.Observe(comma)
	}
	if c.State() != align.Searching {
		t.Fatal("locked too early")
	}
	c.Observe(comma)
	if c.State() != align.Locked || c.Offset() != 1 {
		t.Fatalf("expected lock at 1, got %v/%d", c.State(), c.Offset())
	}
}

func TestWrap(t *testing.T) {
	cfg := align.DefaultConfig()
	c := newController(t, cfg)
	for i := 0; i < cfg.Width; i++ {
		c.Increment()
	}
	if c.Offset() != 0 {
		t.Fatalf("expected offset 0 after %d increments, got %d", cfg.Width, c.Offset())
	}
	lockAt(t, c, cfg.Width-1)
	if c.Offset() != cfg.Width-1 {
		t.Fatalf("bad offset %d", c.Offset())
	}
}

func TestBrokenDebounce(t *testing.T) {
	cfg := align.DefaultConfig()
	c := newController(t, cfg)
	c.Observe(garbage) // settle
	for i := 0; i < 3*cfg.Dwell; i++ {
		for j := 0; j < cfg.Debounce-1; j++ {
			c.Observe(comma)
		}
		if c.Observe(garbage) {
			break
		}
	}
	if c.State() == align.Locked {
		t.Fatal("locked on a broken comma run")
	}
}

func TestLossOfLock(t *testing.T) {
	cfg := align.DefaultConfig()
	c := newController(t, cfg)
	lockAt(t, c, 7)

	// data and single errors keep the lock.
	for i := 0; i < 100; i++ {
		c.Observe(data)
		c.Observe(idle)
		if i%3 == 0 {
			c.Observe(garbage)
		}
	}
	if c.State() != align.Locked {
		t.Fatal("lock lost on isolated errors")
	}
	for i := 0; i < cfg.LossThreshold; i++ {
		c.Observe(garbage)
	}
	if c.State() != align.Searching || c.Offset() != 7 {
		t.Fatalf("expected search from offset 7, got %v/%d", c.State(), c.Offset())
	}

	// with ExpectComma, data groups are bad.
	cfg.ExpectComma = true
	c = newController(t, cfg)
	lockAt(t, c, 3)
	for i := 0; i < cfg.LossThreshold; i++ {
		c.Observe(data)
	}
	if c.State() != align.Searching {
		t.Fatal("lock kept on non-comma groups")
	}
}

func TestTriggers(t *testing.T) {
	c := newController(t, align.DefaultConfig())
	c.Enable(false)
	for i := 0; i < 100; i++ {
		if c.Observe(garbage) {
			t.Fatal("disabled controller moved")
		}
	}
	c.Increment()
	c.Increment()
	if c.Offset() != 2 {
		t.Fatalf("expected offset 2, got %d", c.Offset())
	}
	c.Enable(true)
	lockAt(t, c, 5)
	c.Reset()
	if c.State() != align.Searching || c.Offset() != 0 {
		t.Fatalf("bad state after reset %v/%d", c.State(), c.Offset())
	}
}

func TestPart(t *testing.T) {
	var (
		valid, cm, inv, enable bool
		value                  uint64
		locked                 bool
	)
	cfg := align.DefaultConfig()
	ctrl, err := align.NewPart(cfg, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	c, err := serwb.NewCircuit(0, 8, serwb.Parts{
		hwlib.Input(func() bool { return valid })("out=valid"),
		hwlib.Input(func() bool { return cm })("out=comma"),
		hwlib.Input(func() bool { return inv })("out=invalid"),
		hwlib.Input(func() bool { return enable })("out=enable"),
		ctrl("valid=valid, comma=comma, invalid=invalid, enable=enable, value=value, locked=locked"),
		hwlib.OutputN(hwlib.SlipWidth, func(v uint64) { value = v })("in=value"),
		hwlib.Output(func(b bool) { locked = b })("in=locked"),
	})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Dispose()

	// one valid group every 5 cycles.
	group := func(comma bool) {
		valid, cm, inv = true, comma, !comma
		c.TickTock()
		valid = false
		c.Run(4)
	}

	for i := 0; i < 20; i++ {
		group(false)
	}
	if value != 0 {
		t.Fatalf("disabled controller moved to %d", value)
	}

	enable = true
	c.Run(2)
	for value != 3 {
		group(false)
		if c.Cycles() > 10000 {
			t.Fatal("offset 3 never reached")
		}
	}
	for i := 0; i < cfg.Settle+cfg.Debounce; i++ {
		group(true)
	}
	if !locked || value != 3 {
		t.Fatalf("expected lock at 3, got %v/%d", locked, value)
	}
}
