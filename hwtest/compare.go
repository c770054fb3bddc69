// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hwtest provides utility functions for testing circuits.
//
package hwtest

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/db47h/serwb"
	"github.com/db47h/serwb/hwlib"
)

// Cycles is the number of random clock cycles run by ComparePart.
//
var Cycles = 1 << 12

func mask(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return 1<<uint(width) - 1
}

// connString connects every input pin to the wire of the same name and
// every output pin to a wire with the given suffix.
//
func connString(in, out []serwb.Pin, suffix string) string {
	var b strings.Builder
	for _, p := range in {
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name + "=" + p.Name)
	}
	for _, p := range out {
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name + "=" + p.Name + suffix)
	}
	return b.String()
}

func samePins(t *testing.T, what string, p1, p2 []serwb.Pin) {
	t.Helper()
	if len(p1) != len(p2) {
		t.Fatalf("%s: %d pins != %d pins", what, len(p1), len(p2))
	}
	for i := range p1 {
		if p1[i] != p2[i] {
			t.Fatalf("%s: pin %d %v != %v", what, i, p1[i], p2[i])
		}
	}
}

// ComparePart takes two parts and compares their outputs given the same inputs.
// Both parts must have the same Input/Output interface.
//
// The parts are fed the same random inputs during Cycles clock cycles, with
// spc steps per cycle, and their outputs compared at the end of each cycle.
// Sequential parts are compared as well as combinational ones as long as
// both start from the same state.
//
func ComparePart(t *testing.T, spc uint, part1 serwb.NewPartFn, part2 serwb.NewPartFn) {
	t.Helper()

	ps1, ps2 := part1(""), part2("")
	samePins(t, "inputs", ps1.Inputs, ps2.Inputs)
	samePins(t, "outputs", ps1.Outputs, ps2.Outputs)

	var (
		inputs  = make([]uint64, len(ps1.Inputs))
		outputs = make([][2]uint64, len(ps1.Outputs))
		parts   = serwb.Parts{
			part1(connString(ps1.Inputs, ps1.Outputs, "_1")),
			part2(connString(ps1.Inputs, ps1.Outputs, "_2")),
		}
	)
	for i, p := range ps1.Inputs {
		i := i
		parts = append(parts, hwlib.InputN(p.Width, func() uint64 { return inputs[i] })("out="+p.Name))
	}
	for i, p := range ps1.Outputs {
		i := i
		parts = append(parts,
			hwlib.OutputN(p.Width, func(v uint64) { outputs[i][0] = v })("in="+p.Name+"_1"),
			hwlib.OutputN(p.Width, func(v uint64) { outputs[i][1] = v })("in="+p.Name+"_2"))
	}

	c, err := serwb.NewCircuit(0, spc, parts)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer c.Dispose()

	errString := func(o int) string {
		var b strings.Builder
		for i, p := range ps1.Inputs {
			if b.Len() > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%#x", p.Name, inputs[i])
		}
		return fmt.Sprintf("cycle %d: %s => %s: %s=%#x, %s=%#x",
			c.Cycles(), b.String(), ps1.Outputs[o].Name, ps1.Name, outputs[o][0], ps2.Name, outputs[o][1])
	}
	check := func() {
		t.Helper()
		for o, out := range outputs {
			if out[0] != out[1] {
				t.Fatal(errString(o))
			}
		}
	}

	start := time.Now()
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// all 0, then all 1
	c.TickTock()
	check()
	for i, p := range ps1.Inputs {
		inputs[i] = mask(p.Width)
	}
	c.TickTock()
	check()

	for n := 0; n < Cycles; n++ {
		for i, p := range ps1.Inputs {
			inputs[i] = r.Uint64() & mask(p.Width)
		}
		c.TickTock()
		check()
	}

	elapsed := time.Since(start)
	t.Logf("%d components. %d steps in %v. %d clock cycles => %.2f Hz", c.Size(), c.Steps(), elapsed, c.Cycles(), float64(c.Cycles())/elapsed.Seconds())
}
