// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hwlib provides a library of reusable parts for serwb circuits.
//
// Parts come in two flavors: fixed parts like Not or DFF are plain functions
// taking a connection string, and parametric parts like MuxN or BitSlip take
// their parameters and return a serwb.NewPartFn.
//
package hwlib

import (
	"strconv"

	"github.com/db47h/serwb"
)

// common pin names
const (
	pA     = "a"
	pB     = "b"
	pIn    = "in"
	pSel   = "sel"
	pOut   = "out"
	pLoad  = "load"
	pCE    = "ce"
	pValue = "value"
	pReady = "ready"
	pValid = "valid"
)

// make a pin list of the given width
func pins(width int, names ...string) []serwb.Pin {
	ps := make([]serwb.Pin, len(names))
	for i, n := range names {
		ps[i] = serwb.Pin{Name: n, Width: width}
	}
	return ps
}

var notGate = serwb.PartSpec{Name: "NOT", Inputs: pins(1, pIn), Outputs: pins(1, pOut),
	Mount: func(s *serwb.Socket) []serwb.Component {
		in, out := s.Pin(pIn), s.Pin(pOut)
		return []serwb.Component{
			func(c *serwb.Circuit) { c.SetBit(out, !c.Bit(in)) },
		}
	},
}

// Not returns a NOT gate.
//
//	Inputs: in
//	Outputs: out
//	Function: out = !in
//
func Not(w string) serwb.Part {
	return notGate.NewPart(w)
}

// other gates
type gate func(a, b bool) bool

func (g gate) mount(s *serwb.Socket) []serwb.Component {
	a, b, out := s.Pin(pA), s.Pin(pB), s.Pin(pOut)
	return []serwb.Component{
		func(c *serwb.Circuit) { c.SetBit(out, g(c.Bit(a), c.Bit(b))) },
	}
}

func newGate(name string, fn func(a, b bool) bool) *serwb.PartSpec {
	return &serwb.PartSpec{
		Name:    name,
		Inputs:  pins(1, pA, pB),
		Outputs: pins(1, pOut),
		Mount:   gate(fn).mount,
	}
}

var (
	and = newGate("AND", func(a, b bool) bool { return a && b })
	or  = newGate("OR", func(a, b bool) bool { return a || b })
)

// And returns a AND gate.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = a && b
//
func And(w string) serwb.Part { return and.NewPart(w) }

// Or returns a OR gate.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = a || b
//
func Or(w string) serwb.Part { return or.NewPart(w) }

func inNames(ways int) []string {
	ns := make([]string, ways)
	for i := range ns {
		ns[i] = pIn + strconv.Itoa(i)
	}
	return ns
}

// OrNWay returns a N-Way OR gate.
//
//	Inputs: in0, in1, ..., in{n-1}
//	Outputs: out
//	Function: out = in0 || in1 || ... || in{n-1}
//
func OrNWay(ways int) serwb.NewPartFn {
	ns := inNames(ways)
	return (&serwb.PartSpec{
		Name:    "OR" + strconv.Itoa(ways) + "Way",
		Inputs:  pins(1, ns...),
		Outputs: pins(1, pOut),
		Mount: func(s *serwb.Socket) []serwb.Component {
			in := make([]int, ways)
			for i, n := range ns {
				in[i] = s.Pin(n)
			}
			out := s.Pin(pOut)
			return []serwb.Component{
				func(c *serwb.Circuit) {
					for _, i := range in {
						if c.Bit(i) {
							c.SetBit(out, true)
							return
						}
					}
					c.SetBit(out, false)
				}}
		}}).NewPart
}

// AndNWay returns a N-Way AND gate.
//
//	Inputs: in0, in1, ..., in{n-1}
//	Outputs: out
//	Function: out = in0 && in1 && ... && in{n-1}
//
func AndNWay(ways int) serwb.NewPartFn {
	ns := inNames(ways)
	return (&serwb.PartSpec{
		Name:    "AND" + strconv.Itoa(ways) + "Way",
		Inputs:  pins(1, ns...),
		Outputs: pins(1, pOut),
		Mount: func(s *serwb.Socket) []serwb.Component {
			in := make([]int, ways)
			for i, n := range ns {
				in[i] = s.Pin(n)
			}
			out := s.Pin(pOut)
			return []serwb.Component{
				func(c *serwb.Circuit) {
					for _, i := range in {
						if !c.Bit(i) {
							c.SetBit(out, false)
							return
						}
					}
					c.SetBit(out, true)
				}}
		}}).NewPart
}

// Eq returns a comparator against a constant value.
//
//	Inputs: in[bits]
//	Outputs: out
//	Function: out = in == value
//
func Eq(bits int, value uint64) serwb.NewPartFn {
	return (&serwb.PartSpec{
		Name:    "EQ" + strconv.Itoa(bits),
		Inputs:  pins(bits, pIn),
		Outputs: pins(1, pOut),
		Mount: func(s *serwb.Socket) []serwb.Component {
			in, out := s.Pin(pIn), s.Pin(pOut)
			return []serwb.Component{
				func(c *serwb.Circuit) { c.SetBit(out, c.Get(in) == value) },
			}
		}}).NewPart
}
