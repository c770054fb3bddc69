// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"strconv"

	"github.com/db47h/serwb"
)

// Input creates a function based input.
//
//	Outputs: out
//	Function: out = f()
//
func Input(f func() bool) serwb.NewPartFn {
	p := &serwb.PartSpec{
		Name:    "Input",
		Inputs:  nil,
		Outputs: pins(1, pOut),
		Mount: func(s *serwb.Socket) []serwb.Component {
			pin := s.Pin(pOut)
			return []serwb.Component{
				func(c *serwb.Circuit) {
					c.SetBit(pin, f())
				},
			}
		},
	}
	return p.NewPart
}

// Output creates an output or probe. The fn function is
// called with the named pin state on every circuit update.
//
//	Inputs: in
//	Function: f(in)
//
func Output(f func(bool)) serwb.NewPartFn {
	p := &serwb.PartSpec{
		Name:    "Output",
		Inputs:  pins(1, pIn),
		Outputs: nil,
		Mount: func(s *serwb.Socket) []serwb.Component {
			in := s.Pin(pIn)
			return []serwb.Component{
				func(c *serwb.Circuit) { f(c.Bit(in)) },
			}
		},
	}
	return p.NewPart
}

// InputN creates an input of the given bits size.
//
//	Outputs: out[bits]
//	Function: out = f()
//
func InputN(bits int, f func() uint64) serwb.NewPartFn {
	return (&serwb.PartSpec{
		Name:    "INPUT" + strconv.Itoa(bits),
		Inputs:  nil,
		Outputs: pins(bits, pOut),
		Mount: func(s *serwb.Socket) []serwb.Component {
			out := s.Pin(pOut)
			return []serwb.Component{func(c *serwb.Circuit) {
				c.Set(out, f())
			}}
		}}).NewPart
}

// OutputN creates an output of the given bits size.
//
//	Inputs: in[bits]
//	Function: f(in)
//
func OutputN(bits int, f func(uint64)) serwb.NewPartFn {
	return (&serwb.PartSpec{
		Name:    "OUTPUT" + strconv.Itoa(bits),
		Inputs:  pins(bits, pIn),
		Outputs: nil,
		Mount: func(s *serwb.Socket) []serwb.Component {
			in := s.Pin(pIn)
			return []serwb.Component{func(c *serwb.Circuit) {
				f(c.Get(in))
			}}
		}}).NewPart
}

// Const returns a constant source.
//
//	Outputs: out[bits]
//	Function: out = v
//
func Const(bits int, v uint64) serwb.NewPartFn {
	return (&serwb.PartSpec{
		Name:    "CONST" + strconv.Itoa(bits),
		Outputs: pins(bits, pOut),
		Mount: func(s *serwb.Socket) []serwb.Component {
			out := s.Pin(pOut)
			return []serwb.Component{func(c *serwb.Circuit) {
				c.Set(out, v)
			}}
		}}).NewPart
}
