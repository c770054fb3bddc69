// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"strconv"

	"github.com/db47h/serwb"
)

var dff = SpecDFFN(1)

// DFF returns a clocked data flip flop.
//
//	Inputs: in
//	Outputs: out
//	Function: out(t) = in(t-1) // where t is the current clock cycle.
//
func DFF(w string) serwb.Part { return dff.NewPart(w) }

// SpecDFFN returns a PartSpec for a N-bits data flip flop.
//
func SpecDFFN(bits int) *serwb.PartSpec {
	name := "DFF"
	if bits > 1 {
		name += strconv.Itoa(bits)
	}
	return &serwb.PartSpec{
		Name:    name,
		Inputs:  pins(bits, pIn),
		Outputs: pins(bits, pOut),
		Mount: func(s *serwb.Socket) []serwb.Component {
			in, out := s.Pin(pIn), s.Pin(pOut)
			var cur uint64
			return []serwb.Component{
				func(c *serwb.Circuit) {
					// raising edge?
					if c.AtTick() {
						cur = c.Get(in)
					}
					c.Set(out, cur)
				}}
		}}
}

// DFFN returns a N-bits data flip flop.
//
//	Inputs: in[bits]
//	Outputs: out[bits]
//	Function: out(t) = in(t-1)
//
func DFFN(bits int) serwb.NewPartFn {
	return SpecDFFN(bits).NewPart
}

// Register returns a N-bits register with a load enable.
//
//	Inputs: in[bits], load
//	Outputs: out[bits]
//	Function: if load(t-1) { out(t) = in(t-1) } else { out(t) = out(t-1) }
//
func Register(bits int) serwb.NewPartFn {
	return (&serwb.PartSpec{
		Name:    "REG" + strconv.Itoa(bits),
		Inputs:  append(pins(bits, pIn), pins(1, pLoad)...),
		Outputs: pins(bits, pOut),
		Mount: func(s *serwb.Socket) []serwb.Component {
			in, load, out := s.Pin(pIn), s.Pin(pLoad), s.Pin(pOut)
			var cur uint64
			return []serwb.Component{
				func(c *serwb.Circuit) {
					if c.AtTick() && c.Bit(load) {
						cur = c.Get(in)
					}
					c.Set(out, cur)
				}}
		}}).NewPart
}

// Delay returns a 1 bit delay line made of n flip flops.
//
//	Inputs: in
//	Outputs: out
//	Function: out(t) = in(t-n)
//
func Delay(n int) serwb.NewPartFn {
	return (&serwb.PartSpec{
		Name:    "DELAY" + strconv.Itoa(n),
		Inputs:  pins(1, pIn),
		Outputs: pins(1, pOut),
		Mount: func(s *serwb.Socket) []serwb.Component {
			in, out := s.Pin(pIn), s.Pin(pOut)
			sr := make([]bool, n)
			return []serwb.Component{
				func(c *serwb.Circuit) {
					if c.AtTick() {
						copy(sr[1:], sr)
						sr[0] = c.Bit(in)
					}
					c.SetBit(out, sr[n-1])
				}}
		}}).NewPart
}
