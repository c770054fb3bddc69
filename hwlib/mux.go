// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"strconv"

	"github.com/db47h/serwb"
)

// Mux returns a multiplexer.
//
//	Inputs: a, b, sel
//	Outputs: out
//	Function: if sel == 0 { out = a } else { out = b }
//
func Mux(w string) serwb.Part { return mux.NewPart(w) }

var mux = SpecMuxN(1)

// SpecMuxN returns a PartSpec for an n-bits Mux
//
//	Inputs: a[bits], b[bits], sel
//	Outputs: out[bits]
//	Function: if sel == 0 { out = a } else { out = b }
//
func SpecMuxN(bits int) *serwb.PartSpec {
	name := "MUX"
	if bits > 1 {
		name += strconv.Itoa(bits)
	}
	return &serwb.PartSpec{
		Name:    name,
		Inputs:  append(pins(bits, pA, pB), pins(1, pSel)...),
		Outputs: pins(bits, pOut),
		Mount: func(s *serwb.Socket) []serwb.Component {
			a, b, sel, out := s.Pin(pA), s.Pin(pB), s.Pin(pSel), s.Pin(pOut)
			return []serwb.Component{
				func(c *serwb.Circuit) {
					if c.Bit(sel) {
						c.Set(out, c.Get(b))
					} else {
						c.Set(out, c.Get(a))
					}
				}}
		}}
}

// MuxN returns a N-bits Mux
//
//	Inputs: a[bits], b[bits], sel
//	Outputs: out[bits]
//	Function: if sel == 0 { out = a } else { out = b }
//
func MuxN(bits int) serwb.NewPartFn {
	return SpecMuxN(bits).NewPart
}
