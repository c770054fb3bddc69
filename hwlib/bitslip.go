// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"strconv"

	"github.com/db47h/serwb"
)

// SlipWidth is the width of the BitSlip value input. It can address windows
// up to 64 bits wide.
//
const SlipWidth = 6

// Slip returns the bits wide window starting offset bits into the bit stream
// made of prev followed by cur. Bit 0 of prev is the oldest bit.
// offset must be in [0, bits).
//
func Slip(prev, cur uint64, bits, offset int) uint64 {
	m := uint64(1)<<uint(bits) - 1
	if bits == 64 {
		m = ^uint64(0)
	}
	if offset == 0 {
		return prev & m
	}
	return (prev>>uint(offset) | cur<<uint(bits-offset)) & m
}

// BitSlip returns a bit-slip stage that restores word boundaries in a stream
// of bits wide words.
//
//	Inputs: in[bits], ce, value[6]
//	Outputs: out[bits]
//	Function: when ce is high, the current word moves to a history register
//	          and in becomes the current word. Every cycle, out is loaded
//	          with Slip(history, current, bits, value).
//
// The output is registered, so out lags ce by two cycles, and a change of
// value is visible on out one cycle later. Values greater than or equal to
// bits hold the output.
//
func BitSlip(bits int) serwb.NewPartFn {
	if bits < 2 || bits > 64 {
		panic("invalid bit-slip width " + strconv.Itoa(bits))
	}
	return (&serwb.PartSpec{
		Name:    "BITSLIP" + strconv.Itoa(bits),
		Inputs:  append(pins(bits, pIn), serwb.Pin{Name: pCE, Width: 1}, serwb.Pin{Name: pValue, Width: SlipWidth}),
		Outputs: pins(bits, pOut),
		Mount: func(s *serwb.Socket) []serwb.Component {
			in, ce, value, out := s.Pin(pIn), s.Pin(pCE), s.Pin(pValue), s.Pin(pOut)
			var prev, cur, o uint64
			return []serwb.Component{func(c *serwb.Circuit) {
				if c.AtTick() {
					// out is computed from the registers before they shift.
					if v := int(c.Get(value)); v < bits {
						o = Slip(prev, cur, bits, v)
					}
					if c.Bit(ce) {
						prev, cur = cur, c.Get(in)
					}
				}
				c.Set(out, o)
			}}
		}}).NewPart
}
