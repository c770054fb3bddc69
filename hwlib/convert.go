// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"strconv"

	"github.com/db47h/serwb"
)

func ratio(wide, narrow int) int {
	if narrow <= 0 || wide <= narrow || wide%narrow != 0 || wide > 64 {
		panic("invalid width conversion " + strconv.Itoa(wide) + ":" + strconv.Itoa(narrow))
	}
	return wide / narrow
}

// DownConverter returns a stream width converter that splits words of from
// bits into from/to chunks of to bits, least significant chunk first. The
// stream is always valid: a chunk goes out every cycle and a new input word
// is taken every from/to cycles.
//
//	Inputs: in[from]
//	Outputs: out[to], ready
//	Function: out = chunk #n of in, ready = n == from/to-1
//	          where n counts cycles modulo from/to.
//
// in must be held stable until the cycle where ready is high. The word present
// on that cycle is the one being sent over the next from/to cycles after
// the producer updates it.
//
func DownConverter(from, to int) serwb.NewPartFn {
	r := ratio(from, to)
	return (&serwb.PartSpec{
		Name:    "DOWN" + strconv.Itoa(from) + "TO" + strconv.Itoa(to),
		Inputs:  pins(from, pIn),
		Outputs: append(pins(to, pOut), pins(1, pReady)...),
		Mount: func(s *serwb.Socket) []serwb.Component {
			in, out, ready := s.Pin(pIn), s.Pin(pOut), s.Pin(pReady)
			var n int
			return []serwb.Component{func(c *serwb.Circuit) {
				if c.AtTick() {
					if n++; n == r {
						n = 0
					}
				}
				c.Set(out, c.Get(in)>>uint(n*to))
				c.SetBit(ready, n == r-1)
			}}
		}}).NewPart
}

// UpConverter returns a stream width converter that packs to/from chunks
// of from bits into words of to bits, first chunk in the least significant
// bits. A chunk is taken every cycle.
//
//	Inputs: in[from]
//	Outputs: out[to], valid
//	Function: valid is high for one cycle after every to/from chunks;
//	          out holds the packed word during that cycle.
//
func UpConverter(from, to int) serwb.NewPartFn {
	r := ratio(to, from)
	return (&serwb.PartSpec{
		Name:    "UP" + strconv.Itoa(from) + "TO" + strconv.Itoa(to),
		Inputs:  pins(from, pIn),
		Outputs: append(pins(to, pOut), pins(1, pValid)...),
		Mount: func(s *serwb.Socket) []serwb.Component {
			in, out, valid := s.Pin(pIn), s.Pin(pOut), s.Pin(pValid)
			var (
				n      int
				data   uint64
				strobe bool
				m      = uint64(1)<<uint(from) - 1
			)
			return []serwb.Component{func(c *serwb.Circuit) {
				if c.AtTick() {
					sh := uint(n * from)
					data = data&^(m<<sh) | (c.Get(in)&m)<<sh
					strobe = n == r-1
					if n++; n == r {
						n = 0
					}
				}
				c.Set(out, data)
				c.SetBit(valid, strobe)
			}}
		}}).NewPart
}
