// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package code8b10b

import (
	"github.com/db47h/serwb"
)

var encoderSpec = serwb.PartSpec{
	Name:    "ENC8B10B",
	Inputs:  serwb.In("d[32], k[4], idle, ce"),
	Outputs: serwb.Out("out[40]"),
	Mount: func(s *serwb.Socket) []serwb.Component {
		d, k, idle, ce, out := s.Pin("d"), s.Pin("k"), s.Pin("idle"), s.Pin("ce"), s.Pin("out")
		var (
			enc Encoder
			g   Group
		)
		return []serwb.Component{func(c *serwb.Circuit) {
			if c.AtTick() && c.Bit(ce) {
				if c.Bit(idle) {
					g = 0
				} else {
					g = enc.Encode(Word{Data: uint32(c.Get(d)), Ctrl: uint8(c.Get(k))})
				}
			}
			c.Set(out, uint64(g))
		}}
	},
}

// EncoderPart returns a registered 4 lanes encoder.
//
//	Inputs: d[32], k[4], idle, ce
//	Outputs: out[40]
//	Function: on clock enable, out = idle ? 0 : Encode(d, k)
//
// The running disparity is held on idle groups.
//
func EncoderPart(c string) serwb.Part { return encoderSpec.NewPart(c) }

var decoderSpec = serwb.PartSpec{
	Name:    "DEC8B10B",
	Inputs:  serwb.In("in[40], ce"),
	Outputs: serwb.Out("d[32], k[4], invalid[4], idle[4]"),
	Mount: func(s *serwb.Socket) []serwb.Component {
		in, ce := s.Pin("in"), s.Pin("ce")
		d, k, invalid, idle := s.Pin("d"), s.Pin("k"), s.Pin("invalid"), s.Pin("idle")
		var (
			dec Decoder
			r   Result
		)
		return []serwb.Component{func(c *serwb.Circuit) {
			if c.AtTick() && c.Bit(ce) {
				r = dec.Decode(Group(c.Get(in)))
			}
			c.Set(d, uint64(r.Data))
			c.Set(k, uint64(r.Ctrl))
			c.Set(invalid, uint64(r.Invalid))
			c.Set(idle, uint64(r.Idle))
		}}
	},
}

// DecoderPart returns a registered 4 lanes decoder.
//
//	Inputs: in[40], ce
//	Outputs: d[32], k[4], invalid[4], idle[4]
//	Function: on clock enable, decode in. Outputs hold until the next
//	          enabled cycle.
//
func DecoderPart(c string) serwb.Part { return decoderSpec.NewPart(c) }
