// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package serwb

import (
	"github.com/pkg/errors"
)

type chip struct {
	PartSpec // PartSpec for this chip
	parts    Parts
	// widths maps every wire name used in the chip to its width in bits.
	widths map[string]int
}

func (c *chip) mount(s *Socket) []Component {
	var updaters []Component

	for _, p := range c.parts {
		sub := newSocket(s.c)
		connected := make(map[string]bool, len(p.Conns))
		for _, cn := range p.Conns {
			sub.m[cn.PP] = s.PinOrNew(cn.CP, c.widths[cn.CP])
			connected[cn.PP] = true
		}
		// unconnected inputs read false, unconnected outputs get a
		// private wire nobody reads.
		for _, in := range p.Inputs {
			if !connected[in.Name] {
				sub.m[in.Name] = cstFalse
			}
		}
		for _, out := range p.Outputs {
			if !connected[out.Name] {
				sub.m[out.Name] = s.c.allocWire(out.Width)
			}
		}
		updaters = append(updaters, p.Mount(sub)...)
	}
	return updaters
}

// Chip composes existing parts into a new part packaged into a chip.
// The pins specified as inputs and outputs will be the inputs
// and outputs of the chip.
//
// A word register with a load enable could be created like this:
//
//	reg, err := serwb.Chip(
//		"REG32",
//		serwb.In("in[32], load"),
//		serwb.Out("out[32]"),
//		serwb.Parts{
//			hwlib.MuxN(32)("a=out, b=in, sel=load, out=next"),
//			hwlib.DFFN(32)("in=next, out=out"),
//		})
//
// The returned value is a function of type NewPartFn that can be used to
// compose the new part with others into other chips:
//
//	pipe, err := serwb.Chip(
//		"PIPE",
//		serwb.In("in[32], load"),
//		serwb.Out("out[32]"),
//		serwb.Parts{
//			reg("in=in, load=load, out=stage"),
//			reg("in=stage, load=load, out=out"),
//		})
//
// Wires not declared as chip pins are private to the chip. Their width is
// set by the first part pin connected to them and all other pins connected
// to the same wire must have the same width.
//
func Chip(name string, inputs Inputs, outputs Outputs, parts Parts) (NewPartFn, error) {
	wr, err := newWiring(inputs, outputs)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}

	for _, p := range parts {
		seen := make(map[string]bool, len(p.Conns))
		for _, cn := range p.Conns {
			pin, isInput, ok := p.pin(cn.PP)
			if !ok {
				return nil, errors.New("invalid pin name " + cn.PP + " for part " + p.Name)
			}
			if seen[cn.PP] {
				return nil, errors.New("pin " + cn.PP + " of part " + p.Name + " connected more than once")
			}
			seen[cn.PP] = true
			if err = wr.connect(p.Name, pin, isInput, cn.CP); err != nil {
				return nil, err
			}
		}
	}

	if err = wr.check(); err != nil {
		return nil, err
	}

	c := &chip{
		PartSpec{
			Name:    name,
			Inputs:  inputs,
			Outputs: outputs,
		},
		parts,
		wr.widths(),
	}
	c.PartSpec.Mount = c.mount
	return c.PartSpec.NewPart, nil
}
