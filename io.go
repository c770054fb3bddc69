// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package serwb

import (
	"github.com/db47h/serwb/internal/hdl"
)

// A Pin is a named part input or output. Width is the number of bits carried
// by the wire connected to it, between 1 and 64.
//
type Pin struct {
	Name  string
	Width int
}

// Inputs is a convenience wrapper around []Pin for part inputs.
//
type Inputs []Pin

// Outputs is a convenience wrapper around []Pin for part outputs.
//
type Outputs []Pin

// IO parses a pin description string and returns the individual pins.
// Pins are separated by commas and an optional width follows the pin
// name in square brackets. For example:
//
//	IO("d[32], k[4], idle") // returns []Pin{{"d", 32}, {"k", 4}, {"idle", 1}}
//
func IO(spec string) ([]Pin, error) {
	ps, err := hdl.ParseIO(spec)
	if err != nil {
		return nil, err
	}
	if len(ps) == 0 {
		return nil, nil
	}
	out := make([]Pin, len(ps))
	for i, p := range ps {
		out[i] = Pin{p.Name, p.Width}
	}
	return out, nil
}

// In parses an input pin description string. It panics if the string cannot
// be parsed. See IO.
//
func In(spec string) Inputs {
	ps, err := IO(spec)
	if err != nil {
		panic(err)
	}
	return Inputs(ps)
}

// Out parses an output pin description string. It panics if the string cannot
// be parsed. See IO.
//
func Out(spec string) Outputs {
	ps, err := IO(spec)
	if err != nil {
		panic(err)
	}
	return Outputs(ps)
}
