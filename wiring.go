// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package serwb

import (
	"strconv"

	"github.com/pkg/errors"
)

// a wire is a named signal inside a chip.
type wire struct {
	name   string
	width  int
	driver string // part pin driving the wire
	input  bool   // chip input
	output bool   // chip output
	reads  int    // number of part inputs connected to it
}

type wiring struct {
	wires map[string]*wire
	order []string
}

func newWiring(ins Inputs, outs Outputs) (*wiring, error) {
	wr := &wiring{wires: make(map[string]*wire, len(ins)+len(outs))}
	for _, in := range ins {
		if err := wr.declare(in, true); err != nil {
			return nil, err
		}
	}
	for _, out := range outs {
		if err := wr.declare(out, false); err != nil {
			return nil, err
		}
	}
	return wr, nil
}

func (wr *wiring) declare(p Pin, input bool) error {
	if isConstant(p.Name) {
		return errors.New("reserved name " + p.Name + " used as chip pin")
	}
	if _, ok := wr.wires[p.Name]; ok {
		return errors.New("duplicate chip pin " + p.Name)
	}
	wr.add(&wire{name: p.Name, width: p.Width, input: input, output: !input})
	return nil
}

func (wr *wiring) add(w *wire) {
	wr.wires[w.name] = w
	wr.order = append(wr.order, w.name)
}

// connect records a connection between pin p of part partName and the
// chip wire named name.
//
func (wr *wiring) connect(partName string, p Pin, isInput bool, name string) error {
	fail := func(msg string) error {
		return errors.New(partName + "." + p.Name + ":" + name + ": " + msg)
	}

	if isConstant(name) {
		if isInput {
			return nil
		}
		if name == Clk {
			return fail("output pin connected to clock signal")
		}
		return fail("output pin connected to constant " + name + " input")
	}

	w := wr.wires[name]
	if w == nil {
		w = &wire{name: name, width: p.Width}
		wr.add(w)
	} else if w.width != p.Width {
		return fail("width mismatch: " + strconv.Itoa(p.Width) + " bits pin on " + strconv.Itoa(w.width) + " bits wire")
	}

	if isInput {
		w.reads++
		return nil
	}
	switch {
	case w.input:
		return fail("chip input pin used as output")
	case w.driver != "":
		return fail("output pin already used as output")
	}
	w.driver = partName + "." + p.Name
	return nil
}

// check reports chip outputs and internal wires that are never driven, and
// internal wires that are driven but never read.
//
func (wr *wiring) check() error {
	for _, n := range wr.order {
		w := wr.wires[n]
		if w.driver == "" && !w.input && (w.output || w.reads > 0) {
			return errors.New("pin " + n + " not connected to any output")
		}
		if w.driver != "" && w.reads == 0 && !w.output {
			return errors.New("pin " + n + " not connected to any input")
		}
	}
	return nil
}

func (wr *wiring) widths() map[string]int {
	m := make(map[string]int, len(wr.wires))
	for n, w := range wr.wires {
		m[n] = w.width
	}
	return m
}
