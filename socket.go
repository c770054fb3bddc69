// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package serwb

// Constant input wire names.
//
var (
	True  = "true"
	False = "false"
	Clk   = "clk"
)

const (
	cstFalse = iota
	cstTrue
	cstClk
	cstCount
)

func isConstant(name string) bool {
	return name == True || name == False || name == Clk
}

// A Socket maps a part's pin names to wire numbers in a circuit.
//
type Socket struct {
	m map[string]int
	c *Circuit
}

func newSocket(c *Circuit) *Socket {
	return &Socket{
		m: map[string]int{False: cstFalse, True: cstTrue, Clk: cstClk},
		c: c,
	}
}

// Pin returns the wire number allocated to the given pin name.
// This function panics if the pin does not exist.
//
func (s *Socket) Pin(name string) int {
	n, ok := s.m[name]
	if !ok {
		panic("pin " + name + " does not exist")
	}
	return n
}

// PinOrNew returns the wire number allocated to the given pin name.
// If no such pin exists a new wire of the given width is allocated.
//
func (s *Socket) PinOrNew(name string, width int) int {
	n, ok := s.m[name]
	if !ok {
		n = s.c.allocWire(width)
		s.m[name] = n
	}
	return n
}

// Width returns the width in bits of the wire connected to the given pin.
// This function panics if the pin does not exist.
//
func (s *Socket) Width(name string) int {
	m := s.c.masks[s.Pin(name)]
	w := 0
	for ; m != 0; m >>= 1 {
		w++
	}
	return w
}
