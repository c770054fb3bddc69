// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package serwb

import (
	"runtime"
	"sync"

	"github.com/db47h/serwb/internal/hdl"
	"github.com/pkg/errors"
)

// A Component is a component in a circuit that can Get and Set wire values.
//
type Component func(c *Circuit)

// A MountFn mounts a part into socket s. MountFn's should query
// the socket for assigned wire numbers and return closures around
// these wire numbers.
//
// For example, an 8 bits inverter can be defined like this:
//
//	inv := &serwb.PartSpec{
//		Name:    "INV8",
//		Inputs:  serwb.In("in[8]"),
//		Outputs: serwb.Out("out[8]"),
//		Mount: func(s *serwb.Socket) []serwb.Component {
//			in, out := s.Pin("in"), s.Pin("out")
//			return []serwb.Component{
//				func(c *serwb.Circuit) { c.Set(out, ^c.Get(in)) },
//			}
//		}}
//
// Values written with Set are masked to the wire width, so the inverter
// does not need to mask its output.
//
type MountFn func(s *Socket) []Component

// A PartSpec wraps a part specification (its blueprint).
//
// Custom parts are implemented by creating a PartSpec, then using its NewPart
// method as a NewPartFn:
//
//	var inverter = inv.NewPart
//
// or:
//
//	func Inv8(c string) serwb.Part { return inv.NewPart(c) }
//
// Which can then be used when building chips:
//
//	c, _ := serwb.Chip("dummy", serwb.In("a[8]"), serwb.Out("b[8]"), serwb.Parts{
//		Inv8("in=a, out=b"),
//	})
//
type PartSpec struct {
	// Part name.
	Name string
	// Input pins. Must be distinct pin names.
	// Use the In() function to build the list from a description
	// like "d[32], k[4], idle".
	Inputs Inputs
	// Output pins. Must be distinct pin names.
	// Use the Out() function to build the list from a description string.
	Outputs Outputs

	// Mount function (see MountFn).
	Mount MountFn
}

// NewPart is a NewPartFn that wraps p with the given connections into a Part.
// It panics if the connection string cannot be parsed.
//
func (p *PartSpec) NewPart(connections string) Part {
	as, err := hdl.ParseConnections(connections)
	if err != nil {
		panic(err)
	}
	conns := make([]Connection, len(as))
	for i, a := range as {
		conns[i] = Connection{PP: a.LHS, CP: a.RHS}
	}
	return Part{p, conns}
}

// pin returns the input or output pin with the given name.
//
func (p *PartSpec) pin(name string) (pin Pin, isInput bool, ok bool) {
	for _, i := range p.Inputs {
		if i.Name == name {
			return i, true, true
		}
	}
	for _, o := range p.Outputs {
		if o.Name == name {
			return o, false, true
		}
	}
	return Pin{}, false, false
}

// A NewPartFn is a function that takes a connection configuration and returns a
// new Part. The connection configuration is a comma separated list of
// part_pin=chip_wire assignments.
//
type NewPartFn func(c string) Part

// A Connection connects the pin PP of a part to the wire CP of its container.
//
type Connection struct {
	PP string
	CP string
}

// A Part wraps a part specification together with its connections within a host
// chip.
//
type Part struct {
	*PartSpec
	Conns []Connection
}

// Parts is a convenience wrapper around []Part.
//
type Parts []Part

// Circuit is a runnable circuit simulation. A Circuit models a single clock
// domain: all its clocked parts share the built-in clk wire.
//
type Circuit struct {
	s0    []uint64 // wire states frame #0
	s1    []uint64 // wire states frame #1
	masks []uint64 // wire widths, as bit masks
	cs    []Component
	tpc   uint // ticks per clock cycle
	tick  uint

	wc []chan struct{}
	wg sync.WaitGroup
}

// NewCircuit builds a new circuit based on the given parts.
//
// workers is the number of goroutines used to update the state of the Circuit
// each step of the simulation. If less or equal to 0, the value of GOMAXPROCS
// will be used.
//
// stepsPerCycle indicates how many simulation steps to run per clock cycle.
// Every part adds one step of propagation delay, so combinational paths
// between two clocked parts must be shorter than stepsPerCycle. The value
// is rounded up to the next power of two, with a minimum of 2.
//
// Callers must make sure to call Dispose() once the circuit is no longer needed
// in order to release allocated resources.
//
func NewCircuit(workers int, stepsPerCycle uint, parts Parts) (*Circuit, error) {
	if len(parts) == 0 {
		return nil, errors.New("empty part list")
	}

	if stepsPerCycle < 2 {
		stepsPerCycle = 2
	}
	stepsPerCycle--
	stepsPerCycle |= stepsPerCycle >> 1
	stepsPerCycle |= stepsPerCycle >> 2
	stepsPerCycle |= stepsPerCycle >> 4
	stepsPerCycle |= stepsPerCycle >> 8
	stepsPerCycle |= stepsPerCycle >> 16
	stepsPerCycle |= stepsPerCycle >> 32
	stepsPerCycle++

	// new circuit with room for constant value wires.
	cc := &Circuit{tpc: stepsPerCycle, masks: make([]uint64, cstCount)}
	for i := range cc.masks {
		cc.masks[i] = 1
	}
	wrap, err := Chip("CIRCUIT", nil, nil, parts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create chip wrapper")
	}
	ups := wrap("").Mount(newSocket(cc))
	ups = append(ups, updClock)
	cc.cs = ups
	cc.s0 = make([]uint64, len(cc.masks))
	cc.s1 = make([]uint64, len(cc.masks))
	// init constant wires
	cc.s0[cstClk] = 1
	cc.s0[cstTrue] = 1
	cc.s1[cstTrue] = 1

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(-1)
	}
	if workers <= 0 {
		workers = 1
	}
	for len(ups) > 0 {
		size := len(ups) / workers
		if size*workers < len(ups) {
			size++
		}
		wc := make(chan struct{}, 1)
		cc.wc = append(cc.wc, wc)
		go worker(cc, ups[:size], wc)
		ups = ups[size:]
	}

	return cc, nil
}

func updClock(c *Circuit) {
	if c.s0[cstFalse] != 0 || c.s0[cstTrue] != 1 {
		panic("true or false constants have been overwritten")
	}

	tick := c.tick + 1
	if tick&(c.tpc-1) == 0 {
		c.s1[cstClk] = 1
	} else if tick&(c.tpc/2-1) == 0 {
		c.s1[cstClk] = 0
	} else {
		c.s1[cstClk] = c.s0[cstClk]
	}
}

// Dispose releases all resources allocated for a circuit and stops
// worker goroutines.
//
func (c *Circuit) Dispose() {
	c.wg.Add(len(c.wc))
	for _, wc := range c.wc {
		close(wc)
	}
	c.wg.Wait()
	c.wc = nil
}

func worker(c *Circuit, cs []Component, wc <-chan struct{}) {
	for {
		_, ok := <-wc
		if !ok {
			c.wg.Done()
			return
		}
		for _, f := range cs {
			f(c)
		}
		c.wg.Done()
	}
}

// allocWire allocates a wire of the given width and returns its number.
//
func (c *Circuit) allocWire(width int) int {
	n := len(c.masks)
	c.masks = append(c.masks, mask(width))
	return n
}

func mask(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return 1<<uint(width) - 1
}

// Steps returns the value of the step counter.
//
func (c *Circuit) Steps() uint {
	return c.tick
}

// SPC returns the stepsPerCycle value.
//
func (c *Circuit) SPC() uint {
	return c.tpc
}

// Cycles returns the number of completed clock cycles.
//
func (c *Circuit) Cycles() uint64 {
	return uint64(c.tick / c.tpc)
}

// AtTick returns true if the current step is at the beginning of a clock cycle
// (raising edge of Clk).
//
func (c *Circuit) AtTick() bool {
	return c.Steps()&(c.SPC()-1) == 0
}

// AtTock returns true if the current step is at the beginning of the second
// half of a clock cycle (falling edge of Clk).
//
func (c *Circuit) AtTock() bool {
	return (c.Steps()+c.SPC()/2)&(c.SPC()-1) == 0
}

// Get returns the value of wire n. The value of n should be obtained in a
// MountFn by a call to one of the Socket methods.
//
func (c *Circuit) Get(n int) uint64 {
	return c.s0[n]
}

// Set sets the value of wire n. v is truncated to the wire's width.
//
func (c *Circuit) Set(n int, v uint64) {
	c.s1[n] = v & c.masks[n]
}

// Bit returns true if wire n is non-zero.
//
func (c *Circuit) Bit(n int) bool {
	return c.s0[n] != 0
}

// SetBit sets wire n to 1 if b is true, 0 otherwise.
//
func (c *Circuit) SetBit(n int, b bool) {
	if b {
		c.s1[n] = 1
	} else {
		c.s1[n] = 0
	}
}

// Step advances the simulation by one step.
//
func (c *Circuit) Step() {
	c.wg.Add(len(c.wc))
	for _, wc := range c.wc {
		wc <- struct{}{}
	}

	c.wg.Wait()
	c.tick++
	c.s0, c.s1 = c.s1, c.s0
}

// Tick runs the simulation until the beginning of the next half clock cycle.
//
func (c *Circuit) Tick() {
	for c.Bit(cstClk) {
		c.Step()
	}
}

// Tock runs the simulation until the beginning of the next clock cycle.
// Once Tock returns, the output of clocked components should have stabilized.
//
func (c *Circuit) Tock() {
	for !c.Bit(cstClk) {
		c.Step()
	}
}

// TickTock runs the simulation for a whole clock cycle.
//
func (c *Circuit) TickTock() {
	c.Tick()
	c.Tock()
}

// Run runs the simulation for n clock cycles.
//
func (c *Circuit) Run(n int) {
	for ; n > 0; n-- {
		c.TickTock()
	}
}

// Size returns the component count in the circuit.
//
func (c *Circuit) Size() int { return len(c.cs) }

// Wires returns the number of wires allocated in the circuit, including
// the constant wires.
//
func (c *Circuit) Wires() int { return len(c.masks) }
