// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package phy

import (
	"github.com/db47h/serwb"
	"github.com/db47h/serwb/code8b10b"
	"github.com/db47h/serwb/hwlib"
	"github.com/pkg/errors"
)

// TXReadyLatency is the number of cycles between the cycle where the
// transmitter takes a word and the cycle where ready is high.
//
const TXReadyLatency = 2

// clockPattern is the forwarded clock: 5 ones, 5 zeros, per symbol.
const clockPattern = 0xF83E0F83E0

// TXChip returns a transmitter chip. With master set, it also drives the
// forwarded clock pattern on refclk.
//
//	Inputs: d[32], k[4], idle, comma
//	Outputs: out[8], ready (, refclk[8])
//
// The word on d/k is encoded every fifth cycle and sent over the next five
// cycles, least significant byte first. comma replaces the word with the
// comma word and takes precedence over idle, which sends a group of zeros.
//
func TXChip(master bool) (serwb.NewPartFn, error) {
	outputs := "out[8], ready"
	parts := serwb.Parts{
		hwlib.Const(32, uint64(code8b10b.Comma.Data))("out=comma_d"),
		hwlib.Const(4, uint64(code8b10b.Comma.Ctrl))("out=comma_k"),
		hwlib.MuxN(32)("a=d, b=comma_d, sel=comma, out=fd"),
		hwlib.MuxN(4)("a=k, b=comma_k, sel=comma, out=fk"),
		hwlib.Mux("a=idle, b=false, sel=comma, out=fidle"),
		code8b10b.EncoderPart("d=fd, k=fk, idle=fidle, ce=accept, out=group"),
		hwlib.DownConverter(code8b10b.GroupBits, 8)("in=group, out=out, ready=accept"),
		hwlib.Delay(TXReadyLatency)("in=accept, out=ready"),
	}
	if master {
		outputs += ", refclk[8]"
		parts = append(parts,
			hwlib.Const(code8b10b.GroupBits, clockPattern)("out=pattern"),
			hwlib.DownConverter(code8b10b.GroupBits, 8)("in=pattern, out=refclk"),
		)
	}
	return serwb.Chip("SERWBTX", serwb.In("d[32], k[4], idle, comma"), serwb.Out(outputs), parts)
}

// TXPort holds the transmitter inputs.
//
// Lanes flagged in Ctrl that do not carry a valid control code are sent as
// data. A word that is the comma word once such flags are dropped, like
// {Data: 0xBC, Ctrl: 0x3}, is received as a comma. Link.Transfer rejects
// these words.
//
type TXPort struct {
	Data  uint32
	Ctrl  uint8
	Idle  bool
	Comma bool
}

// TX is a simulated transmitter.
//
type TX struct {
	cfg Config
	c   *serwb.Circuit

	in    TXPort
	out   byte
	clk   byte
	ready bool
}

// NewTX returns a new transmitter. Close must be called to release the
// simulator resources.
//
func NewTX(cfg Config) (*TX, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t := &TX{cfg: cfg}
	if err := t.build(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *TX) build() error {
	chip, err := TXChip(t.cfg.Master)
	if err != nil {
		return errors.Wrap(err, "build transmitter")
	}
	conns := "d=d, k=k, idle=idle, comma=comma, out=out, ready=ready"
	parts := serwb.Parts{
		hwlib.InputN(32, func() uint64 { return uint64(t.in.Data) })("out=d"),
		hwlib.InputN(4, func() uint64 { return uint64(t.in.Ctrl) })("out=k"),
		hwlib.Input(func() bool { return t.in.Idle })("out=idle"),
		hwlib.Input(func() bool { return t.in.Comma })("out=comma"),
		hwlib.OutputN(8, func(v uint64) { t.out = byte(v) })("in=out"),
		hwlib.Output(func(b bool) { t.ready = b })("in=ready"),
	}
	if t.cfg.Master {
		conns += ", refclk=refclk"
		parts = append(parts, hwlib.OutputN(8, func(v uint64) { t.clk = byte(v) })("in=refclk"))
	}
	parts = append(parts, chip(conns))
	c, err := serwb.NewCircuit(t.cfg.Workers, t.cfg.StepsPerCycle, parts)
	if err != nil {
		return errors.Wrap(err, "build transmitter")
	}
	t.c = c
	return nil
}

// Present sets the transmitter inputs for the next cycle. The inputs hold
// until the next call to Present.
//
func (t *TX) Present(p TXPort) { t.in = p }

// Step runs one clock cycle and returns the byte sent on the line.
//
func (t *TX) Step() byte {
	t.c.TickTock()
	return t.out
}

// Ready returns the state of the ready signal during the last cycle. When
// ready is high, the word presented TXReadyLatency cycles earlier has been
// taken.
//
func (t *TX) Ready() bool { return t.ready }

// Clock returns the forwarded clock byte sent during the last cycle. It is
// always zero if the transmitter is not a master.
//
func (t *TX) Clock() byte { return t.clk }

// Cycles returns the number of cycles run since the last reset.
//
func (t *TX) Cycles() uint64 { return t.c.Cycles() }

// Reset rebuilds the transmitter. All state is lost and the encoder running
// disparity goes back to negative.
//
func (t *TX) Reset() error {
	t.Close()
	t.in, t.out, t.clk, t.ready = TXPort{}, 0, 0, false
	return t.build()
}

// Close releases the simulator resources.
//
func (t *TX) Close() {
	if t.c != nil {
		t.c.Dispose()
		t.c = nil
	}
}
