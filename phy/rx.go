// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package phy

import (
	"github.com/db47h/serwb"
	"github.com/db47h/serwb/align"
	"github.com/db47h/serwb/code8b10b"
	"github.com/db47h/serwb/hwlib"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// RXValidLatency is the number of cycles between the up-converter valid
// signal and the receiver valid output: sync register, two bit-slip
// registers and decoder.
//
const RXValidLatency = 4

// Receiver errors.
var (
	ErrInvalidOffset = errors.New("bit-slip offset out of range")
	ErrAutoAlign     = errors.New("bit-slip offset owned by the controller")
)

// RXChip returns a receiver chip.
//
//	Inputs: in[8], bitslip[6]
//	Outputs: d[32], k[4], invalid[4], valid, idle, comma
//
// With auto set, the chip embeds the bit-slip controller ctrl, and its pins
// become:
//
//	Inputs: in[8], align_reset, align_inc, align_enable
//	Outputs: d[32], k[4], invalid[4], valid, idle, comma, bitslip[6], locked
//
// d, k and invalid hold the last decoded group. valid is high for one cycle
// when a new group is decoded. idle is high if all lanes carried the line
// idle symbol, and comma if the group is the comma word without errors.
//
func RXChip(ctrl serwb.NewPartFn) (serwb.NewPartFn, error) {
	inputs := "in[8], bitslip[6]"
	outputs := "d[32], k[4], invalid[4], valid, idle, comma"
	parts := serwb.Parts{
		hwlib.UpConverter(8, code8b10b.GroupBits)("in=in, out=raw, valid=v0"),
		hwlib.Register(code8b10b.GroupBits)("in=raw, load=v0, out=sync"),
		hwlib.DFF("in=v0, out=v1"),
		hwlib.DFF("in=v1, out=v2"),
		hwlib.DFF("in=v2, out=v3"),
		hwlib.DFF("in=v3, out=valid"),
		hwlib.BitSlip(code8b10b.GroupBits)("in=sync, ce=v1, value=bitslip, out=aligned"),
		code8b10b.DecoderPart("in=aligned, ce=v3, d=d, k=k, invalid=invalid, idle=lane_idle"),
		hwlib.Eq(4, 0xF)("in=lane_idle, out=idle"),
		hwlib.Eq(4, 0)("in=lane_idle, out=no_idle"),
		hwlib.Eq(4, 0)("in=invalid, out=no_err"),
		hwlib.Eq(32, uint64(code8b10b.Comma.Data))("in=d, out=comma_d"),
		hwlib.Eq(4, uint64(code8b10b.Comma.Ctrl))("in=k, out=comma_k"),
		hwlib.AndNWay(4)("in0=comma_d, in1=comma_k, in2=no_err, in3=no_idle, out=comma"),
	}
	if ctrl != nil {
		inputs = "in[8], align_reset, align_inc, align_enable"
		outputs += ", bitslip[6], locked"
		parts = append(parts,
			hwlib.Not("in=no_err, out=err"),
			ctrl("valid=valid, comma=comma, invalid=err, idle=idle, reset=align_reset, inc=align_inc, enable=align_enable, value=bitslip, locked=locked"),
		)
	}
	return serwb.Chip("SERWBRX", serwb.In(inputs), serwb.Out(outputs), parts)
}

// RXPort holds the receiver outputs.
//
type RXPort struct {
	Data    uint32
	Ctrl    uint8
	Invalid uint8
	Valid   bool
	Idle    bool
	Comma   bool
}

// Word returns the decoded word.
//
func (p *RXPort) Word() code8b10b.Word {
	return code8b10b.Word{Data: p.Data, Ctrl: p.Ctrl}
}

// RX is a simulated receiver.
//
type RX struct {
	cfg Config
	log zerolog.Logger
	c   *serwb.Circuit

	in     byte
	slip   int
	port   RXPort
	locked bool

	// controller triggers for auto-aligned receivers
	alignReset, alignInc, alignEnable bool
}

// NewRX returns a new receiver. If cfg.AutoAlign is set, log is used by the
// bit-slip controller. Close must be called to release the simulator
// resources.
//
func NewRX(cfg Config, log zerolog.Logger) (*RX, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &RX{cfg: cfg, log: log, alignEnable: true}
	if err := r.build(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *RX) build() error {
	var (
		ctrl serwb.NewPartFn
		err  error
	)
	conns := "in=in, d=d, k=k, invalid=invalid, valid=valid, idle=idle, comma=comma"
	parts := serwb.Parts{
		hwlib.InputN(8, func() uint64 { return uint64(r.in) })("out=in"),
		hwlib.OutputN(32, func(v uint64) { r.port.Data = uint32(v) })("in=d"),
		hwlib.OutputN(4, func(v uint64) { r.port.Ctrl = uint8(v) })("in=k"),
		hwlib.OutputN(4, func(v uint64) { r.port.Invalid = uint8(v) })("in=invalid"),
		hwlib.Output(func(b bool) { r.port.Valid = b })("in=valid"),
		hwlib.Output(func(b bool) { r.port.Idle = b })("in=idle"),
		hwlib.Output(func(b bool) { r.port.Comma = b })("in=comma"),
	}
	if r.cfg.AutoAlign {
		ctrl, err = align.NewPart(r.cfg.Align, r.log)
		if err != nil {
			return errors.Wrap(err, "build receiver")
		}
		conns += ", align_reset=align_reset, align_inc=align_inc, align_enable=align_enable, bitslip=bitslip, locked=locked"
		parts = append(parts,
			hwlib.Input(func() bool { return r.alignReset })("out=align_reset"),
			hwlib.Input(func() bool { return r.alignInc })("out=align_inc"),
			hwlib.Input(func() bool { return r.alignEnable })("out=align_enable"),
			hwlib.OutputN(hwlib.SlipWidth, func(v uint64) { r.slip = int(v) })("in=bitslip"),
			hwlib.Output(func(b bool) { r.locked = b })("in=locked"),
		)
	} else {
		conns += ", bitslip=bitslip"
		parts = append(parts, hwlib.InputN(hwlib.SlipWidth, func() uint64 { return uint64(r.slip) })("out=bitslip"))
	}
	chip, err := RXChip(ctrl)
	if err != nil {
		return errors.Wrap(err, "build receiver")
	}
	parts = append(parts, chip(conns))
	c, err := serwb.NewCircuit(r.cfg.Workers, r.cfg.StepsPerCycle, parts)
	if err != nil {
		return errors.Wrap(err, "build receiver")
	}
	r.c = c
	return nil
}

// Step runs one clock cycle with b on the line input and returns the
// receiver outputs for that cycle. b is sampled at the start of the next
// cycle.
//
func (r *RX) Step(b byte) RXPort {
	r.in = b
	r.c.TickTock()
	r.alignReset, r.alignInc = false, false
	return r.port
}

// Port returns the receiver outputs during the last cycle.
//
func (r *RX) Port() RXPort { return r.port }

// In returns the last byte fed to the receiver.
//
func (r *RX) In() byte { return r.in }

// SetBitSlip sets the bit-slip offset. The new offset applies to the groups
// decoded from the second next cycle on. It fails if the offset is out of
// range or if the receiver runs its own controller.
//
func (r *RX) SetBitSlip(offset int) error {
	if r.cfg.AutoAlign {
		return ErrAutoAlign
	}
	if offset < 0 || offset >= code8b10b.GroupBits {
		return errors.Wrapf(ErrInvalidOffset, "offset %d", offset)
	}
	r.slip = offset
	return nil
}

// BitSlip returns the current bit-slip offset.
//
func (r *RX) BitSlip() int { return r.slip }

// Locked returns true if the embedded bit-slip controller is locked. It is
// always false for receivers without one.
//
func (r *RX) Locked() bool { return r.locked }

// ResetAlign pulses the reset trigger of the embedded controller during the
// next cycle.
//
func (r *RX) ResetAlign() { r.alignReset = true }

// IncrementAlign pulses the increment trigger of the embedded controller
// during the next cycle.
//
func (r *RX) IncrementAlign() { r.alignInc = true }

// EnableAlign sets the enable input of the embedded controller. It is
// enabled by default.
//
func (r *RX) EnableAlign(on bool) { r.alignEnable = on }

// Cycles returns the number of cycles run since the last reset.
//
func (r *RX) Cycles() uint64 { return r.c.Cycles() }

// Reset rebuilds the receiver. All state is lost: the decoder running
// disparity is unknown and the bit-slip offset goes back to 0.
//
func (r *RX) Reset() error {
	r.Close()
	r.in, r.slip, r.port, r.locked = 0, 0, RXPort{}, false
	r.alignReset, r.alignInc = false, false
	return r.build()
}

// Close releases the simulator resources.
//
func (r *RX) Close() {
	if r.c != nil {
		r.c.Dispose()
		r.c = nil
	}
}
