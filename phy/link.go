// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package phy

import (
	"github.com/db47h/serwb/align"
	"github.com/db47h/serwb/code8b10b"
	"github.com/db47h/serwb/trace"
	"github.com/db47h/serwb/transport"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ErrTimeout is returned by Link operations that did not complete in the
// allotted number of cycles.
//
var ErrTimeout = errors.New("timeout")

// ErrCommaWord is returned by Transfer for words sent as the comma word.
//
var ErrCommaWord = errors.New("word sent as a comma")

// A Recorder records link samples.
//
type Recorder interface {
	Record(trace.Sample) error
}

// Link is a transmitter and a receiver connected by a line and run in
// lockstep: every call to Step runs one cycle of each.
//
// Unless the receiver embeds its own controller, the Link drives the
// receiver bit-slip offset from an align.Controller.
//
type Link struct {
	TX   *TX
	RX   *RX
	line transport.Transport
	ctrl *align.Controller
	log  zerolog.Logger
	rec  Recorder
}

// NewLink returns a new Link. Close must be called to release the simulator
// resources.
//
func NewLink(cfg Config, line transport.Transport, log zerolog.Logger) (*Link, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	l := &Link{line: line, log: log}
	var err error
	if !cfg.AutoAlign {
		if l.ctrl, err = align.New(cfg.Align, log); err != nil {
			return nil, err
		}
	}
	if l.TX, err = NewTX(cfg); err != nil {
		return nil, err
	}
	if l.RX, err = NewRX(cfg, log); err != nil {
		l.TX.Close()
		return nil, err
	}
	return l, nil
}

// SetRecorder sets a recorder that gets a sample every cycle. r may be nil.
//
func (l *Link) SetRecorder(r Recorder) { l.rec = r }

// Controller returns the bit-slip controller run by the Link, or nil if the
// receiver embeds its own.
//
func (l *Link) Controller() *align.Controller { return l.ctrl }

// Locked returns true if the bit-slip controller is locked.
//
func (l *Link) Locked() bool {
	if l.ctrl != nil {
		return l.ctrl.State() == align.Locked
	}
	return l.RX.Locked()
}

// Step runs one clock cycle with p on the transmitter inputs and returns the
// receiver outputs. An error is returned only if the recorder fails.
//
func (l *Link) Step(p TXPort) (RXPort, error) {
	l.TX.Present(p)
	tb := l.TX.Step()
	l.line.Send(tb)
	rb := l.line.Recv()
	rp := l.RX.Step(rb)
	if l.ctrl != nil && rp.Valid {
		s := align.Sample{Comma: rp.Comma, Invalid: rp.Invalid != 0, Idle: rp.Idle}
		if l.ctrl.Observe(s) {
			if err := l.RX.SetBitSlip(l.ctrl.Offset()); err != nil {
				panic(err)
			}
		}
	}
	if l.rec != nil {
		err := l.rec.Record(trace.Sample{
			Cycle:   l.TX.Cycles(),
			TXByte:  tb,
			RXByte:  rb,
			Ready:   l.TX.Ready(),
			Valid:   rp.Valid,
			Data:    rp.Data,
			Ctrl:    rp.Ctrl,
			Invalid: rp.Invalid,
			Idle:    rp.Idle,
			Comma:   rp.Comma,
			BitSlip: uint8(l.RX.BitSlip()),
			Locked:  l.Locked(),
		})
		if err != nil {
			return rp, err
		}
	}
	return rp, nil
}

// Train sends comma words until the bit-slip controller locks. It returns
// the number of cycles run.
//
func (l *Link) Train(maxCycles int) (int, error) {
	for n := 1; n <= maxCycles; n++ {
		if _, err := l.Step(TXPort{Comma: true}); err != nil {
			return n, err
		}
		if l.Locked() {
			l.log.Info().Int("cycles", n).Int("offset", l.RX.BitSlip()).Msg("link trained")
			return n, nil
		}
	}
	return maxCycles, errors.Wrapf(ErrTimeout, "link training after %d cycles", maxCycles)
}

// Transfer sends words over the link and returns the data words received,
// in order. Comma and idle groups are not returned, so words must not be
// sent as the comma word (see TXPort); Transfer fails with ErrCommaWord
// before sending anything if one is. The transmitter goes idle once all
// words are sent.
//
// Transfer returns when as many words as sent have been received, or after
// maxCycles cycles with ErrTimeout.
//
func (l *Link) Transfer(words []code8b10b.Word, maxCycles int) ([]code8b10b.Word, error) {
	var (
		s   = NewSender(words)
		got = make([]code8b10b.Word, 0, len(words))
		bad int
	)
	for i, w := range words {
		if w.Sent() == code8b10b.Comma {
			return got, errors.Wrapf(ErrCommaWord, "word %d %+v", i, w)
		}
	}
	if len(words) == 0 {
		return got, nil
	}
	for n := 0; n < maxCycles; n++ {
		rp, err := l.Step(s.Next(l.TX.Ready()))
		if err != nil {
			return got, err
		}
		if !IsData(rp) {
			continue
		}
		if rp.Invalid != 0 {
			bad++
		}
		if got = append(got, rp.Word()); len(got) == len(words) {
			if bad > 0 {
				l.log.Warn().Int("words", len(got)).Int("invalid", bad).Msg("transfer completed with errors")
			}
			return got, nil
		}
	}
	return got, errors.Wrapf(ErrTimeout, "%d words out of %d received after %d cycles", len(got), len(words), maxCycles)
}

// Reset rebuilds both ends of the link and resets the controller.
//
func (l *Link) Reset() error {
	if err := l.TX.Reset(); err != nil {
		return err
	}
	if err := l.RX.Reset(); err != nil {
		return err
	}
	if l.ctrl != nil {
		l.ctrl.Reset()
	}
	return nil
}

// Close releases the simulator resources.
//
func (l *Link) Close() {
	l.TX.Close()
	l.RX.Close()
}
