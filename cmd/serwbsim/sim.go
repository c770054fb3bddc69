// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"math/rand"
	"os"
	"sync/atomic"

	"github.com/BurntSushi/toml"
	"github.com/db47h/serwb/code8b10b"
	"github.com/db47h/serwb/config"
	"github.com/db47h/serwb/phy"
	"github.com/db47h/serwb/trace"
	"github.com/db47h/serwb/transport"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// control characters used in random payloads.
var controls = []byte{
	code8b10b.K28_0, code8b10b.K28_1, code8b10b.K28_2, code8b10b.K28_3,
	code8b10b.K28_4, code8b10b.K28_6, code8b10b.K28_7,
	code8b10b.K23_7, code8b10b.K27_7, code8b10b.K29_7, code8b10b.K30_7,
}

// payload returns n random words. About one word in eight carries a control
// character on one lane. The comma word is never generated.
//
func payload(seed int64, n int) []code8b10b.Word {
	r := rand.New(rand.NewSource(seed))
	ws := make([]code8b10b.Word, n)
	for i := range ws {
		w := code8b10b.Word{Data: r.Uint32()}
		if r.Intn(8) == 0 {
			w.SetLane(r.Intn(code8b10b.Lanes), controls[r.Intn(len(controls))], true)
		}
		ws[i] = w
	}
	return ws
}

type sim struct {
	cfg   config.Config
	log   zerolog.Logger
	trace *trace.Writer
	f     *os.File
}

func (s *sim) run() (err error) {
	if s.cfg.Trace.Path != "" {
		if err = s.openTrace(); err != nil {
			return err
		}
		defer func() {
			if cerr := s.closeTrace(); err == nil {
				err = cerr
			}
		}()
	}
	words := payload(s.cfg.Run.Seed, s.cfg.Run.Words)
	var got []code8b10b.Word
	if s.cfg.Run.FreeRunning {
		got, err = s.runFree(words)
	} else {
		got, err = s.runLockstep(words)
	}
	if err != nil {
		return err
	}
	return s.check(words, got)
}

func (s *sim) openTrace() error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(s.cfg); err != nil {
		return errors.Wrap(err, "encode trace header")
	}
	f, err := os.Create(s.cfg.Trace.Path)
	if err != nil {
		return errors.Wrap(err, "create trace")
	}
	w, err := trace.NewWriter(f, trace.Header{Version: trace.Version, Config: buf.String()})
	if err != nil {
		f.Close()
		return err
	}
	s.f, s.trace = f, w
	return nil
}

func (s *sim) closeTrace() error {
	err := s.trace.Close()
	if cerr := s.f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.Wrap(err, "close trace")
	}
	s.log.Info().Str("path", s.cfg.Trace.Path).Uint64("samples", s.trace.Count()).Msg("trace recorded")
	return nil
}

// maxCycles returns the time allowed to transfer n words after training.
//
func maxCycles(n int) int {
	return 2*n*code8b10b.GroupBits/8 + 1000
}

func (s *sim) runLockstep(words []code8b10b.Word) ([]code8b10b.Word, error) {
	line, err := transport.NewLoopback(s.cfg.Transport)
	if err != nil {
		return nil, err
	}
	l, err := phy.NewLink(s.cfg.Link, line, s.log)
	if err != nil {
		return nil, err
	}
	defer l.Close()
	if s.trace != nil {
		l.SetRecorder(s.trace)
	}
	if _, err = l.Train(s.cfg.Run.TrainCycles); err != nil {
		return nil, err
	}
	got, err := l.Transfer(words, maxCycles(len(words)))
	s.log.Info().Uint64("cycles", l.TX.Cycles()).Uint64("bit_errors", line.Errors()).Msg("lockstep run done")
	return got, err
}

// runFree always uses a receiver with an embedded bit-slip controller: the
// transmitter learns that the link is up through a flag set by the receiver
// goroutine.
//
func (s *sim) runFree(words []code8b10b.Word) ([]code8b10b.Word, error) {
	cfg := s.cfg.Link
	if !cfg.AutoAlign {
		s.log.Debug().Msg("free-running receiver uses auto-align")
		cfg.AutoAlign = true
	}
	line, err := transport.NewLoopback(s.cfg.Transport)
	if err != nil {
		return nil, err
	}
	tx, err := phy.NewTX(cfg)
	if err != nil {
		return nil, err
	}
	defer tx.Close()
	rx, err := phy.NewRX(cfg, s.log)
	if err != nil {
		return nil, err
	}
	defer rx.Close()

	var (
		locked atomic.Bool
		sender = phy.NewSender(words)
		got    = make([]code8b10b.Word, 0, len(words))
		limit  = uint64(s.cfg.Run.TrainCycles + maxCycles(len(words)))
	)
	next := func(ready bool) (phy.TXPort, error) {
		if !locked.Load() {
			return phy.TXPort{Comma: true}, nil
		}
		return sender.Next(ready), nil
	}
	sink := func(p phy.RXPort) error {
		n := rx.Cycles()
		if !locked.Load() {
			if rx.Locked() {
				s.log.Info().Uint64("cycles", n).Int("offset", rx.BitSlip()).Msg("link trained")
				locked.Store(true)
			} else if n >= uint64(s.cfg.Run.TrainCycles) {
				return errors.Wrapf(phy.ErrTimeout, "link training after %d cycles", n)
			}
		}
		if s.trace != nil {
			err := s.trace.Record(trace.Sample{
				Cycle:   n,
				RXByte:  rx.In(),
				Valid:   p.Valid,
				Data:    p.Data,
				Ctrl:    p.Ctrl,
				Invalid: p.Invalid,
				Idle:    p.Idle,
				Comma:   p.Comma,
				BitSlip: uint8(rx.BitSlip()),
				Locked:  rx.Locked(),
			})
			if err != nil {
				return err
			}
		}
		if locked.Load() && phy.IsData(p) {
			if got = append(got, p.Word()); len(got) == len(words) {
				return phy.ErrStop
			}
		}
		if n >= limit {
			return errors.Wrapf(phy.ErrTimeout, "%d words out of %d received after %d cycles", len(got), len(words), n)
		}
		return nil
	}
	if len(words) == 0 {
		sink = func(phy.RXPort) error {
			if rx.Locked() {
				s.log.Info().Uint64("cycles", rx.Cycles()).Int("offset", rx.BitSlip()).Msg("link trained")
				return phy.ErrStop
			}
			if rx.Cycles() >= uint64(s.cfg.Run.TrainCycles) {
				return errors.Wrapf(phy.ErrTimeout, "link training after %d cycles", rx.Cycles())
			}
			return nil
		}
	}

	p := transport.NewPipe(s.cfg.Transport.PipeDepth, line)
	if err = phy.RunFree(context.Background(), tx, rx, p, next, sink); err != nil {
		return got, err
	}
	s.log.Info().Uint64("tx_cycles", tx.Cycles()).Uint64("rx_cycles", rx.Cycles()).Uint64("bit_errors", line.Errors()).Msg("free-running run done")
	return got, nil
}

func (s *sim) check(words, got []code8b10b.Word) error {
	if phy.Digest(got) == phy.Digest(words) {
		s.log.Info().Int("words", len(words)).Msg("payload verified")
		return nil
	}
	bad := 0
	for i := range words {
		if i >= len(got) || got[i] != words[i] {
			bad++
		}
	}
	if s.cfg.Transport.BER > 0 {
		s.log.Warn().Int("words", len(words)).Int("corrupted", bad).Msg("payload corrupted by line errors")
		return nil
	}
	return errors.Errorf("payload mismatch: %d words out of %d differ", bad, len(words))
}
