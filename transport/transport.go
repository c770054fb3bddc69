// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package transport models the serial line between a SerWB transmitter and
// receiver.
//
// The line carries one byte per clock cycle, bit 0 first. Loopback is a
// lockstep line with a configurable delay and bit error rate. Pipe connects
// two free-running clock domains.
//
package transport

import (
	"math/rand"

	"github.com/pkg/errors"
)

// Transport is a byte-wide serial line. In lockstep operation, Send and Recv
// are called once each per clock cycle.
//
type Transport interface {
	Send(b byte)
	Recv() byte
}

// Config configures a Loopback line.
//
type Config struct {
	// Whole bytes of delay.
	ByteDelay int `toml:"byte_delay"`
	// Extra delay in bits, in [0, 8).
	BitDelay int `toml:"bit_delay"`
	// Bit error rate in [0, 1].
	BER float64 `toml:"ber"`
	// Seed for the bit error generator.
	Seed int64 `toml:"seed"`
	// Depth of the channel between free-running clock domains.
	PipeDepth int `toml:"pipe_depth"`
}

// DefaultConfig returns the configuration of an ideal line.
//
func DefaultConfig() Config {
	return Config{Seed: 1, PipeDepth: 64}
}

// Validate checks that the configuration is usable.
//
func (c *Config) Validate() error {
	switch {
	case c.ByteDelay < 0:
		return errors.Errorf("negative byte delay %d", c.ByteDelay)
	case c.BitDelay < 0 || c.BitDelay > 7:
		return errors.Errorf("bit delay %d out of range [0, 8)", c.BitDelay)
	case c.BER < 0 || c.BER > 1:
		return errors.Errorf("bit error rate %g out of range [0, 1]", c.BER)
	case c.PipeDepth < 1:
		return errors.Errorf("invalid pipe depth %d", c.PipeDepth)
	}
	return nil
}

// Delay returns the total line delay in bits.
//
func (c *Config) Delay() int {
	return c.ByteDelay*8 + c.BitDelay
}

// Loopback is a lockstep Transport. The byte returned by Recv is made of the
// bits sent Delay() bits earlier. The line reads zero before anything has
// been sent.
//
type Loopback struct {
	q      []byte
	bits   uint
	prev   byte
	ber    float64
	rng    *rand.Rand
	errors uint64
}

// NewLoopback returns a new Loopback line.
//
func NewLoopback(cfg Config) (*Loopback, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "loopback")
	}
	return &Loopback{
		q:    make([]byte, cfg.ByteDelay, cfg.ByteDelay+1),
		bits: uint(cfg.BitDelay),
		ber:  cfg.BER,
		rng:  rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// Send implements Transport.
//
func (l *Loopback) Send(b byte) {
	l.q = append(l.q, b)
}

// Recv implements Transport. If nothing is left in the line, it returns a
// zero byte.
//
func (l *Loopback) Recv() byte {
	var cur byte
	if len(l.q) > 0 {
		cur = l.q[0]
		l.q = append(l.q[:0], l.q[1:]...)
	}
	b := cur<<l.bits | byte(uint16(l.prev)>>(8-l.bits))
	l.prev = cur
	if l.ber > 0 {
		for i := uint(0); i < 8; i++ {
			if l.rng.Float64() < l.ber {
				b ^= 1 << i
				l.errors++
			}
		}
	}
	return b
}

// Errors returns the number of bit errors injected so far.
//
func (l *Loopback) Errors() uint64 { return l.errors }
