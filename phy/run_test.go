// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package phy_test

import (
	"context"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/db47h/serwb/code8b10b"
	"github.com/db47h/serwb/phy"
	"github.com/db47h/serwb/transport"
	"github.com/rs/zerolog"
)

func TestRunFree(t *testing.T) {
	for _, d := range []struct{ bytes, bits int }{{0, 0}, {1, 1}, {3, 6}} {
		tc := transport.DefaultConfig()
		tc.ByteDelay, tc.BitDelay = d.bytes, d.bits
		runFree(t, tc, int64(19+d.bits))
	}
}

func runFree(t *testing.T, tc transport.Config, seed int64) {
	t.Helper()
	cfg := phy.DefaultConfig()
	cfg.AutoAlign = true
	tx, err := phy.NewTX(cfg)
	trace(t, err)
	defer tx.Close()
	rx, err := phy.NewRX(cfg, zerolog.Nop())
	trace(t, err)
	defer rx.Close()

	line, err := transport.NewLoopback(tc)
	trace(t, err)
	p := transport.NewPipe(tc.PipeDepth, line)

	words := randWords(rand.New(rand.NewSource(seed)), 200)
	var (
		locked atomic.Bool
		s      = phy.NewSender(words)
		got    []code8b10b.Word
	)
	next := func(ready bool) (phy.TXPort, error) {
		if !locked.Load() {
			return phy.TXPort{Comma: true}, nil
		}
		return s.Next(ready), nil
	}
	sink := func(rp phy.RXPort) error {
		if rx.Locked() {
			locked.Store(true)
		}
		// groups decoded before lock are misaligned
		if locked.Load() && phy.IsData(rp) {
			got = append(got, rp.Word())
		}
		if len(got) == len(words) {
			return phy.ErrStop
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	trace(t, phy.RunFree(ctx, tx, rx, p, next, sink))

	if phy.Digest(got) != phy.Digest(words) {
		t.Fatalf("delay %d: digest mismatch", tc.Delay())
	}
	if exp := tc.Delay() % code8b10b.GroupBits; rx.BitSlip() != exp {
		t.Fatalf("delay %d: expected offset %d, got %d", tc.Delay(), exp, rx.BitSlip())
	}
}

func TestRunFreeCancel(t *testing.T) {
	cfg := phy.DefaultConfig()
	tx, err := phy.NewTX(cfg)
	trace(t, err)
	defer tx.Close()
	rx, err := phy.NewRX(cfg, zerolog.Nop())
	trace(t, err)
	defer rx.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = phy.RunFree(ctx, tx, rx, transport.NewPipe(4, nil),
		func(bool) (phy.TXPort, error) { return phy.TXPort{Idle: true}, nil },
		func(phy.RXPort) error { return nil })
	if err != context.DeadlineExceeded {
		t.Fatalf("expected deadline error, got %v", err)
	}
}
