// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package phy_test

import (
	"math/rand"
	"testing"

	"github.com/db47h/serwb"
	"github.com/db47h/serwb/code8b10b"
	"github.com/db47h/serwb/hwlib"
	"github.com/db47h/serwb/phy"
	"github.com/db47h/serwb/transport"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

func trace(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("%+v", err)
	}
}

func randWords(r *rand.Rand, n int) []code8b10b.Word {
	ws := make([]code8b10b.Word, n)
	for i := range ws {
		ws[i] = code8b10b.Word{Data: r.Uint32()}
		if r.Intn(8) == 0 {
			ws[i].SetLane(r.Intn(4), code8b10b.K28_1, true)
		}
	}
	return ws
}

func newLink(t *testing.T, cfg phy.Config, tc transport.Config) *phy.Link {
	t.Helper()
	line, err := transport.NewLoopback(tc)
	trace(t, err)
	l, err := phy.NewLink(cfg, line, zerolog.Nop())
	trace(t, err)
	return l
}

func TestTXReadyLatency(t *testing.T) {
	tx, err := phy.NewTX(phy.DefaultConfig())
	trace(t, err)
	defer tx.Close()

	const cycles = 200
	var (
		words = make([]code8b10b.Word, cycles)
		out   = make([]byte, cycles)
		ready []int
	)
	r := rand.New(rand.NewSource(5))
	for i := range words {
		words[i] = randWords(r, 1)[0]
		tx.Present(phy.TXPort{Data: words[i].Data, Ctrl: words[i].Ctrl})
		out[i] = tx.Step()
		if tx.Ready() {
			ready = append(ready, i)
		}
	}

	if len(ready) < 2 || ready[0] != 5 {
		t.Fatalf("bad ready cycles %v", ready)
	}
	var dec code8b10b.Decoder
	for n, rc := range ready {
		if n > 0 && rc-ready[n-1] != 5 {
			t.Fatalf("ready at cycles %d and %d", ready[n-1], rc)
		}
		if rc+3 >= cycles {
			break
		}
		var g uint64
		for i := 0; i < 5; i++ {
			g |= uint64(out[rc-1+i]) << uint(8*i)
		}
		res := dec.Decode(code8b10b.Group(g))
		if w := words[rc-phy.TXReadyLatency]; res.Word != w || res.Invalid != 0 {
			t.Fatalf("ready at cycle %d: expected %+v, got %+v", rc, w, res)
		}
	}
}

func TestRXValidLatency(t *testing.T) {
	var (
		in    uint64
		v0, v bool
		first = -1
	)
	rx, err := phy.RXChip(nil)
	trace(t, err)
	c, err := serwb.NewCircuit(1, 8, serwb.Parts{
		hwlib.InputN(8, func() uint64 { return in })("out=in"),
		hwlib.UpConverter(8, code8b10b.GroupBits)("in=in, valid=v0"),
		hwlib.Output(func(b bool) { v0 = b })("in=v0"),
		rx("in=in, valid=valid"),
		hwlib.Output(func(b bool) { v = b })("in=valid"),
	})
	trace(t, err)
	defer c.Dispose()

	var conv []int
	r := rand.New(rand.NewSource(9))
	for i := 0; i < 100; i++ {
		in = uint64(r.Intn(256))
		c.TickTock()
		if v0 {
			conv = append(conv, i)
		}
		if v {
			if first < 0 {
				first = i
			}
			found := false
			for _, cv := range conv {
				if cv == i-phy.RXValidLatency {
					found = true
				}
			}
			if !found {
				t.Fatalf("valid at cycle %d, converter valid at %v", i, conv)
			}
		}
	}
	if first != conv[0]+phy.RXValidLatency {
		t.Fatalf("first valid at %d, converter valid at %d", first, conv[0])
	}
}

func TestRoundTrip(t *testing.T) {
	l := newLink(t, phy.DefaultConfig(), transport.DefaultConfig())
	defer l.Close()

	_, err := l.Train(2000)
	trace(t, err)
	if l.RX.BitSlip() != 0 {
		t.Fatalf("expected offset 0, got %d", l.RX.BitSlip())
	}
	words := randWords(rand.New(rand.NewSource(11)), 500)
	got, err := l.Transfer(words, len(words)*5+100)
	trace(t, err)
	for i := range words {
		if got[i] != words[i] {
			t.Fatalf("word %d: sent %+v, got %+v", i, words[i], got[i])
		}
	}
	if phy.Digest(got) != phy.Digest(words) {
		t.Fatal("digest mismatch")
	}
}

func TestConvergence(t *testing.T) {
	maxBytes := 6
	if testing.Short() {
		maxBytes = 1
	}
	cfg := phy.DefaultConfig()
	for bd := 0; bd < maxBytes; bd++ {
		for b := 0; b < 8; b++ {
			tc := transport.DefaultConfig()
			tc.ByteDelay, tc.BitDelay = bd, b
			l := newLink(t, cfg, tc)
			n, err := l.Train(5000)
			if err != nil {
				l.Close()
				t.Fatalf("delay %d: %+v", tc.Delay(), err)
			}
			if exp := tc.Delay() % code8b10b.GroupBits; l.RX.BitSlip() != exp {
				l.Close()
				t.Fatalf("delay %d: expected offset %d, got %d", tc.Delay(), exp, l.RX.BitSlip())
			}
			// comma holds
			groups := 0
			for groups < 20 {
				p, err := l.Step(phy.TXPort{Comma: true})
				trace(t, err)
				if !p.Valid {
					continue
				}
				groups++
				if !p.Comma || p.Invalid != 0 || p.Idle {
					l.Close()
					t.Fatalf("delay %d: bad group after lock: %+v", tc.Delay(), p)
				}
			}
			t.Logf("delay %d: locked in %d cycles", tc.Delay(), n)
			l.Close()
		}
	}
}

func TestAutoAlign(t *testing.T) {
	cfg := phy.DefaultConfig()
	cfg.AutoAlign = true
	tc := transport.DefaultConfig()
	tc.ByteDelay, tc.BitDelay = 2, 5
	l := newLink(t, cfg, tc)
	defer l.Close()
	if l.Controller() != nil {
		t.Fatal("link runs its own controller")
	}

	_, err := l.Train(5000)
	trace(t, err)
	if exp := tc.Delay() % code8b10b.GroupBits; l.RX.BitSlip() != exp {
		t.Fatalf("expected offset %d, got %d", exp, l.RX.BitSlip())
	}
	if err = l.RX.SetBitSlip(3); errors.Cause(err) != phy.ErrAutoAlign {
		t.Fatalf("expected ErrAutoAlign, got %v", err)
	}

	words := randWords(rand.New(rand.NewSource(13)), 100)
	got, err := l.Transfer(words, len(words)*5+100)
	trace(t, err)
	if phy.Digest(got) != phy.Digest(words) {
		t.Fatal("digest mismatch")
	}

	// triggers
	l.RX.ResetAlign()
	l.Step(phy.TXPort{Idle: true})
	l.Step(phy.TXPort{Idle: true})
	if l.RX.BitSlip() != 0 || l.RX.Locked() {
		t.Fatalf("controller not reset: offset %d, locked %v", l.RX.BitSlip(), l.RX.Locked())
	}
	l.RX.EnableAlign(false)
	l.RX.IncrementAlign()
	l.Step(phy.TXPort{Idle: true})
	l.Step(phy.TXPort{Idle: true})
	if l.RX.BitSlip() != 1 {
		t.Fatalf("expected offset 1, got %d", l.RX.BitSlip())
	}
}

func TestIdle(t *testing.T) {
	l := newLink(t, phy.DefaultConfig(), transport.DefaultConfig())
	defer l.Close()
	_, err := l.Train(2000)
	trace(t, err)

	idle := 0
	for i := 0; i < 50; i++ {
		p, err := l.Step(phy.TXPort{Data: 0xffffffff, Ctrl: 0xF, Idle: true})
		trace(t, err)
		if !p.Valid || !p.Idle {
			continue
		}
		idle++
		if p.Data != 0 || p.Ctrl != 0 || p.Invalid != 0 || p.Comma {
			t.Fatalf("bad idle group %+v", p)
		}
	}
	if idle < 5 {
		t.Fatalf("only %d idle groups", idle)
	}
	if !l.Locked() {
		t.Fatal("lock lost on idle groups")
	}
}

func TestNearComma(t *testing.T) {
	tc := transport.DefaultConfig()
	tc.ByteDelay, tc.BitDelay = 1, 3
	l := newLink(t, phy.DefaultConfig(), tc)
	defer l.Close()
	_, err := l.Train(5000)
	trace(t, err)

	td := []struct {
		name string
		w    code8b10b.Word
	}{
		{"data", code8b10b.Word{Data: 0xBC}},
		{"lane1", code8b10b.Word{Data: 0x01BC, Ctrl: 0x1}},
		{"lane3", code8b10b.Word{Data: 0xBC000000, Ctrl: 0x8}},
		{"k_lane3", code8b10b.Word{Data: 0x3C0000BC, Ctrl: 0x9}},
		{"k_all", code8b10b.Word{Data: 0xBCBCBCBC, Ctrl: 0xF}},
		{"zero", code8b10b.Word{}},
	}
	for _, d := range td {
		groups := 0
		for i := 0; i < 80; i++ {
			p, err := l.Step(phy.TXPort{Data: d.w.Data, Ctrl: d.w.Ctrl})
			trace(t, err)
			// flush the groups sent before
			if !p.Valid || i < 40 {
				continue
			}
			groups++
			if p.Comma || p.Idle || p.Invalid != 0 || p.Word() != d.w {
				t.Fatalf("%s: bad group %+v", d.name, p)
			}
		}
		if groups == 0 {
			t.Fatalf("%s: no valid group", d.name)
		}
	}
	if !l.Locked() {
		t.Fatal("lock lost")
	}
}

func TestCommaOverIdle(t *testing.T) {
	l := newLink(t, phy.DefaultConfig(), transport.DefaultConfig())
	defer l.Close()
	_, err := l.Train(2000)
	trace(t, err)
	groups := 0
	for i := 0; i < 80; i++ {
		p, err := l.Step(phy.TXPort{Idle: true, Comma: true})
		trace(t, err)
		if !p.Valid || i < 40 {
			continue
		}
		groups++
		if !p.Comma || p.Idle {
			t.Fatalf("bad group %+v", p)
		}
	}
	if groups == 0 {
		t.Fatal("no valid group")
	}
}

func TestTransferCommaWord(t *testing.T) {
	l := newLink(t, phy.DefaultConfig(), transport.DefaultConfig())
	defer l.Close()
	_, err := l.Train(2000)
	trace(t, err)
	cycles := l.TX.Cycles()
	for _, w := range []code8b10b.Word{code8b10b.Comma, {Data: 0xBC, Ctrl: 0x3}, {Data: 0xBC, Ctrl: 0x9}} {
		words := []code8b10b.Word{{Data: 1}, w}
		if _, err := l.Transfer(words, 1000); errors.Cause(err) != phy.ErrCommaWord {
			t.Fatalf("%+v: expected ErrCommaWord, got %v", w, err)
		}
	}
	if l.TX.Cycles() != cycles {
		t.Fatal("words sent")
	}

	// the same word on the wire is a comma
	groups := 0
	for i := 0; i < 80; i++ {
		p, err := l.Step(phy.TXPort{Data: 0xBC, Ctrl: 0x3})
		trace(t, err)
		if !p.Valid || i < 40 {
			continue
		}
		groups++
		if !p.Comma {
			t.Fatalf("bad group %+v", p)
		}
	}
	if groups == 0 {
		t.Fatal("no valid group")
	}
}

func TestInvalid(t *testing.T) {
	rx, err := phy.NewRX(phy.DefaultConfig(), zerolog.Nop())
	trace(t, err)
	defer rx.Close()
	groups := 0
	for i := 0; i < 100; i++ {
		p := rx.Step(0xff)
		if !p.Valid || i < 20 {
			continue
		}
		groups++
		if p.Invalid != 0xF || p.Comma || p.Idle || p.Data != 0 || p.Ctrl != 0 {
			t.Fatalf("cycle %d: bad group %+v", i, p)
		}
	}
	if groups == 0 {
		t.Fatal("no valid group")
	}
}

func TestBitErrors(t *testing.T) {
	l := newLink(t, phy.DefaultConfig(), transport.DefaultConfig())
	defer l.Close()
	_, err := l.Train(2000)
	trace(t, err)

	// flip one bit of the data stream
	words := randWords(rand.New(rand.NewSource(17)), 50)
	s := phy.NewSender(words)
	invalid := 0
	for i := 0; !s.Done() || i < 100; i++ {
		p := s.Next(l.TX.Ready())
		l.TX.Present(p)
		b := l.TX.Step()
		if i == 60 {
			b ^= 0x10
		}
		rp := l.RX.Step(b)
		if rp.Valid && rp.Invalid != 0 {
			invalid++
			if rp.Comma {
				t.Fatal("comma flagged on invalid group")
			}
		}
	}
	if invalid == 0 {
		t.Fatal("bit error not detected")
	}
}

func TestSetBitSlip(t *testing.T) {
	rx, err := phy.NewRX(phy.DefaultConfig(), zerolog.Nop())
	trace(t, err)
	defer rx.Close()
	for _, v := range []int{-1, code8b10b.GroupBits, 63} {
		if err := rx.SetBitSlip(v); errors.Cause(err) != phy.ErrInvalidOffset {
			t.Fatalf("offset %d: expected ErrInvalidOffset, got %v", v, err)
		}
	}
	trace(t, rx.SetBitSlip(39))
	if rx.BitSlip() != 39 {
		t.Fatalf("expected offset 39, got %d", rx.BitSlip())
	}
	trace(t, rx.Reset())
	if rx.BitSlip() != 0 || rx.Cycles() != 0 {
		t.Fatalf("bad state after reset: offset %d, %d cycles", rx.BitSlip(), rx.Cycles())
	}
}

func TestMasterClock(t *testing.T) {
	if _, err := phy.TXChip(true); err != nil {
		t.Fatalf("%+v", err)
	}
	cfg := phy.DefaultConfig()
	cfg.Master = true
	tx, err := phy.NewTX(cfg)
	trace(t, err)
	defer tx.Close()

	var bs []byte
	for i := 0; i < 20; i++ {
		tx.Step()
		bs = append(bs, tx.Clock())
	}
	bit := func(n int) byte { return bs[n/8] >> uint(n%8) & 1 }
	for n := 0; n+10 < len(bs)*8; n++ {
		if bit(n) != bit(n+10) {
			t.Fatalf("clock pattern not periodic at bit %d", n)
		}
	}
	ones := 0
	for n := 0; n < 10; n++ {
		ones += int(bit(n))
	}
	if ones != 5 {
		t.Fatalf("expected 5 ones per symbol, got %d", ones)
	}
}

func TestReset(t *testing.T) {
	tc := transport.DefaultConfig()
	tc.BitDelay = 3
	l := newLink(t, phy.DefaultConfig(), tc)
	defer l.Close()
	_, err := l.Train(2000)
	trace(t, err)
	trace(t, l.Reset())
	if l.Locked() || l.RX.BitSlip() != 0 || l.TX.Cycles() != 0 {
		t.Fatal("link not reset")
	}
	_, err = l.Train(2000)
	trace(t, err)
	if l.RX.BitSlip() != 3 {
		t.Fatalf("expected offset 3, got %d", l.RX.BitSlip())
	}
}

func TestConfig(t *testing.T) {
	cfg := phy.DefaultConfig()
	cfg.StepsPerCycle = 2
	if _, err := phy.NewTX(cfg); err == nil {
		t.Fatal("expected error")
	}
	cfg = phy.DefaultConfig()
	cfg.Align.Width = 32
	if _, err := phy.NewRX(cfg, zerolog.Nop()); err == nil {
		t.Fatal("expected error")
	}
}
