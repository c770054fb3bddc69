// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package phy

import (
	"context"
	"encoding/binary"

	"github.com/db47h/serwb/code8b10b"
	"github.com/db47h/serwb/transport"
	"github.com/pkg/errors"
	"github.com/zeebo/blake3"
	"golang.org/x/sync/errgroup"
)

// ErrStop can be returned by RunFree callbacks to stop both clock domains
// without error.
//
var ErrStop = errors.New("stop")

// RunFree runs tx and rx in their own goroutine, connected by p.
//
// Before every transmitter cycle, next is called with the state of the
// ready signal during the previous cycle and returns the transmitter
// inputs. After every receiver cycle, sink is called with the receiver
// outputs.
//
// RunFree returns when ctx is done, or when next or sink return an error.
// ErrStop stops both domains and RunFree returns nil. p is closed on return.
//
func RunFree(ctx context.Context, tx *TX, rx *RX, p *transport.Pipe, next func(ready bool) (TXPort, error), sink func(RXPort) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			port, err := next(tx.Ready())
			if err != nil {
				return err
			}
			tx.Present(port)
			if err = p.Send(ctx, tx.Step()); err != nil {
				return err
			}
		}
	})
	g.Go(func() error {
		for {
			b, err := p.Recv(ctx)
			if err != nil {
				return err
			}
			if err = sink(rx.Step(b)); err != nil {
				return err
			}
		}
	})
	err := g.Wait()
	p.Close()
	if errors.Cause(err) == ErrStop {
		return nil
	}
	return err
}

// Digest returns the BLAKE3 hash of a word sequence. Each word is hashed as
// its 4 data bytes, least significant first, followed by its control flags.
//
func Digest(words []code8b10b.Word) [32]byte {
	h := blake3.New()
	var buf [5]byte
	for _, w := range words {
		binary.LittleEndian.PutUint32(buf[:], w.Data)
		buf[4] = w.Ctrl
		_, _ = h.Write(buf[:])
	}
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}
