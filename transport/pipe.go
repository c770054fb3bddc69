// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package transport

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// ErrClosed is returned by Pipe operations once the pipe is closed.
//
var ErrClosed = errors.New("transport closed")

// Pipe connects two clock domains running in separate goroutines. The
// sender blocks when depth bytes are in flight and the receiver blocks
// when the pipe is empty.
//
// Bytes go through the line model given to NewPipe, if any, before entering
// the pipe.
//
type Pipe struct {
	c    chan byte
	line Transport
	done chan struct{}
	once sync.Once
}

// NewPipe returns a new Pipe. line may be nil.
//
func NewPipe(depth int, line Transport) *Pipe {
	if depth < 1 {
		depth = 1
	}
	return &Pipe{
		c:    make(chan byte, depth),
		line: line,
		done: make(chan struct{}),
	}
}

// Send sends b. It must not be called concurrently.
//
func (p *Pipe) Send(ctx context.Context, b byte) error {
	if p.line != nil {
		p.line.Send(b)
		b = p.line.Recv()
	}
	select {
	case <-p.done:
		return ErrClosed
	default:
	}
	select {
	case p.c <- b:
		return nil
	case <-p.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recv returns the next byte. Bytes sent before Close are still delivered.
//
func (p *Pipe) Recv(ctx context.Context) (byte, error) {
	select {
	case b := <-p.c:
		return b, nil
	default:
	}
	select {
	case b := <-p.c:
		return b, nil
	case <-p.done:
		select {
		case b := <-p.c:
			return b, nil
		default:
			return 0, ErrClosed
		}
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Close closes the pipe. It is safe to call Close more than once.
//
func (p *Pipe) Close() {
	p.once.Do(func() { close(p.done) })
}
