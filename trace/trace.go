// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package trace records the per-cycle state of a simulated link.
//
// A trace is a zstd compressed stream of CBOR items: a Header followed by one
// Sample per clock cycle.
//
package trace

import (
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// Version is the trace format version.
//
const Version = 1

// Header is the first item of a trace.
//
type Header struct {
	Version int    `cbor:"1,keyasint"`
	Config  string `cbor:"2,keyasint,omitempty"` // free form description of the link
}

// Sample is the state of a link during one clock cycle.
//
type Sample struct {
	Cycle   uint64 `cbor:"1,keyasint"`
	TXByte  uint8  `cbor:"2,keyasint"`
	RXByte  uint8  `cbor:"3,keyasint"`
	Ready   bool   `cbor:"4,keyasint,omitempty"`
	Valid   bool   `cbor:"5,keyasint,omitempty"`
	Data    uint32 `cbor:"6,keyasint,omitempty"`
	Ctrl    uint8  `cbor:"7,keyasint,omitempty"`
	Invalid uint8  `cbor:"8,keyasint,omitempty"`
	Idle    bool   `cbor:"9,keyasint,omitempty"`
	Comma   bool   `cbor:"10,keyasint,omitempty"`
	BitSlip uint8  `cbor:"11,keyasint"`
	Locked  bool   `cbor:"12,keyasint,omitempty"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("trace: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("trace: CBOR decoder initialization failed: " + err.Error())
	}
}

// Writer writes a trace.
//
type Writer struct {
	z   *zstd.Encoder
	enc *cbor.Encoder
	n   uint64
}

// NewWriter writes the trace header to w and returns a new Writer. Close must
// be called to flush the stream. It does not close w.
//
func NewWriter(w io.Writer, h Header) (*Writer, error) {
	z, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, errors.Wrap(err, "trace")
	}
	tw := &Writer{z: z, enc: encMode.NewEncoder(z)}
	h.Version = Version
	if err = tw.enc.Encode(&h); err != nil {
		z.Close()
		return nil, errors.Wrap(err, "trace header")
	}
	return tw, nil
}

// Record appends s to the trace.
//
func (w *Writer) Record(s Sample) error {
	if err := w.enc.Encode(&s); err != nil {
		return errors.Wrapf(err, "trace sample %d", w.n)
	}
	w.n++
	return nil
}

// Count returns the number of samples written.
//
func (w *Writer) Count() uint64 { return w.n }

// Close flushes the trace.
//
func (w *Writer) Close() error {
	return errors.Wrap(w.z.Close(), "trace")
}

// Reader reads a trace.
//
type Reader struct {
	z   *zstd.Decoder
	dec *cbor.Decoder
	h   Header
}

// NewReader reads the trace header from r and returns a new Reader.
//
func NewReader(r io.Reader) (*Reader, error) {
	z, err := zstd.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "trace")
	}
	tr := &Reader{z: z, dec: decMode.NewDecoder(z)}
	if err = tr.dec.Decode(&tr.h); err != nil {
		z.Close()
		return nil, errors.Wrap(err, "trace header")
	}
	if tr.h.Version != Version {
		z.Close()
		return nil, errors.Errorf("unsupported trace version %d", tr.h.Version)
	}
	return tr, nil
}

// Header returns the trace header.
//
func (r *Reader) Header() Header { return r.h }

// Next returns the next sample. It returns io.EOF at the end of the trace.
//
func (r *Reader) Next() (Sample, error) {
	var s Sample
	err := r.dec.Decode(&s)
	if err == io.EOF {
		return s, err
	}
	return s, errors.Wrap(err, "trace sample")
}

// Close releases the resources used by r.
//
func (r *Reader) Close() {
	r.z.Close()
}
