// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package code8b10b implements the 8b10b line code used on SerWB links.
//
// A Word is 32 bits of data plus one control flag per byte lane. It is
// encoded into a Group of four 10 bits symbols, lane 0 in the least
// significant bits. Within a symbol, bit 0 is the first bit on the wire.
//
// Encoder and Decoder track the running disparity across lanes and across
// words: lane 0 of a word follows lane 3 of the previous one.
//
package code8b10b

import (
	"github.com/pkg/errors"
)

// Symbol and group sizes.
const (
	SymbolBits = 10
	Lanes      = 4
	GroupBits  = SymbolBits * Lanes
)

// Control codes. All other bytes flagged as control are invalid.
const (
	K28_0 byte = 0x1C
	K28_1 byte = 0x3C
	K28_2 byte = 0x5C
	K28_3 byte = 0x7C
	K28_4 byte = 0x9C
	K28_5 byte = 0xBC // comma
	K28_6 byte = 0xDC
	K28_7 byte = 0xFC
	K23_7 byte = 0xF7
	K27_7 byte = 0xFB
	K29_7 byte = 0xFD
	K30_7 byte = 0xFE
)

// ErrInvalidControl is returned when encoding a byte flagged as control that
// is not one of the 12 control codes.
//
var ErrInvalidControl = errors.New("invalid control code")

// IsControl returns true if b is a valid control code.
//
func IsControl(b byte) bool {
	x, y := b&0x1f, b>>5
	return x == 28 || y == 7 && (x == 23 || x == 27 || x == 29 || x == 30)
}

// Disparity is the running disparity of a line.
//
type Disparity uint8

// Running disparity values.
const (
	Negative Disparity = iota
	Positive
)

func (d Disparity) String() string {
	if d == Negative {
		return "RD-"
	}
	return "RD+"
}

// A Symbol is a 10 bits line symbol.
//
type Symbol uint16

// IdleSymbol is sent when the line is idle. It is not part of the 8b10b
// alphabet.
//
const IdleSymbol Symbol = 0

// A Group is four symbols, lane 0 in bits [0, 10).
//
type Group uint64

// Lane returns the symbol of lane i.
//
func (g Group) Lane(i int) Symbol {
	return Symbol(g>>uint(i*SymbolBits)) & (1<<SymbolBits - 1)
}

// MakeGroup packs four symbols into a Group.
//
func MakeGroup(s [Lanes]Symbol) Group {
	var g Group
	for i, v := range s {
		g |= Group(v&(1<<SymbolBits-1)) << uint(i*SymbolBits)
	}
	return g
}

// A Word is the unit exchanged with the application: 4 bytes of data, lane 0
// in the least significant byte, and one control flag per lane.
//
type Word struct {
	Data uint32
	Ctrl uint8
}

// Lane returns the byte and control flag of lane i.
//
func (w Word) Lane(i int) (b byte, k bool) {
	return byte(w.Data >> uint(i*8)), w.Ctrl&(1<<uint(i)) != 0
}

// SetLane sets the byte and control flag of lane i.
//
func (w *Word) SetLane(i int, b byte, k bool) {
	sh := uint(i * 8)
	w.Data = w.Data&^(0xff<<sh) | uint32(b)<<sh
	if k {
		w.Ctrl |= 1 << uint(i)
	} else {
		w.Ctrl &^= 1 << uint(i)
	}
}

// Sent returns w as the Encoder sends it: control flags on lanes that do not
// carry a valid control code are cleared.
//
func (w Word) Sent() Word {
	for i := 0; i < Lanes; i++ {
		if b, k := w.Lane(i); k && !IsControl(b) {
			w.Ctrl &^= 1 << uint(i)
		}
	}
	return w
}

// Comma is the word used for link training: K28.5 on lane 0 and D0.0 on the
// other lanes.
//
var Comma = Word{Data: uint32(K28_5), Ctrl: 0x1}

// EncodeSymbol encodes b with running disparity rd and returns the symbol
// together with the new running disparity. If k is true and b is not a valid
// control code, it returns ErrInvalidControl.
//
func EncodeSymbol(b byte, k bool, rd Disparity) (Symbol, Disparity, error) {
	if k && !IsControl(b) {
		return 0, rd, errors.Wrapf(ErrInvalidControl, "K.%d.%d", b&0x1f, b>>5)
	}
	x, y := b&0x1f, b>>5

	c6 := code6b[x][rd]
	if k && x == 28 {
		c6 = k28code6b[rd]
	}
	rd6 := next(rd, c6, 6)

	var c4 uint8
	switch {
	case k:
		c4 = codeK4b[y][rd6]
	case y == 7 && useA7(x, rd6):
		c4 = codeK4b[7][rd6]
	default:
		c4 = code4b[y][rd6]
	}
	rd4 := next(rd6, c4, 4)

	return Symbol(reverse(c6, 6) | reverse(c4, 4)<<6), rd4, nil
}
