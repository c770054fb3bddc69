// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package code8b10b

import "math/bits"

// Sub-block codes are written in transmission order, first bit (a or f) in
// the most significant position. Column 0 is used when the running
// disparity is negative, column 1 when it is positive.

// 5b/6b codes (abcdei) for D.x
var code6b = [32][2]uint8{
	{0b100111, 0b011000}, // D.00
	{0b011101, 0b100010}, // D.01
	{0b101101, 0b010010}, // D.02
	{0b110001, 0b110001}, // D.03
	{0b110101, 0b001010}, // D.04
	{0b101001, 0b101001}, // D.05
	{0b011001, 0b011001}, // D.06
	{0b111000, 0b000111}, // D.07
	{0b111001, 0b000110}, // D.08
	{0b100101, 0b100101}, // D.09
	{0b010101, 0b010101}, // D.10
	{0b110100, 0b110100}, // D.11
	{0b001101, 0b001101}, // D.12
	{0b101100, 0b101100}, // D.13
	{0b011100, 0b011100}, // D.14
	{0b010111, 0b101000}, // D.15
	{0b011011, 0b100100}, // D.16
	{0b100011, 0b100011}, // D.17
	{0b010011, 0b010011}, // D.18
	{0b110010, 0b110010}, // D.19
	{0b001011, 0b001011}, // D.20
	{0b101010, 0b101010}, // D.21
	{0b011010, 0b011010}, // D.22
	{0b111010, 0b000101}, // D.23
	{0b110011, 0b001100}, // D.24
	{0b100110, 0b100110}, // D.25
	{0b010110, 0b010110}, // D.26
	{0b110110, 0b001001}, // D.27
	{0b001110, 0b001110}, // D.28
	{0b101110, 0b010001}, // D.29
	{0b011110, 0b100001}, // D.30
	{0b101011, 0b010100}, // D.31
}

// 5b/6b code for K.28
var k28code6b = [2]uint8{0b001111, 0b110000}

// 3b/4b codes (fghj) for D.x.y. D.x.7 is the primary encoding (P7).
var code4b = [8][2]uint8{
	{0b1011, 0b0100}, // D.x.0
	{0b1001, 0b1001}, // D.x.1
	{0b0101, 0b0101}, // D.x.2
	{0b1100, 0b0011}, // D.x.3
	{0b1101, 0b0010}, // D.x.4
	{0b1010, 0b1010}, // D.x.5
	{0b0110, 0b0110}, // D.x.6
	{0b1110, 0b0001}, // D.x.P7
}

// 3b/4b codes for K.x.y. K.x.7 doubles as the alternate D.x.A7 encoding.
var codeK4b = [8][2]uint8{
	{0b1011, 0b0100}, // K.x.0
	{0b0110, 0b1001}, // K.x.1
	{0b1010, 0b0101}, // K.x.2
	{0b1100, 0b0011}, // K.x.3
	{0b1101, 0b0010}, // K.x.4
	{0b0101, 0b1010}, // K.x.5
	{0b1001, 0b0110}, // K.x.6
	{0b0111, 0b1000}, // K.x.7
}

// useA7 reports whether D.x.7 must use the alternate encoding to avoid a run
// of five identical bits across the sub-block boundary.
func useA7(x uint8, rd Disparity) bool {
	if rd == Negative {
		return x == 17 || x == 18 || x == 20
	}
	return x == 11 || x == 13 || x == 14
}

// reverse returns the n low bits of v in reverse order.
func reverse(v uint8, n int) uint16 {
	return uint16(bits.Reverse8(v) >> uint(8-n))
}

// next returns the running disparity after sending the n bits wide sub-block
// code with running disparity rd.
func next(rd Disparity, code uint8, n int) Disparity {
	switch ones := bits.OnesCount8(code); {
	case ones*2 > n:
		return Positive
	case ones*2 < n:
		return Negative
	}
	return rd
}

// decoding table entry
type entry struct {
	used  bool
	b     byte
	k     bool
	valid [2]bool      // legal with a negative / positive running disparity
	next  [2]Disparity // running disparity after the symbol
}

var decodeTable [1 << SymbolBits]entry

func init() {
	add := func(b byte, k bool) {
		for _, rd := range [2]Disparity{Negative, Positive} {
			s, n, err := EncodeSymbol(b, k, rd)
			if err != nil {
				continue
			}
			e := &decodeTable[s]
			if e.used && (e.b != b || e.k != k) {
				// 8b10b codes are unique. Keep the first mapping.
				continue
			}
			e.used, e.b, e.k = true, b, k
			e.valid[rd] = true
			e.next[rd] = n
		}
	}
	for i := 0; i < 256; i++ {
		add(byte(i), false)
		if IsControl(byte(i)) {
			add(byte(i), true)
		}
	}
}
