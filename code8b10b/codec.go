// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package code8b10b

// Encoder encodes words into symbol groups. The zero value is an encoder
// with a negative running disparity, the state after a link reset.
//
type Encoder struct {
	rd Disparity
}

// Disparity returns the current running disparity.
//
func (e *Encoder) Disparity() Disparity { return e.rd }

// Reset resets the running disparity.
//
func (e *Encoder) Reset() { e.rd = Negative }

// Encode encodes w. Lanes flagged as control that do not carry a valid
// control code are sent as data.
//
func (e *Encoder) Encode(w Word) Group {
	var s [Lanes]Symbol
	for i := range s {
		b, k := w.Lane(i)
		sym, rd, err := EncodeSymbol(b, k, e.rd)
		if err != nil {
			sym, rd, _ = EncodeSymbol(b, false, e.rd)
		}
		s[i], e.rd = sym, rd
	}
	return MakeGroup(s)
}

// Result is the outcome of decoding a group.
//
type Result struct {
	Word
	// Invalid has bit i set when lane i carried a symbol outside the 8b10b
	// alphabet or a symbol illegal for the current running disparity. The
	// byte decoded on such a lane is unreliable.
	Invalid uint8
	// Idle has bit i set when lane i carried the idle symbol. Idle lanes
	// decode as D0.0.
	Idle uint8
}

// Decoder decodes symbol groups. The running disparity is unknown until the
// first unbalanced symbol is received, and becomes unknown again after an
// idle or out of alphabet symbol. The zero value is ready to use.
//
type Decoder struct {
	rd    Disparity
	known bool
}

// Disparity returns the current running disparity and whether it is known.
//
func (d *Decoder) Disparity() (Disparity, bool) { return d.rd, d.known }

// Reset forgets the running disparity.
//
func (d *Decoder) Reset() { d.rd, d.known = Negative, false }

// Decode decodes g.
//
func (d *Decoder) Decode(g Group) Result {
	var r Result
	for i := 0; i < Lanes; i++ {
		b, k, ok := d.DecodeSymbol(g.Lane(i))
		r.SetLane(i, b, k)
		switch {
		case g.Lane(i) == IdleSymbol:
			r.Idle |= 1 << uint(i)
		case !ok:
			r.Invalid |= 1 << uint(i)
		}
	}
	return r
}

// DecodeSymbol decodes a single symbol and updates the running disparity.
// ok is false if the symbol is not in the alphabet or violates the running
// disparity. The idle symbol decodes as D0.0 with ok set.
//
func (d *Decoder) DecodeSymbol(s Symbol) (b byte, k bool, ok bool) {
	if s == IdleSymbol {
		d.known = false
		return 0, false, true
	}
	e := &decodeTable[s&(1<<SymbolBits-1)]
	if !e.used {
		d.known = false
		return 0, false, false
	}
	switch {
	case !d.known:
		if e.valid[Negative] && e.valid[Positive] {
			// balanced symbol, still no clue.
			return e.b, e.k, true
		}
		rd := Negative
		if e.valid[Positive] {
			rd = Positive
		}
		d.rd, d.known = e.next[rd], true
	case !e.valid[d.rd]:
		// disparity error: resync on the received symbol.
		d.rd = e.next[d.rd^1]
		return e.b, e.k, false
	default:
		d.rd = e.next[d.rd]
	}
	return e.b, e.k, true
}
