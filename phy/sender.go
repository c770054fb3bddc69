// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package phy

import "github.com/db47h/serwb/code8b10b"

// Sender feeds a word sequence to a transmitter. It presents the same word
// until the transmitter ready signal reports that it has been taken, then
// moves to the next one. Once all words are taken, it presents idle groups.
//
type Sender struct {
	words []code8b10b.Word
	sent  int
	// index of the word presented during the last cycles, -1 if none.
	hist [TXReadyLatency + 1]int
}

// NewSender returns a new Sender for words.
//
func NewSender(words []code8b10b.Word) *Sender {
	s := &Sender{words: words}
	for i := range s.hist {
		s.hist[i] = -1
	}
	return s
}

// Next returns the transmitter inputs for the next cycle. ready is the state
// of the transmitter ready output during the previous cycle.
//
func (s *Sender) Next(ready bool) TXPort {
	if ready && s.hist[TXReadyLatency] >= 0 {
		s.sent = s.hist[TXReadyLatency] + 1
	}
	copy(s.hist[1:], s.hist[:])
	if s.sent >= len(s.words) {
		s.hist[0] = -1
		return TXPort{Idle: true}
	}
	s.hist[0] = s.sent
	w := s.words[s.sent]
	return TXPort{Data: w.Data, Ctrl: w.Ctrl}
}

// Sent returns the number of words taken by the transmitter.
//
func (s *Sender) Sent() int { return s.sent }

// Done returns true once all words have been taken.
//
func (s *Sender) Done() bool { return s.sent >= len(s.words) }

// IsData returns true if p holds a newly decoded group that is neither idle
// nor a comma.
//
func IsData(p RXPort) bool {
	return p.Valid && !p.Idle && !p.Comma
}
