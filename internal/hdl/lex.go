// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hdl

import (
	"strconv"
	"unicode"
	"unicode/utf8"
)

// Type is a token type.
//
type Type int

// Tokens
const (
	EOF Type = iota
	Raw
	Ident
	BracketOpen
	BracketClose
	Comma
	Int
	Equal
)

var typeNames = [...]string{
	EOF:          "end of input",
	Raw:          "character",
	Ident:        "identifier",
	BracketOpen:  "'['",
	BracketClose: "']'",
	Comma:        "','",
	Int:          "integer",
	Equal:        "'='",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "token(" + strconv.Itoa(int(t)) + ")"
}

// Item is a lexed token.
//
type Item struct {
	Type  Type
	Pos   int
	Value interface{}
}

func (i Item) String() string {
	switch i.Type {
	case Ident:
		return "identifier " + i.Value.(string)
	case Int:
		return "integer " + strconv.Itoa(i.Value.(int))
	case Raw:
		return strconv.QuoteRune(i.Value.(rune))
	}
	return i.Type.String()
}

// Lexer splits IO specs and connection strings into tokens.
//
type Lexer struct {
	input string
	pos   int
}

// NewLexer returns a new lexer for the given input.
//
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

func (l *Lexer) next() (rune, int) {
	if l.pos >= len(l.input) {
		return -1, 0
	}
	r, n := utf8.DecodeRuneInString(l.input[l.pos:])
	return r, n
}

// Lex returns the next token. Once the end of input has been reached, it
// returns EOF items forever.
//
func (l *Lexer) Lex() Item {
	r, n := l.next()
	for n > 0 && unicode.IsSpace(r) {
		l.pos += n
		r, n = l.next()
	}
	start := l.pos
	if n == 0 {
		return Item{EOF, start, nil}
	}
	l.pos += n
	switch {
	case unicode.IsLetter(r) || r == '_':
		for {
			r, n = l.next()
			if n == 0 || !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
				break
			}
			l.pos += n
		}
		return Item{Ident, start, l.input[start:l.pos]}
	case '0' <= r && r <= '9':
		v := int(r - '0')
		for {
			r, n = l.next()
			if n == 0 || r < '0' || r > '9' {
				break
			}
			v = v*10 + int(r-'0')
			l.pos += n
		}
		return Item{Int, start, v}
	case r == '[':
		return Item{BracketOpen, start, "["}
	case r == ']':
		return Item{BracketClose, start, "]"}
	case r == ',':
		return Item{Comma, start, ","}
	case r == '=':
		return Item{Equal, start, "="}
	}
	// stop here: anything after an unexpected character is ignored.
	l.pos = len(l.input)
	return Item{Raw, start, r}
}
