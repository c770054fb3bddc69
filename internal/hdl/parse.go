// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hdl parses the small description language used to declare part
// pins and wire parts together.
//
package hdl

import (
	"github.com/pkg/errors"
)

// MaxWidth is the widest signal a single wire can carry.
//
const MaxWidth = 64

// Pin is a pin declaration: name[width]. Width is 1 when omitted.
//
type Pin struct {
	Name  string
	Width int
	Pos   int
}

// Assignment connects a part pin (LHS) to a wire in the enclosing chip (RHS).
//
type Assignment struct {
	LHS string
	RHS string
	Pos int
}

// ParseIO parses a pin list like "d[32], k[4], idle".
//
func ParseIO(input string) ([]Pin, error) {
	var out []Pin
	l := NewLexer(input)
	i := l.Lex()
	if i.Type == EOF {
		return nil, nil
	}
	for {
		if i.Type != Ident {
			return nil, parseError(input, i.Pos, "expected pin name, got "+i.String())
		}
		p := Pin{Name: i.Value.(string), Width: 1, Pos: i.Pos}
		i = l.Lex()
		if i.Type == BracketOpen {
			i = l.Lex()
			if i.Type != Int {
				return nil, parseError(input, i.Pos, "missing pin width")
			}
			p.Width = i.Value.(int)
			if p.Width < 1 || p.Width > MaxWidth {
				return nil, parseError(input, i.Pos, "pin width out of range")
			}
			i = l.Lex()
			if i.Type != BracketClose {
				return nil, parseError(input, i.Pos, "missing close bracket")
			}
			i = l.Lex()
		}
		out = append(out, p)
		switch i.Type {
		case EOF:
			return out, nil
		case Comma:
			i = l.Lex()
		default:
			return nil, parseError(input, i.Pos, "expected comma or end of input, got "+i.String())
		}
	}
}

// ParseConnections parses a connection list like "in=q, out=x".
//
func ParseConnections(input string) ([]Assignment, error) {
	var out []Assignment
	l := NewLexer(input)
	i := l.Lex()
	if i.Type == EOF {
		return nil, nil
	}
	for {
		if i.Type != Ident {
			return nil, parseError(input, i.Pos, "expected pin name, got "+i.String())
		}
		a := Assignment{LHS: i.Value.(string), Pos: i.Pos}
		if i = l.Lex(); i.Type != Equal {
			return nil, parseError(input, i.Pos, "expected '=', got "+i.String())
		}
		if i = l.Lex(); i.Type != Ident {
			return nil, parseError(input, i.Pos, "expected wire name, got "+i.String())
		}
		a.RHS = i.Value.(string)
		out = append(out, a)
		switch i = l.Lex(); i.Type {
		case EOF:
			return out, nil
		case Comma:
			i = l.Lex()
		default:
			return nil, parseError(input, i.Pos, "expected comma or end of input, got "+i.String())
		}
	}
}

func parseError(in string, pos int, msg string) error {
	return errors.Errorf("in %q at pos %d: %s", in, pos+1, msg)
}
