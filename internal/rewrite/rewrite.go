// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rewrite implements spec.md §4.A: it runs over the raw lexer
// output before parsing and disambiguates the single OP_BIND (":=") token
// the lexer emits, splitting it into a COLON plus a synthesized identifier
// wherever the grammar actually means "a type annotation followed by an
// identifier starting with =" rather than an atomic binding operator.
package rewrite

import (
	"github.com/godoctor/langcore/internal/lex"
)

// mode tracks what a bracket nesting level means for split decisions.
type mode int

const (
	modeBlock mode = iota
	modeParen
)

// Run rewrites toks in place (conceptually; it returns a new slice) per
// spec.md §4.A and returns the token stream the parser should consume.
func Run(toks []lex.Token) []lex.Token {
	stack := []mode{modeBlock}
	push := func(m mode) { stack = append(stack, m) }
	pop := func() {
		if len(stack) > 1 {
			stack = stack[:len(stack)-1]
		}
	}
	top := func() mode { return stack[len(stack)-1] }

	var out []lex.Token
	var lastNonHidden lex.Token
	haveLast := false

	emit := func(t lex.Token) {
		out = append(out, t)
		if !t.Kind.Hidden() {
			lastNonHidden = t
			haveLast = true
		}
	}

	i := 0
	for i < len(toks) {
		t := toks[i]
		switch t.Kind {
		case lex.LBRACE:
			push(modeBlock)
			emit(t)
			i++
		case lex.LPAREN, lex.LBRACKET:
			push(modeParen)
			emit(t)
			i++
		case lex.RBRACE, lex.RPAREN, lex.RBRACKET:
			pop()
			emit(t)
			i++
		case lex.OP_BIND:
			split := top() == modeParen || (haveLast && lastNonHidden.Kind == lex.RPAREN)
			if !split {
				emit(t)
				i++
				continue
			}
			emit(lex.Token{Kind: lex.COLON, Text: ":", Pos: t.Pos})

			text := "="
			j := i + 1
		concat:
			for j < len(toks) {
				nt := toks[j]
				switch nt.Kind {
				case lex.INTEGER, lex.IDENTIFIER, lex.EQUALS:
					text += nt.Text
					j++
				default:
					break concat
				}
			}
			emit(lex.Token{Kind: lex.IDENTIFIER, Text: text, Pos: t.Pos})
			i = j
		default:
			emit(t)
			i++
		}
	}
	return out
}
