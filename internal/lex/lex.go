// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lex is the lexer for the language's source text. It is the
// external-collaborator boundary spec.md §6 describes as "a parse tree...
// assumed to produce a standard parse tree": in this implementation the
// lexer is the concrete token source that feeds the token rewriter
// (internal/rewrite) and the recursive-descent parser (internal/parse).
//
// Tokens are produced by trying a fixed, ordered table of named regular
// expressions against the remaining input, in the style of a
// participle-style struct lexer (see the grammar package adjacent projects
// in this family build on): each rule has a Name and a Pattern, and the
// first rule whose pattern matches at the current offset wins.
package lex

import (
	"fmt"
	"regexp"

	"github.com/godoctor/langcore/source"
)

// Kind identifies a token's lexical class.
type Kind int

const (
	EOF Kind = iota
	WHITESPACE
	COMMENT
	IDENTIFIER
	INTEGER
	FLOAT
	STRING_DQ // "double quoted, escape-processed"
	STRING_SQ // 'single quoted, escape-processed'
	STRING_RAW
	LBRACE
	RBRACE
	LPAREN
	RPAREN
	LBRACKET
	RBRACKET
	COMMA
	COLON
	SEMI
	OP_BIND // the un-split ":=" token, disambiguated by internal/rewrite
	ARROW   // "=>"
	BANG    // "!"
	EQUALS  // "="
	OPERATOR
)

func (k Kind) String() string {
	names := map[Kind]string{
		EOF: "EOF", WHITESPACE: "WHITESPACE", COMMENT: "COMMENT",
		IDENTIFIER: "ID_IDENTIFIER", INTEGER: "INTEGER", FLOAT: "FLOAT",
		STRING_DQ: "STRING_DQ", STRING_SQ: "STRING_SQ", STRING_RAW: "STRING_RAW",
		LBRACE: "LBRACE", RBRACE: "RBRACE", LPAREN: "LPAREN", RPAREN: "RPAREN",
		LBRACKET: "LBRACKET", RBRACKET: "RBRACKET", COMMA: "COMMA",
		COLON: "COLON", SEMI: "SEMI", OP_BIND: "OP_BIND", ARROW: "ARROW", BANG: "BANG",
		EQUALS: "EQUALS", OPERATOR: "OPERATOR",
	}
	if s, ok := names[k]; ok {
		return s
	}
	return "UNKNOWN"
}

// Hidden reports whether tokens of this kind belong to the lexer's hidden
// channel: they are forwarded verbatim by the token rewriter but do not
// count as "the last emitted non-hidden token" for its split decision
// (spec.md §4.A).
func (k Kind) Hidden() bool {
	return k == WHITESPACE || k == COMMENT
}

// Token is one lexical unit, tagged with its exact source span.
type Token struct {
	Kind Kind
	Text string
	Pos  source.Position
}

type rule struct {
	kind Kind
	re   *regexp.Regexp
}

// rules is tried top to bottom; order matters (e.g. ":=" before ":" and "=").
var rules = []rule{
	{WHITESPACE, regexp.MustCompile(`^[ \t\r\n]+`)},
	{COMMENT, regexp.MustCompile(`^#[^\n]*`)},
	{FLOAT, regexp.MustCompile(`^[0-9]+\.[0-9]+`)},
	{INTEGER, regexp.MustCompile(`^[0-9]+`)},
	{STRING_RAW, regexp.MustCompile("^`[^`]*`")},
	{STRING_DQ, regexp.MustCompile(`^"([^"\\]|\\.)*"`)},
	{STRING_SQ, regexp.MustCompile(`^'([^'\\]|\\.)*'`)},
	{IDENTIFIER, regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*!?`)},
	{OP_BIND, regexp.MustCompile(`^:=`)},
	{ARROW, regexp.MustCompile(`^=>`)},
	{LBRACE, regexp.MustCompile(`^\{`)},
	{RBRACE, regexp.MustCompile(`^\}`)},
	{LPAREN, regexp.MustCompile(`^\(`)},
	{RPAREN, regexp.MustCompile(`^\)`)},
	{LBRACKET, regexp.MustCompile(`^\[`)},
	{RBRACKET, regexp.MustCompile(`^\]`)},
	{COMMA, regexp.MustCompile(`^,`)},
	{SEMI, regexp.MustCompile(`^;`)},
	{COLON, regexp.MustCompile(`^:`)},
	{BANG, regexp.MustCompile(`^!`)},
	{EQUALS, regexp.MustCompile(`^=`)},
	{OPERATOR, regexp.MustCompile(`^[+\-*/<>&|^%~]+`)},
}

// Lexer turns source text into a stream of Tokens, tracking 1-based
// line/column as it goes.
type Lexer struct {
	file       string
	src        string
	offset     int
	line, col  int
}

// New creates a Lexer over src, attributing positions to file (used only
// for diagnostics).
func New(file, src string) *Lexer {
	return &Lexer{file: file, src: src, line: 1, col: 1}
}

// Next returns the next token, or a Kind == EOF token at end of input.
func (lx *Lexer) Next() (Token, error) {
	if lx.offset >= len(lx.src) {
		return Token{Kind: EOF, Pos: lx.pos()}, nil
	}
	rest := lx.src[lx.offset:]
	for _, r := range rules {
		if loc := r.re.FindStringIndex(rest); loc != nil && loc[0] == 0 {
			text := rest[:loc[1]]
			tok := Token{Kind: r.kind, Text: text, Pos: lx.pos()}
			lx.advance(text)
			return tok, nil
		}
	}
	return Token{}, fmt.Errorf("%s: unrecognized input starting %q", lx.pos(), firstRunes(rest, 10))
}

// All lexes the entire input into a slice, including hidden tokens,
// terminated by a trailing EOF token. Used by internal/rewrite, which
// needs random access to "the last emitted non-hidden token."
func (lx *Lexer) All() ([]Token, error) {
	var toks []Token
	for {
		t, err := lx.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, t)
		if t.Kind == EOF {
			return toks, nil
		}
	}
}

func (lx *Lexer) pos() source.Position {
	return source.Position{File: lx.file, Line: lx.line, Col: lx.col}
}

func (lx *Lexer) advance(text string) {
	for _, r := range text {
		if r == '\n' {
			lx.line++
			lx.col = 1
		} else {
			lx.col++
		}
	}
	lx.offset += len(text)
}

func firstRunes(s string, n int) string {
	rs := []rune(s)
	if len(rs) > n {
		rs = rs[:n]
	}
	return string(rs)
}
