// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package source defines source-location types shared by every pipeline
// stage, from the lexer through the effect analyzer.
package source

import "fmt"

// A Position identifies a single point in a source file: a 1-based line
// and a 1-based column, matching the convention the lexer assigns to every
// token it emits.
type Position struct {
	File string
	Line int
	Col  int
}

// String renders a Position the way diagnostics report it: "file:line:col",
// or just "line:col" when File is empty (e.g. for text lexed without a
// file name).
func (p Position) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Col)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// IsValid reports whether p identifies an actual location. The zero Position
// is invalid; it is returned by stages that have no better location to
// report (e.g. an edge with no direct AST back-reference).
func (p Position) IsValid() bool {
	return p.Line > 0 && p.Col > 0
}

// Span is the stretch of source text a parse-tree node covers, used by the
// parser: Start is the position of the node's first token and End the
// position at which its last token begins. A single-token node has
// Start == End.
type Span struct {
	Start, End Position
}

func (s Span) String() string {
	return fmt.Sprintf("%s-%s", s.Start, s.End)
}
