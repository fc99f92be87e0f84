// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ast defines the small tagged expression algebra spec.md §3
// describes (Literal, Identifier, ListItem, List, Function, Call, Stmt,
// Block, Program) and the CST-to-AST lowering pass (§4.B) that produces it.
//
// Every node is arena-style: allocated once and referenced by pointer, with
// an explicit Parent field rather than any shared-ownership wrapper, so
// ancestor queries (§4.F, §4.G) are a plain pointer walk with no risk of
// reference cycles being mistaken for ownership cycles (see spec.md §9).
package ast

import (
	"github.com/godoctor/langcore/internal/parse"
)

// Resolution is the marker interface implemented by internal/bdg's Point
// and BindPhi types. Identifier stores its resolution as a Resolution so
// this package does not need to import internal/bdg (which imports this
// package to walk the AST it resolves).
type Resolution interface {
	ResolutionMarker()
}

// Node is implemented by every AST node.
type Node interface {
	base() *Base
	CSTNode() *parse.Node
	ParentNode() Node
	SetParent(Node)
}

// Base is embedded in every concrete AST node.
type Base struct {
	CST    *parse.Node
	Parent Node
}

func (b *Base) base() *Base           { return b }
func (b *Base) CSTNode() *parse.Node  { return b.CST }
func (b *Base) ParentNode() Node      { return b.Parent }
func (b *Base) SetParent(p Node)      { b.Parent = p }

// Expr is the subset of Node that can appear in expression position.
type Expr interface {
	Node
	exprNode()
}

// LiteralKind is the closed literal-type set from spec.md §3.
type LiteralKind int

const (
	IntegerLit LiteralKind = iota
	FloatLit
	BooleanLit
	NullLit
)

func (k LiteralKind) String() string {
	switch k {
	case IntegerLit:
		return "integer"
	case FloatLit:
		return "float"
	case BooleanLit:
		return "boolean"
	case NullLit:
		return "null"
	default:
		return "unknown"
	}
}

// Literal is a scalar constant. String literals never appear as Literal
// nodes: they are expanded into a List of per-byte integer Literals during
// lowering (§3).
type Literal struct {
	Base
	Kind LiteralKind
	Text string // raw source text, e.g. "97" for a byte literal
}

func (*Literal) exprNode() {}

// Identifier is a name reference. BDG construction sets BindPhiRes on
// every identifier it resolves as a use: those in statement expressions,
// call functions and arguments, list item values, and the type names of
// keyed parameters. BDG construction never sets PointRes; parameter-name
// identifiers (a lone params identifier or a bare name in a bracketed
// parameter list) and identifiers inside a function's annotations are
// left with neither field set.
type Identifier struct {
	Base
	Name       string
	PointRes   Resolution
	BindPhiRes Resolution
}

func (*Identifier) exprNode() {}

// ListItem is one element of a List, with an optional symbolic key.
type ListItem struct {
	Base
	HasKey bool
	Key    string
	Value  Expr
}

func (*ListItem) exprNode() {}

// List is an ordered sequence of items, each with an optional key.
type List struct {
	Base
	Items []*ListItem
}

func (*List) exprNode() {}

// Function is a function literal: params, an optional declared return
// type name, zero or more annotation expressions, and a body block.
type Function struct {
	Base
	Params      Expr
	ReturnType  string // "" if absent
	Annotations []Expr
	Body        *Block
}

func (*Function) exprNode() {}

// Call applies fn to a single argument expression (multi-argument calls
// are expressed by making Arg a List; see internal/parse's two call
// forms and DESIGN.md).
type Call struct {
	Base
	Fn  Expr
	Arg Expr
}

func (*Call) exprNode() {}

// Stmt is an expression, optionally binding its value to a target name.
type Stmt struct {
	Base
	HasTarget bool
	Target    string
	Expr      Expr
}

// Block is an ordered sequence of statements. Info holds the owning
// internal/bdg.BlockInfo once the BDG is built (a weak, back-pointer-only
// reference: Block does not own BlockInfo's lifetime).
type Block struct {
	Base
	Stmts []*Stmt
	Info  interface{} // *bdg.BlockInfo, set post-BDG
}

// Program is the AST root: a single Block at depth 0.
type Program struct {
	Base
	Root *Block
}
