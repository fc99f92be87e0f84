// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ast

import "github.com/godoctor/langcore/source"

// AncestorPath returns n and every one of its ancestors, innermost first,
// ending at the Program root. It is the bespoke-AST analog of
// astutil.PathEnclosingInterval: a plain parent-pointer walk rather than a
// tree search, since every AST node already carries its Parent.
func AncestorPath(n Node) []Node {
	var path []Node
	for cur := n; cur != nil; cur = cur.ParentNode() {
		path = append(path, cur)
	}
	return path
}

// EnclosingBlock returns the nearest Block ancestor of n (n itself if n is
// a Block). Every Block in this AST is either the Program root or some
// Function's body, so this is also "the innermost scope containing n."
func EnclosingBlock(n Node) *Block {
	for cur := n; cur != nil; cur = cur.ParentNode() {
		if b, ok := cur.(*Block); ok {
			return b
		}
	}
	return nil
}

// EnclosingStmt returns the nearest Stmt ancestor of n, or nil if n is not
// within any statement (e.g. n is the Program itself).
func EnclosingStmt(n Node) *Stmt {
	for cur := n; cur != nil; cur = cur.ParentNode() {
		if s, ok := cur.(*Stmt); ok {
			return s
		}
	}
	return nil
}

// IsWithin reports whether n is syntactically within block, stopping at
// the first enclosing Block encountered during ascent. Because every
// Block in this AST is either the program root or a function body, the
// first Block hit while climbing from n is necessarily the innermost one
// containing n; if that isn't `block`, n is inside a *different*
// (necessarily nested) function's body. This single predicate is shared
// by closure conversion (§4.F) and effect analysis (§4.G) per spec.md §9's
// design note ("a single shared AST-ancestor walk that terminates at the
// first enclosing Function boundary").
func IsWithin(n Node, block *Block) bool {
	b := EnclosingBlock(n)
	return b == block
}

// OwningFunction returns the Function whose body is b, and true, or
// (nil, false) if b is the program root block.
func OwningFunction(b *Block) (*Function, bool) {
	fn, ok := b.Parent.(*Function)
	return fn, ok
}

// Position returns the source position best associated with n, taken from
// its originating parse-tree node.
func Position(n Node) source.Position {
	if cst := n.CSTNode(); cst != nil {
		return cst.Span.Start
	}
	return source.Position{}
}
