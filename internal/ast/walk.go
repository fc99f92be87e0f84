// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ast

// Inspect traverses n's subtree in depth-first order, calling fn(n) for n
// and each descendant. If fn returns false for a node, Inspect does not
// recurse into that node's children. Modeled on the standard library's
// go/ast.Inspect visitor idiom (the teacher's refactoring packages walk
// go/ast trees this same way), adapted to this package's own node set.
func Inspect(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch v := n.(type) {
	case *Program:
		Inspect(v.Root, fn)
	case *Block:
		for _, s := range v.Stmts {
			Inspect(s, fn)
		}
	case *Stmt:
		Inspect(v.Expr, fn)
	case *ListItem:
		Inspect(v.Value, fn)
	case *List:
		for _, it := range v.Items {
			Inspect(it, fn)
		}
	case *Function:
		Inspect(v.Params, fn)
		for _, a := range v.Annotations {
			Inspect(a, fn)
		}
		Inspect(v.Body, fn)
	case *Call:
		Inspect(v.Fn, fn)
		Inspect(v.Arg, fn)
	case *Literal, *Identifier:
		// leaves
	}
}
