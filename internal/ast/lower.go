// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ast

import (
	"fmt"

	"github.com/godoctor/langcore/cerr"
	"github.com/godoctor/langcore/internal/parse"
	"github.com/godoctor/langcore/source"
)

// Lower runs the CST-to-AST translation (spec.md §4.B) over a "program"
// parse-tree node and returns the resulting Program.
func Lower(cst *parse.Node) (*Program, error) {
	if cst.Rule != "program" {
		return nil, cerr.New(cerr.CSTShapeError, pos(cst), "expected program rule, got %q", cst.Rule)
	}
	block, err := lowerBlockLike(cst, cst.Children)
	if err != nil {
		return nil, err
	}
	prog := &Program{Base: Base{CST: cst}, Root: block}
	block.SetParent(prog)
	return prog, nil
}

func pos(n *parse.Node) source.Position { return n.Span.Start }

// lowerBlockLike lowers a sequence of "stmt" CST children (shared by both
// the program root and function-body "block" rules) into a Block.
func lowerBlockLike(cst *parse.Node, stmtNodes []*parse.Node) (*Block, error) {
	b := &Block{Base: Base{CST: cst}}
	for _, sn := range stmtNodes {
		st, err := lowerStmt(sn)
		if err != nil {
			return nil, err
		}
		st.SetParent(b)
		b.Stmts = append(b.Stmts, st)
	}
	return b, nil
}

func lowerStmt(cst *parse.Node) (*Stmt, error) {
	if cst.Rule != "stmt" {
		return nil, cerr.New(cerr.CSTShapeError, pos(cst), "expected stmt rule, got %q", cst.Rule)
	}
	st := &Stmt{Base: Base{CST: cst}}
	children := cst.Children
	if len(children) == 3 {
		// identifier, OP_BIND token, expression
		idTok := children[0]
		if !idTok.IsToken() {
			return nil, cerr.New(cerr.CSTShapeError, pos(idTok), "structural token leaked: expected identifier token as bind target")
		}
		st.HasTarget = true
		st.Target = idTok.Tok.Text
		children = children[2:]
	}
	if len(children) != 1 {
		return nil, cerr.New(cerr.CSTShapeError, pos(cst), "stmt has unexpected shape (%d children)", len(cst.Children))
	}
	e, err := lowerExpr(children[0])
	if err != nil {
		return nil, err
	}
	st.Expr = e
	e.SetParent(st)
	return st, nil
}

// lowerExpr dispatches on the CST rule name, unwrapping glue rules
// ("paren") and rejecting structural tokens that leak into expression
// position (spec.md §4.B).
func lowerExpr(cst *parse.Node) (Expr, error) {
	if cst.IsToken() {
		return nil, cerr.New(cerr.CSTShapeError, pos(cst), "structural token leaked: bare token %q in expression position", cst.Tok.Text)
	}
	switch cst.Rule {
	case "paren":
		return lowerExpr(cst.Children[0])
	case "literal":
		return lowerLiteral(cst)
	case "identifier":
		return lowerIdentifier(cst)
	case "list":
		return lowerListOrBracketCall(cst)
	case "function":
		return lowerFunction(cst)
	case "call_paren":
		return lowerCallParen(cst)
	case "call_paren_empty":
		return lowerCallParenEmpty(cst)
	case "call_list":
		return lowerCallList(cst)
	default:
		return nil, cerr.New(cerr.CSTShapeError, pos(cst), "unrecognized CST rule %q", cst.Rule)
	}
}

func lowerLiteral(cst *parse.Node) (Expr, error) {
	tokNode := cst.Children[0]
	if !tokNode.IsToken() {
		return nil, cerr.New(cerr.CSTShapeError, pos(cst), "structural token leaked: literal has non-token child")
	}
	tok := tokNode.Tok
	switch tok.Kind.String() {
	case "INTEGER":
		return &Literal{Base: Base{CST: cst}, Kind: IntegerLit, Text: tok.Text}, nil
	case "FLOAT":
		return &Literal{Base: Base{CST: cst}, Kind: FloatLit, Text: tok.Text}, nil
	case "STRING_DQ", "STRING_SQ", "STRING_RAW":
		return lowerStringLiteral(cst, tok.Text)
	default:
		return nil, cerr.New(cerr.CSTShapeError, pos(cst), "unrecognized literal token kind %v", tok.Kind)
	}
}

// lowerStringLiteral expands a string literal into a List of per-byte
// integer-literal items (spec.md §3): the AST never retains string text.
func lowerStringLiteral(cst *parse.Node, raw string) (Expr, error) {
	bs, err := decodeString(raw)
	if err != nil {
		return nil, cerr.New(cerr.InvalidLiteral, pos(cst), "%s", err)
	}
	lst := &List{Base: Base{CST: cst}}
	for _, b := range bs {
		item := &ListItem{
			Base:  Base{CST: cst},
			Value: &Literal{Base: Base{CST: cst}, Kind: IntegerLit, Text: fmt.Sprintf("%d", b)},
		}
		item.Value.SetParent(item)
		item.SetParent(lst)
		lst.Items = append(lst.Items, item)
	}
	return lst, nil
}

func lowerIdentifier(cst *parse.Node) (Expr, error) {
	tokNode := cst.Children[0]
	if !tokNode.IsToken() {
		return nil, cerr.New(cerr.CSTShapeError, pos(cst), "structural token leaked: identifier has non-token child")
	}
	name := tokNode.Tok.Text
	switch name {
	case "true", "false":
		return &Literal{Base: Base{CST: cst}, Kind: BooleanLit, Text: name}, nil
	case "null":
		return &Literal{Base: Base{CST: cst}, Kind: NullLit, Text: name}, nil
	default:
		return &Identifier{Base: Base{CST: cst}, Name: name}, nil
	}
}

// lowerListOrBracketCall handles a "list" node reached as a bare atom
// expression (i.e. NOT already consumed as call args or a params list by
// its caller). A bare two-item, unkeyed bracket is the "[ expr , expr ]"
// call form of spec.md §4.B ("meaning expr(expr) with explicit argument
// passing"); anything else at this position is an ordinary List value.
func lowerListOrBracketCall(cst *parse.Node) (Expr, error) {
	if len(cst.Children) == 2 &&
		cst.Children[0].Rule == "list_item" && len(cst.Children[0].Children) == 1 &&
		cst.Children[1].Rule == "list_item" && len(cst.Children[1].Children) == 1 {
		fnExpr, err := lowerExpr(cst.Children[0].Children[0])
		if err != nil {
			return nil, err
		}
		argExpr, err := lowerExpr(cst.Children[1].Children[0])
		if err != nil {
			return nil, err
		}
		call := &Call{Base: Base{CST: cst}, Fn: fnExpr, Arg: argExpr}
		fnExpr.SetParent(call)
		argExpr.SetParent(call)
		return call, nil
	}
	return lowerList(cst)
}

func lowerList(cst *parse.Node) (Expr, error) {
	lst := &List{Base: Base{CST: cst}}
	for _, itemCST := range cst.Children {
		if itemCST.Rule != "list_item" {
			return nil, cerr.New(cerr.CSTShapeError, pos(itemCST), "expected list_item, got %q", itemCST.Rule)
		}
		item, err := lowerListItem(itemCST)
		if err != nil {
			return nil, err
		}
		item.SetParent(lst)
		lst.Items = append(lst.Items, item)
	}
	return lst, nil
}

func lowerListItem(cst *parse.Node) (*ListItem, error) {
	item := &ListItem{Base: Base{CST: cst}}
	children := cst.Children
	if len(children) == 2 {
		keyTok := children[0]
		if !keyTok.IsToken() {
			return nil, cerr.New(cerr.CSTShapeError, pos(keyTok), "structural token leaked: expected key token")
		}
		item.HasKey = true
		item.Key = keyTok.Tok.Text
		children = children[1:]
	}
	v, err := lowerExpr(children[0])
	if err != nil {
		return nil, err
	}
	item.Value = v
	v.SetParent(item)
	return item, nil
}

func lowerFunction(cst *parse.Node) (Expr, error) {
	children := cst.Children
	if len(children) < 2 {
		return nil, cerr.New(cerr.CSTShapeError, pos(cst), "function has too few children")
	}
	fn := &Function{Base: Base{CST: cst}}

	params, err := lowerParams(children[0])
	if err != nil {
		return nil, err
	}
	fn.Params = params
	params.SetParent(fn)
	rest := children[1:]

	if len(rest) > 0 && rest[0].Rule == "return_type" {
		fn.ReturnType = rest[0].Children[0].Tok.Text
		rest = rest[1:]
	}

	body := rest[len(rest)-1]
	anns := rest[:len(rest)-1]
	for _, a := range anns {
		if a.Rule != "annotation" {
			return nil, cerr.New(cerr.CSTShapeError, pos(a), "expected annotation, got %q", a.Rule)
		}
		ae, err := lowerExpr(a.Children[0])
		if err != nil {
			return nil, err
		}
		ae.SetParent(fn)
		fn.Annotations = append(fn.Annotations, ae)
	}

	if body.Rule != "block" {
		return nil, cerr.New(cerr.CSTShapeError, pos(body), "expected block, got %q", body.Rule)
	}
	blk, err := lowerBlockLike(body, body.Children)
	if err != nil {
		return nil, err
	}
	fn.Body = blk
	blk.SetParent(fn)
	return fn, nil
}

// lowerParams lowers the three param forms (spec.md §4.B) into a single
// Expr: a lone identifier stays an Identifier; a bracketed list of names
// stays a List; a parenthesized typed-parameter-list becomes a List keyed
// by parameter name, whose value is an Identifier naming the declared
// type (or a null Literal when no type was given).
func lowerParams(cst *parse.Node) (Expr, error) {
	switch cst.Rule {
	case "params_ident":
		return lowerIdentifier(cst)
	case "list":
		return lowerList(cst)
	case "params_paren":
		lst := &List{Base: Base{CST: cst}}
		for _, p := range cst.Children {
			if p.Rule != "param" {
				return nil, cerr.New(cerr.CSTShapeError, pos(p), "expected param, got %q", p.Rule)
			}
			nameTok := p.Children[0]
			item := &ListItem{Base: Base{CST: p}, HasKey: true, Key: nameTok.Tok.Text}
			if len(p.Children) == 2 {
				tyTok := p.Children[1].Children[0]
				item.Value = &Identifier{Base: Base{CST: p.Children[1]}, Name: tyTok.Tok.Text}
			} else {
				item.Value = &Literal{Base: Base{CST: p}, Kind: NullLit, Text: "null"}
			}
			item.Value.SetParent(item)
			item.SetParent(lst)
			lst.Items = append(lst.Items, item)
		}
		return lst, nil
	default:
		return nil, cerr.New(cerr.CSTShapeError, pos(cst), "unrecognized params form %q", cst.Rule)
	}
}

func lowerCallParen(cst *parse.Node) (Expr, error) {
	fnExpr, err := lowerExpr(cst.Children[0])
	if err != nil {
		return nil, err
	}
	argExpr, err := lowerExpr(cst.Children[1])
	if err != nil {
		return nil, err
	}
	// "wrapped as a one-item unindexed list" (spec.md §4.B).
	wrapped := &List{Base: Base{CST: cst.Children[1]}}
	item := &ListItem{Base: Base{CST: cst.Children[1]}, Value: argExpr}
	argExpr.SetParent(item)
	item.SetParent(wrapped)
	wrapped.Items = append(wrapped.Items, item)

	call := &Call{Base: Base{CST: cst}, Fn: fnExpr, Arg: wrapped}
	fnExpr.SetParent(call)
	wrapped.SetParent(call)
	return call, nil
}

func lowerCallParenEmpty(cst *parse.Node) (Expr, error) {
	fnExpr, err := lowerExpr(cst.Children[0])
	if err != nil {
		return nil, err
	}
	argExpr, err := lowerList(cst.Children[1]) // always an empty "list" rule
	if err != nil {
		return nil, err
	}
	call := &Call{Base: Base{CST: cst}, Fn: fnExpr, Arg: argExpr}
	fnExpr.SetParent(call)
	argExpr.SetParent(call)
	return call, nil
}

func lowerCallList(cst *parse.Node) (Expr, error) {
	fnExpr, err := lowerExpr(cst.Children[0])
	if err != nil {
		return nil, err
	}
	argExpr, err := lowerList(cst.Children[1])
	if err != nil {
		return nil, err
	}
	call := &Call{Base: Base{CST: cst}, Fn: fnExpr, Arg: argExpr}
	fnExpr.SetParent(call)
	argExpr.SetParent(call)
	return call, nil
}
