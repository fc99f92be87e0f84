// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package closure

import (
	"testing"

	"github.com/godoctor/langcore/internal/ast"
	"github.com/godoctor/langcore/internal/bdg"
	"github.com/godoctor/langcore/internal/phi"
	"github.com/godoctor/langcore/internal/vg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkIdent(name string) *ast.Identifier { return &ast.Identifier{Name: name} }

func mkStmt(target string, hasTarget bool, e ast.Expr) *ast.Stmt {
	st := &ast.Stmt{HasTarget: hasTarget, Target: target, Expr: e}
	e.SetParent(st)
	return st
}

func mkBlock(stmts ...*ast.Stmt) *ast.Block {
	b := &ast.Block{Stmts: stmts}
	for _, s := range stmts {
		s.SetParent(b)
	}
	return b
}

// f := (a: i32) => { g := () => { +[a] }; g() }. The parameter
// "a" is a symbol-kind value, not a formal input of g; closure conversion
// must prepend it to g's fndef inputs and to g's call site inside f.
func TestConvert_CapturesParamSymbolIntoNestedFunction(t *testing.T) {
	paramItem := &ast.ListItem{HasKey: true, Key: "a", Value: mkIdent("i32")}
	params := &ast.List{Items: []*ast.ListItem{paramItem}}
	paramItem.SetParent(params)
	paramItem.Value.SetParent(paramItem)

	aUse := mkIdent("a")
	plusCall := &ast.Call{Fn: mkIdent("+"), Arg: &ast.List{Items: []*ast.ListItem{{Value: aUse}}}}
	plusCall.Fn.SetParent(plusCall)
	plusCall.Arg.SetParent(plusCall)
	plusCall.Arg.(*ast.List).Items[0].Value.SetParent(plusCall.Arg.(*ast.List).Items[0])

	gBody := mkBlock(mkStmt("", false, plusCall))
	gFn := &ast.Function{Params: &ast.List{}, Body: gBody}
	gFn.Params.SetParent(gFn)
	gBody.SetParent(gFn)
	gStmt := mkStmt("g", true, gFn)

	callG := &ast.Call{Fn: mkIdent("g"), Arg: &ast.List{}}
	callG.Fn.SetParent(callG)
	callG.Arg.SetParent(callG)
	callGStmt := mkStmt("", false, callG)

	fBody := mkBlock(gStmt, callGStmt)
	fFn := &ast.Function{Params: params, Body: fBody}
	params.SetParent(fFn)
	fBody.SetParent(fFn)
	fStmt := mkStmt("f", true, fFn)

	prog := &ast.Program{Root: mkBlock(fStmt)}
	prog.Root.SetParent(prog)

	idx, err := bdg.Build(prog)
	require.NoError(t, err)
	g, err := vg.Build(idx)
	require.NoError(t, err)
	require.NoError(t, phi.Resolve(g))

	res, err := Convert(g)
	require.NoError(t, err)

	var gEdge *vg.Edge
	for _, e := range g.Edges {
		if e.Kind == vg.EdgeFndef && e.AST == gFn {
			gEdge = e
		}
	}
	require.NotNil(t, gEdge)

	captured := res.ClosureParams[gEdge]
	require.Len(t, captured, 1)
	assert.Equal(t, vg.KindSymbol, captured[0].Kind)

	var callEdge *vg.Edge
	for _, e := range g.Edges {
		if e.Kind == vg.EdgeCall && e.AST == callG {
			callEdge = e
		}
	}
	require.NotNil(t, callEdge)
	assert.Contains(t, callEdge.InputValues(), captured[0])
}

// A program with no nested functions produces no closure params at all.
func TestConvert_NoFreeSymbolsIsANoop(t *testing.T) {
	body := mkBlock(mkStmt("", false, mkIdent("+")))
	fn := &ast.Function{Params: &ast.List{}, Body: body}
	fn.Params.SetParent(fn)
	body.SetParent(fn)
	fStmt := mkStmt("f", true, fn)
	prog := &ast.Program{Root: mkBlock(fStmt)}
	prog.Root.SetParent(prog)

	idx, err := bdg.Build(prog)
	require.NoError(t, err)
	g, err := vg.Build(idx)
	require.NoError(t, err)
	require.NoError(t, phi.Resolve(g))

	res, err := Convert(g)
	require.NoError(t, err)
	for _, params := range res.ClosureParams {
		assert.Empty(t, params)
	}
}
