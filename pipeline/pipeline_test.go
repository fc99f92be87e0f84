// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"testing"

	"github.com/godoctor/langcore/cerr"
	"github.com/godoctor/langcore/corelog"
	"github.com/godoctor/langcore/internal/ast"
	"github.com/godoctor/langcore/internal/vg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spec.md §8 scenario 1: a use resolves to a single candidate and the
// whole pipeline runs clean end to end.
func TestCompile_SimpleBinding(t *testing.T) {
	res, err := Compile("t.lang", "x := 1; y := x", corelog.Discard())
	require.NoError(t, err)
	assert.Empty(t, res.Graph.Phis) // spec.md §8: phis empty after resolution

	var names []string
	for _, p := range res.BDG.Points {
		if p.Kind.String() == "point" {
			names = append(names, p.Name)
		}
	}
	assert.ElementsMatch(t, []string{"x", "y"}, names)
}

// spec.md §8 scenario 2: a pure function call produces an fndef edge and
// a call edge, neither effectful.
func TestCompile_PureFunctionCallProducesNoEffects(t *testing.T) {
	res, err := Compile("t.lang", `f := (a: i32) => !pure { a }; f(2)`, corelog.Discard())
	require.NoError(t, err)

	var sawFndef, sawCall bool
	for _, e := range res.Graph.Edges {
		switch e.Kind {
		case vg.EdgeFndef:
			sawFndef = true
			assert.False(t, e.IsEffect)
		case vg.EdgeCall:
			sawCall = true
			assert.False(t, e.IsEffect)
		}
	}
	assert.True(t, sawFndef)
	assert.True(t, sawCall)
}

// spec.md §8 scenario 3: an effectful builtin call inside an !effect
// function is ordered at effect_index 0 in both the function's own body
// and, via the function's own effectfulness, at the call site.
func TestCompile_EffectfulCallOrdering(t *testing.T) {
	res, err := Compile("t.lang", `g := () => !effect { print!("hi") }; g()`, corelog.Discard())
	require.NoError(t, err)

	var innerCalls, outerCalls int
	for _, e := range res.Graph.Edges {
		if e.Kind != vg.EdgeCall || !e.IsEffect {
			continue
		}
		if call, ok := e.AST.(*ast.Call); ok {
			if id, ok := call.Fn.(*ast.Identifier); ok && id.Name == "print!" {
				innerCalls++
				assert.Equal(t, 0, e.EffectIndex)
			}
			if id, ok := call.Fn.(*ast.Identifier); ok && id.Name == "g" {
				outerCalls++
				assert.Equal(t, 0, e.EffectIndex)
			}
		}
	}
	assert.Equal(t, 1, innerCalls)
	assert.Equal(t, 1, outerCalls)
}

// spec.md §8 scenario 3's negative case: omitting !effect from a function
// whose body performs an effect is a fatal, source-located error.
func TestCompile_MissingEffectAnnotationFails(t *testing.T) {
	_, err := Compile("t.lang", `g := () => !pure { print!("hi") }; g()`, corelog.Discard())
	require.Error(t, err)
	ce, ok := err.(*cerr.Error)
	require.True(t, ok)
	assert.Equal(t, cerr.MissingEffectAnnotation, ce.Kind)
	assert.True(t, ce.Pos.IsValid())
}

// spec.md §8 scenario 4 (this implementation's symbol-kind reading, see
// DESIGN.md): a parameter used only inside a nested function is lifted
// into that function's own inputs and its call site, end to end through
// source text rather than a hand-built graph.
func TestCompile_ClosureCapturesOuterParam(t *testing.T) {
	res, err := Compile("t.lang", `f := (a: i32) => !pure { h := () => !pure { typeof(a) }; h() }; f(2)`, corelog.Discard())
	require.NoError(t, err)

	found := false
	for _, params := range res.Closure.ClosureParams {
		if len(params) == 1 && params[0].Kind == vg.KindSymbol {
			found = true
		}
	}
	assert.True(t, found, "expected h's fndef to have one symbol-kind closure param")
}

// spec.md §8 scenario 6: a string literal lowers to a List of per-byte
// integer literals, round-tripping the original bytes.
func TestCompile_StringLiteralLowersToByteList(t *testing.T) {
	res, err := Compile("t.lang", `s := "ab"`, corelog.Discard())
	require.NoError(t, err)

	st := res.Program.Root.Stmts[0]
	lst, ok := st.Expr.(*ast.List)
	require.True(t, ok)
	require.Len(t, lst.Items, 2)
	assert.Equal(t, "97", lst.Items[0].Value.(*ast.Literal).Text)
	assert.Equal(t, "98", lst.Items[1].Value.(*ast.Literal).Text)
}

// An identifier with no candidate definition anywhere in scope is an
// unresolved reference (spec.md §7).
func TestCompile_UnresolvedReferenceFails(t *testing.T) {
	_, err := Compile("t.lang", `y := x`, corelog.Discard())
	require.Error(t, err)
	ce, ok := err.(*cerr.Error)
	require.True(t, ok)
	assert.Equal(t, cerr.UnresolvedReference, ce.Kind)
}

// WithStopAfter(StageBDG) returns the BDG index without ever building the
// value graph: a caller debugging BDG construction alone shouldn't pay
// for (or be tripped up by a bug in) the later stages.
func TestCompile_WithStopAfterBDG(t *testing.T) {
	res, err := Compile("t.lang", `x := 1; y := x`, corelog.Discard(), WithStopAfter(StageBDG))
	require.NoError(t, err)
	require.NotNil(t, res.BDG)
	assert.Nil(t, res.Graph)
	assert.Nil(t, res.Closure)
}

// WithIntrinsics narrows the builtin table: a name absent from the
// override list resolves as an ordinary unresolved identifier instead of
// a builtin reference.
func TestCompile_WithIntrinsicsNarrowsBuiltinTable(t *testing.T) {
	_, err := Compile("t.lang", `x := print!("hi")`, corelog.Discard(), WithIntrinsics([]string{"typeof"}))
	require.Error(t, err)
	ce, ok := err.(*cerr.Error)
	require.True(t, ok)
	assert.Equal(t, cerr.UnresolvedReference, ce.Kind)
}

// WithEffectNames lets a caller declare a non-default name as the only
// builtin effect; a call to it must still require its enclosing function
// to carry an !effect annotation, just as print! would by default.
func TestCompile_WithEffectNamesOverridesDefaultSet(t *testing.T) {
	_, err := Compile("t.lang", `g := () => !pure { typeof(1) }; g()`, corelog.Discard(),
		WithIntrinsics([]string{"typeof"}), WithEffectNames([]string{"typeof"}))
	require.Error(t, err)
	ce, ok := err.(*cerr.Error)
	require.True(t, ok)
	assert.Equal(t, cerr.MissingEffectAnnotation, ce.Kind)
}

// CompileFiles treats several files as one program: a binding in an
// earlier file resolves a use in a later one.
func TestCompileFiles_MergesTopLevelBlocksAcrossFiles(t *testing.T) {
	res, err := CompileFiles([]Source{
		{File: "a.lang", Text: "x := 1"},
		{File: "b.lang", Text: "y := x"},
	}, corelog.Discard())
	require.NoError(t, err)
	assert.Empty(t, res.Graph.Phis)

	var names []string
	for _, p := range res.BDG.Points {
		if p.Kind.String() == "point" {
			names = append(names, p.Name)
		}
	}
	assert.ElementsMatch(t, []string{"x", "y"}, names)
}

// A lex error in the second of several files still reports against that
// file's own name, not the first file's.
func TestCompileFiles_SyntaxErrorReportsOwnFile(t *testing.T) {
	_, err := CompileFiles([]Source{
		{File: "a.lang", Text: "x := 1"},
		{File: "b.lang", Text: "y := @"},
	}, corelog.Discard())
	require.Error(t, err)
	ce, ok := err.(*cerr.Error)
	require.True(t, ok)
	assert.Equal(t, cerr.SyntaxError, ce.Kind)
	assert.Equal(t, "b.lang", ce.Pos.File)
}
