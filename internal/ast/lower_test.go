// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ast

import (
	"testing"

	"github.com/godoctor/langcore/cerr"
	"github.com/godoctor/langcore/internal/lex"
	"github.com/godoctor/langcore/internal/parse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tok(k lex.Kind, text string) *parse.Node {
	return &parse.Node{Tok: lex.Token{Kind: k, Text: text}}
}

func rule(name string, children ...*parse.Node) *parse.Node {
	return &parse.Node{Rule: name, Children: children}
}

func ident(name string) *parse.Node    { return rule("identifier", tok(lex.IDENTIFIER, name)) }
func intLit(text string) *parse.Node   { return rule("literal", tok(lex.INTEGER, text)) }
func stmtOf(e *parse.Node) *parse.Node { return rule("stmt", e) }
func program(stmts ...*parse.Node) *parse.Node {
	return rule("program", stmts...)
}

func listItem(v *parse.Node) *parse.Node { return rule("list_item", v) }
func keyedItem(key string, v *parse.Node) *parse.Node {
	return rule("list_item", tok(lex.IDENTIFIER, key), v)
}

func TestLower_SimpleBinding(t *testing.T) {
	cst := program(stmtOf(intLit("1")))
	cst.Children[0].Children = []*parse.Node{
		tok(lex.IDENTIFIER, "x"), tok(lex.OP_BIND, ":="), intLit("1"),
	}

	prog, err := Lower(cst)
	require.NoError(t, err)
	require.Len(t, prog.Root.Stmts, 1)

	st := prog.Root.Stmts[0]
	assert.True(t, st.HasTarget)
	assert.Equal(t, "x", st.Target)
	lit, ok := st.Expr.(*Literal)
	require.True(t, ok)
	assert.Equal(t, IntegerLit, lit.Kind)
	assert.Equal(t, "1", lit.Text)
	assert.Same(t, st, lit.ParentNode())
}

func TestLower_StringLiteralExpandsToByteList(t *testing.T) {
	strCST := rule("literal", tok(lex.STRING_DQ, `"ab"`))
	cst := program(stmtOf(strCST))

	prog, err := Lower(cst)
	require.NoError(t, err)

	lst, ok := prog.Root.Stmts[0].Expr.(*List)
	require.True(t, ok)
	require.Len(t, lst.Items, 2)
	assert.Equal(t, "97", lst.Items[0].Value.(*Literal).Text)
	assert.Equal(t, "98", lst.Items[1].Value.(*Literal).Text)
	assert.Same(t, lst, lst.Items[0].ParentNode())
}

func TestLower_BareTwoItemUnkeyedListBecomesCall(t *testing.T) {
	bracket := rule("list", listItem(ident("f")), listItem(ident("x")))
	cst := program(stmtOf(bracket))

	prog, err := Lower(cst)
	require.NoError(t, err)

	call, ok := prog.Root.Stmts[0].Expr.(*Call)
	require.True(t, ok)
	assert.Equal(t, "f", call.Fn.(*Identifier).Name)
	assert.Equal(t, "x", call.Arg.(*Identifier).Name)
}

func TestLower_ThreeItemListStaysList(t *testing.T) {
	bracket := rule("list", listItem(ident("a")), listItem(ident("b")), listItem(ident("c")))
	cst := program(stmtOf(bracket))

	prog, err := Lower(cst)
	require.NoError(t, err)

	_, ok := prog.Root.Stmts[0].Expr.(*List)
	assert.True(t, ok, "a 3-item bracket must stay a List, never a call")
}

func TestLower_KeyedTwoItemListStaysList(t *testing.T) {
	bracket := rule("list", keyedItem("fn", ident("f")), listItem(ident("x")))
	cst := program(stmtOf(bracket))

	prog, err := Lower(cst)
	require.NoError(t, err)

	_, ok := prog.Root.Stmts[0].Expr.(*List)
	assert.True(t, ok, "a keyed item disqualifies the bracket-call interpretation")
}

func TestLower_NestedCallArgListNeverReinterpretedAsCall(t *testing.T) {
	// g[a, b] parses as call_list(g, list(a, b)); the 2-item arg list must
	// stay a List even though it would qualify for bracket-call if it were
	// reached as a bare atom (lowerCallList passes its argument list to
	// lowerList directly, never to the bare-atom bracket-call check).
	argList := rule("list", listItem(ident("a")), listItem(ident("b")))
	call := rule("call_list", ident("g"), argList)
	cst := program(stmtOf(call))

	prog, err := Lower(cst)
	require.NoError(t, err)

	outer, ok := prog.Root.Stmts[0].Expr.(*Call)
	require.True(t, ok)
	arg, ok := outer.Arg.(*List)
	require.True(t, ok, "call_list's argument list must never be reinterpreted as a nested call")
	assert.Len(t, arg.Items, 2)
}

func TestLower_StructuralTokenLeakIsCSTShapeError(t *testing.T) {
	bogus := tok(lex.LPAREN, "(")
	cst := program(stmtOf(bogus))

	_, err := Lower(cst)
	require.Error(t, err)
	var cerrErr *cerr.Error
	require.ErrorAs(t, err, &cerrErr)
	assert.Equal(t, cerr.CSTShapeError, cerrErr.Kind)
}

func TestLower_BooleanAndNullIdentifiersBecomeLiterals(t *testing.T) {
	cst := program(stmtOf(ident("true")), stmtOf(ident("null")))

	prog, err := Lower(cst)
	require.NoError(t, err)

	b := prog.Root.Stmts[0].Expr.(*Literal)
	assert.Equal(t, BooleanLit, b.Kind)
	n := prog.Root.Stmts[1].Expr.(*Literal)
	assert.Equal(t, NullLit, n.Kind)
}

func TestLower_FunctionWithTypedParamsAndAnnotations(t *testing.T) {
	params := rule("params_paren",
		rule("param", tok(lex.IDENTIFIER, "a"), rule("param_type", tok(lex.IDENTIFIER, "i32"))),
		rule("param", tok(lex.IDENTIFIER, "b")),
	)
	ann := rule("annotation", ident("pure"))
	body := rule("block", stmtOf(ident("a")))
	fn := rule("function", params, ann, body)
	cst := program(stmtOf(fn))

	prog, err := Lower(cst)
	require.NoError(t, err)

	f := prog.Root.Stmts[0].Expr.(*Function)
	params2 := f.Params.(*List)
	require.Len(t, params2.Items, 2)
	assert.Equal(t, "a", params2.Items[0].Key)
	assert.Equal(t, "i32", params2.Items[0].Value.(*Identifier).Name)
	assert.Equal(t, "b", params2.Items[1].Key)
	assert.Equal(t, NullLit, params2.Items[1].Value.(*Literal).Kind)
	require.Len(t, f.Annotations, 1)
	assert.Equal(t, "pure", f.Annotations[0].(*Identifier).Name)
	require.Len(t, f.Body.Stmts, 1)
	assert.Same(t, f, f.Body.ParentNode())
}

func TestLower_EmptyParenCallGetsEmptyArgList(t *testing.T) {
	call := rule("call_paren_empty", ident("g"), rule("list"))
	cst := program(stmtOf(call))

	prog, err := Lower(cst)
	require.NoError(t, err)

	c := prog.Root.Stmts[0].Expr.(*Call)
	arg := c.Arg.(*List)
	assert.Len(t, arg.Items, 0)
}

func TestLower_ParenCallWrapsSingleArgInOneItemList(t *testing.T) {
	call := rule("call_paren", ident("f"), ident("x"))
	cst := program(stmtOf(call))

	prog, err := Lower(cst)
	require.NoError(t, err)

	c := prog.Root.Stmts[0].Expr.(*Call)
	arg := c.Arg.(*List)
	require.Len(t, arg.Items, 1)
	assert.Equal(t, "x", arg.Items[0].Value.(*Identifier).Name)
	assert.False(t, arg.Items[0].HasKey)
}
