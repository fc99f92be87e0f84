// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package parse is the external-collaborator stand-in spec.md §6 assumes:
// "a parse tree in which every node is either a rule with a name, source
// start/end positions, and a list of children, or a token with text, a
// symbolic type name, a numeric type id, a channel, and source line/column."
// It is a small hand-rolled recursive-descent parser, not the subject of
// this specification's testing depth (§1 places grammar definition and the
// generic parser out of scope) — it exists only to hand internal/ast a
// concrete parse tree to lower.
package parse

import (
	"fmt"

	"github.com/godoctor/langcore/internal/lex"
	"github.com/godoctor/langcore/source"
)

// Node is a parse-tree node: either a named rule with children (Rule != "")
// or a leaf token (Rule == "").
type Node struct {
	Rule     string
	Tok      lex.Token
	Children []*Node
	Span     source.Span
}

func (n *Node) IsToken() bool { return n.Rule == "" }

func tokenNode(t lex.Token) *Node {
	return &Node{Tok: t, Span: source.Span{Start: t.Pos, End: t.Pos}}
}

func ruleNode(name string, children ...*Node) *Node {
	n := &Node{Rule: name, Children: children}
	if len(children) > 0 {
		n.Span = source.Span{Start: children[0].Span.Start, End: children[len(children)-1].Span.End}
	}
	return n
}

// Parser consumes a (rewritten, hidden-token-filtered) token stream and
// builds a parse tree.
type Parser struct {
	toks []lex.Token
	pos  int
}

// New filters hidden-channel tokens out of toks (the rewriter needs them;
// the grammar does not) and returns a Parser ready to run Program.
func New(toks []lex.Token) *Parser {
	visible := toks[:0:0]
	for _, t := range toks {
		if !t.Kind.Hidden() {
			visible = append(visible, t)
		}
	}
	return &Parser{toks: visible}
}

func (p *Parser) peek() lex.Token {
	if p.pos >= len(p.toks) {
		return lex.Token{Kind: lex.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) peekKind(k lex.Kind) bool { return p.peek().Kind == k }

func (p *Parser) advance() lex.Token {
	t := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) expect(k lex.Kind) (lex.Token, error) {
	t := p.peek()
	if t.Kind != k {
		return t, fmt.Errorf("%s: expected %s, got %s %q", t.Pos, k, t.Kind, t.Text)
	}
	return p.advance(), nil
}

// Program parses: stmtList EOF.
func (p *Parser) Program() (*Node, error) {
	var stmts []*Node
	for !p.peekKind(lex.EOF) {
		s, err := p.stmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
		if p.peekKind(lex.SEMI) {
			p.advance()
		} else {
			break
		}
	}
	if !p.peekKind(lex.EOF) {
		t := p.peek()
		return nil, fmt.Errorf("%s: unexpected trailing input %q", t.Pos, t.Text)
	}
	return ruleNodeOrEmpty("program", stmts), nil
}

func ruleNodeOrEmpty(name string, children []*Node) *Node {
	n := &Node{Rule: name, Children: children}
	if len(children) > 0 {
		n.Span = source.Span{Start: children[0].Span.Start, End: children[len(children)-1].Span.End}
	}
	return n
}

// stmt -> (IDENTIFIER OP_BIND)? expression
func (p *Parser) stmt() (*Node, error) {
	var children []*Node
	if p.peekKind(lex.IDENTIFIER) && p.pos+1 < len(p.toks) && p.toks[p.pos+1].Kind == lex.OP_BIND {
		id := tokenNode(p.advance())
		bind := tokenNode(p.advance()) // OP_BIND
		children = append(children, id, bind)
	}
	e, err := p.expression()
	if err != nil {
		return nil, err
	}
	children = append(children, e)
	return ruleNode("stmt", children...), nil
}

// expression -> postfix
func (p *Parser) expression() (*Node, error) {
	return p.postfix()
}

// postfix -> atom_expression ( '(' expression ')' | list )*
func (p *Parser) postfix() (*Node, error) {
	atom, err := p.atomExpression()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.peekKind(lex.LPAREN):
			open := p.advance()
			if p.peekKind(lex.RPAREN) {
				close_ := p.advance()
				empty := ruleNodeOrEmpty("list", nil)
				atom = ruleNode("call_paren_empty", atom, empty)
				atom.Span = source.Span{Start: open.Pos, End: close_.Pos}
				continue
			}
			arg, err := p.expression()
			if err != nil {
				return nil, err
			}
			close_, err := p.expect(lex.RPAREN)
			if err != nil {
				return nil, err
			}
			atom = ruleNode("call_paren", atom, arg)
			atom.Span.End = close_.Pos
		case p.peekKind(lex.LBRACKET):
			lst, err := p.list()
			if err != nil {
				return nil, err
			}
			atom = ruleNode("call_list", atom, lst)
		default:
			return atom, nil
		}
	}
}

// atom_expression -> function | literal | identifier | list | '(' expression ')'
//
// A function literal is tried first via full speculative lookahead (params,
// optional ": return_type", then a required "=>"); on any mismatch the
// parser rewinds to `save` and falls through to the ordinary productions,
// so "(a)" parses as a parenthesized expression while "(a) => { ... }"
// parses as a function whose params were written in parens.
func (p *Parser) atomExpression() (*Node, error) {
	if fn, ok, err := p.tryFunction(); err != nil {
		return nil, err
	} else if ok {
		return fn, nil
	}

	t := p.peek()
	switch t.Kind {
	case lex.INTEGER, lex.FLOAT, lex.STRING_DQ, lex.STRING_SQ, lex.STRING_RAW:
		p.advance()
		return ruleNode("literal", tokenNode(t)), nil
	case lex.IDENTIFIER:
		p.advance()
		return ruleNode("identifier", tokenNode(t)), nil
	case lex.LPAREN:
		start := p.advance()
		inner, err := p.expression()
		if err != nil {
			return nil, err
		}
		end, err := p.expect(lex.RPAREN)
		if err != nil {
			return nil, err
		}
		_ = start
		n := ruleNode("paren", inner)
		n.Span.End = end.Pos
		return n, nil
	case lex.LBRACKET:
		return p.list()
	default:
		return nil, fmt.Errorf("%s: unexpected token %s %q in expression", t.Pos, t.Kind, t.Text)
	}
}

// tryFunction speculatively parses "params return_type? '=>' annotation*
// block". params takes one of the three forms spec.md §4.B describes: a
// lone identifier, a list, or a parenthesized typed-parameter list (the
// concrete shape chosen for "(a: i32, b: i32)", since a bare identifier
// followed by ": type" is not otherwise a valid expression). Returns
// ok=false, with the parser rewound, on any
// mismatch.
func (p *Parser) tryFunction() (*Node, bool, error) {
	save := p.pos
	var params *Node
	var err error
	switch p.peek().Kind {
	case lex.IDENTIFIER:
		id := p.advance()
		params = ruleNode("params_ident", tokenNode(id))
	case lex.LBRACKET:
		params, err = p.list()
	case lex.LPAREN:
		params, err = p.paramsParenList()
	default:
		return nil, false, nil
	}
	if err != nil {
		p.pos = save
		return nil, false, nil
	}

	var ret *Node
	if p.peekKind(lex.COLON) {
		save2 := p.pos
		p.advance()
		id, err := p.expect(lex.IDENTIFIER)
		if err != nil {
			p.pos = save2
		} else {
			ret = ruleNode("return_type", tokenNode(id))
		}
	}

	if !p.peekKind(lex.ARROW) {
		p.pos = save
		return nil, false, nil
	}
	p.advance() // =>

	var anns []*Node
	for !p.peekKind(lex.LBRACE) {
		if p.peekKind(lex.BANG) {
			bang := p.advance()
			id, err := p.expect(lex.IDENTIFIER)
			if err != nil {
				return nil, false, err
			}
			anns = append(anns, ruleNode("annotation",
				ruleNode("identifier", tokenNode(lex.Token{Kind: lex.IDENTIFIER, Text: "!" + id.Text, Pos: bang.Pos}))))
			continue
		}
		a, err := p.atomExpression()
		if err != nil {
			return nil, false, err
		}
		anns = append(anns, ruleNode("annotation", a))
	}
	body, err := p.block()
	if err != nil {
		return nil, false, err
	}

	children := []*Node{params}
	if ret != nil {
		children = append(children, ret)
	}
	children = append(children, anns...)
	children = append(children, body)
	return ruleNode("function", children...), true, nil
}

// paramsParenList -> '(' (param (',' param)*)? ')', param -> IDENTIFIER (COLON IDENTIFIER)?
func (p *Parser) paramsParenList() (*Node, error) {
	open, err := p.expect(lex.LPAREN)
	if err != nil {
		return nil, err
	}
	var items []*Node
	for !p.peekKind(lex.RPAREN) {
		id, err := p.expect(lex.IDENTIFIER)
		if err != nil {
			return nil, err
		}
		item := []*Node{tokenNode(id)}
		if p.peekKind(lex.COLON) {
			p.advance()
			tid, err := p.expect(lex.IDENTIFIER)
			if err != nil {
				return nil, err
			}
			item = append(item, ruleNode("param_type", tokenNode(tid)))
		}
		items = append(items, ruleNode("param", item...))
		if p.peekKind(lex.COMMA) {
			p.advance()
			continue
		}
		break
	}
	close_, err := p.expect(lex.RPAREN)
	if err != nil {
		return nil, err
	}
	n := ruleNodeOrEmpty("params_paren", items)
	n.Span = source.Span{Start: open.Pos, End: close_.Pos}
	return n, nil
}

// block -> '{' stmtList '}'
func (p *Parser) block() (*Node, error) {
	open, err := p.expect(lex.LBRACE)
	if err != nil {
		return nil, err
	}
	var stmts []*Node
	for !p.peekKind(lex.RBRACE) {
		s, err := p.stmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
		if p.peekKind(lex.SEMI) {
			p.advance()
		} else {
			break
		}
	}
	close_, err := p.expect(lex.RBRACE)
	if err != nil {
		return nil, err
	}
	n := ruleNodeOrEmpty("block", stmts)
	n.Span = source.Span{Start: open.Pos, End: close_.Pos}
	return n, nil
}

// list -> '[' (list_item (',' list_item)*)? ']'
func (p *Parser) list() (*Node, error) {
	open, err := p.expect(lex.LBRACKET)
	if err != nil {
		return nil, err
	}
	var items []*Node
	for !p.peekKind(lex.RBRACKET) {
		item, err := p.listItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if p.peekKind(lex.COMMA) {
			p.advance()
			continue
		}
		break
	}
	close_, err := p.expect(lex.RBRACKET)
	if err != nil {
		return nil, err
	}
	n := ruleNodeOrEmpty("list", items)
	n.Span = source.Span{Start: open.Pos, End: close_.Pos}
	return n, nil
}

// list_item -> (IDENTIFIER COLON)? expression
func (p *Parser) listItem() (*Node, error) {
	var key *Node
	if p.peekKind(lex.IDENTIFIER) && p.pos+1 < len(p.toks) && p.toks[p.pos+1].Kind == lex.COLON {
		id := p.advance()
		p.advance() // COLON
		key = tokenNode(id)
	}
	val, err := p.expression()
	if err != nil {
		return nil, err
	}
	if key != nil {
		return ruleNode("list_item", key, val), nil
	}
	return ruleNode("list_item", val), nil
}
