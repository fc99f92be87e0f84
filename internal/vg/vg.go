// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vg builds the value graph (spec.md §4.D, component E): an
// SSA-like reification of the annotated AST into ValueNodes wired through
// typed Edges (call / listdef / kvdef / fndef), with PhiNodes standing in
// for not-yet-resolved identifier references.
//
// Grounded on the teacher's extras/cfg package: both build a graph
// structure (there a control-flow graph, here a value graph) by walking
// an already-scope-resolved AST once, allocating one graph node per
// syntactic construct and reusing a by-identity cache to avoid duplicate
// nodes for a reused AST subtree.
package vg

import (
	"fmt"

	"github.com/godoctor/langcore/internal/ast"
	"github.com/godoctor/langcore/internal/bdg"
)

// ValueKind is the closed set of value-node kinds (spec.md §3).
type ValueKind int

const (
	KindLiteral ValueKind = iota
	KindSymbol
	KindBlock
	KindExpr
)

func (k ValueKind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindSymbol:
		return "symbol"
	case KindBlock:
		return "block"
	case KindExpr:
		return "expr"
	default:
		return "unknown"
	}
}

// ValueNode is one node of the value graph (spec.md §3). Placeholder is
// set transiently for identifier references during construction; by the
// time the phi resolver (internal/phi) finishes, no ValueNode it produced
// is still consulted as a placeholder.
//
// Two kinds of expr-kind node carry no InEdge, by spec.md §4.D's own
// design: a builtin-name reference ("create...an expr-kind value node
// naming the builtin") and, in this implementation, an identifier
// reference, whose value is whatever its phi (Graph.AliasAt) resolves to,
// possibly another identifier's own reference node (an alias chain).
// Both are terminal lookup roots, not constructive values;
// internal/phi is responsible for chasing an alias to its true value.
type ValueNode struct {
	ID          int
	Kind        ValueKind
	AST         ast.Node
	InEdge      *Edge
	Placeholder bool
}

// EdgeKind is the closed set of edge kinds (spec.md §3).
type EdgeKind int

const (
	EdgeCall EdgeKind = iota
	EdgeListdef
	EdgeKvdef
	EdgeFndef
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeCall:
		return "call"
	case EdgeListdef:
		return "listdef"
	case EdgeKvdef:
		return "kvdef"
	case EdgeFndef:
		return "fndef"
	default:
		return "unknown"
	}
}

// PhiNode is a transient "edge port" (spec.md §9): an edge slot that may
// hold several depth-keyed candidate values until the phi resolver
// collapses it to one.
type PhiNode struct {
	ID         int
	Ident      *ast.Identifier // non-nil for a BindPhi-backed phi
	BindPhi    *bdg.BindPhi
	Candidates map[int][]*ValueNode

	// Resolved is set by internal/phi once this phi's innermost-scope
	// candidate has been selected (spec.md §4.E). Nil until then.
	Resolved *ValueNode
}

// Edge connects a set of input phis (and, for calls, a transform phi) to
// a single expr-kind output ValueNode (spec.md §3).
type Edge struct {
	ID        int
	Kind      EdgeKind
	Output    *ValueNode
	Transform *PhiNode // required for EdgeCall, nil otherwise
	Inputs    []*PhiNode
	AST       ast.Node

	// IsEffect, EffectIndex and EffectBlock are set by internal/effect
	// (spec.md §4.G): every call edge carries is_effect, and if true a
	// zero-based effect_index unique within EffectBlock. fndef edges are
	// never effectful (spec.md §4.G, "fndef edges are never effectful").
	IsEffect    bool
	EffectIndex int
	EffectBlock *bdg.BlockInfo
}

// TransformValue returns the resolved value behind e.Transform, or nil if
// e has no transform or it is not yet resolved (see internal/phi).
func (e *Edge) TransformValue() *ValueNode {
	if e.Transform == nil {
		return nil
	}
	return e.Transform.Resolved
}

// InputValues returns the resolved value behind each of e.Inputs, in
// order (spec.md §4.E: "every entry in Edge.inputs is replaced by the
// resolved ValueNode").
func (e *Edge) InputValues() []*ValueNode {
	out := make([]*ValueNode, len(e.Inputs))
	for i, p := range e.Inputs {
		if p != nil {
			out[i] = p.Resolved
		}
	}
	return out
}

// Graph is the complete output of Build.
type Graph struct {
	Nodes []*ValueNode
	Edges []*Edge
	Phis  []*PhiNode

	// AliasAt maps an identifier-reference ValueNode to the PhiNode that
	// resolves it. internal/phi consults this to chase an alias chain
	// (spec.md §4.D's connect_identifiers output) down to its terminal
	// value before recording it as a phi's Resolved value.
	AliasAt map[*ValueNode]*PhiNode
}

type builder struct {
	g *Graph

	nextNodeID, nextEdgeID, nextPhiID int

	valueOf        map[ast.Expr]*ValueNode
	builtinCache   map[string]*ValueNode
	symbolCache    map[string]*ValueNode
	stmtValue      map[*ast.Stmt]*ValueNode
	placeholderPhi map[*ValueNode]*PhiNode
}

// Build runs the value-graph construction and identifier-placeholder
// connection passes (spec.md §4.D) over a BDG-annotated program.
func Build(idx *bdg.Index) (*Graph, error) {
	b := &builder{
		g:              &Graph{AliasAt: map[*ValueNode]*PhiNode{}},
		valueOf:        map[ast.Expr]*ValueNode{},
		builtinCache:   map[string]*ValueNode{},
		symbolCache:    map[string]*ValueNode{},
		stmtValue:      map[*ast.Stmt]*ValueNode{},
		placeholderPhi: map[*ValueNode]*PhiNode{},
	}

	queue := []*bdg.BlockInfo{idx.RootBlock}
	for len(queue) > 0 {
		bi := queue[0]
		queue = queue[1:]
		for _, st := range bi.AST.Stmts {
			v, err := b.buildExpr(st.Expr)
			if err != nil {
				return nil, err
			}
			b.stmtValue[st] = v
		}
		queue = append(queue, bi.Children...)
	}

	if err := b.connectIdentifiers(); err != nil {
		return nil, err
	}
	b.g.AliasAt = b.placeholderPhi
	return b.g, nil
}

func (b *builder) newNode(kind ValueKind, origin ast.Node) *ValueNode {
	b.nextNodeID++
	n := &ValueNode{ID: b.nextNodeID, Kind: kind, AST: origin}
	b.g.Nodes = append(b.g.Nodes, n)
	return n
}

func (b *builder) newEdge(kind EdgeKind, output *ValueNode, transform *PhiNode, inputs []*PhiNode, origin ast.Node) *Edge {
	b.nextEdgeID++
	e := &Edge{ID: b.nextEdgeID, Kind: kind, Output: output, Transform: transform, Inputs: inputs, AST: origin}
	b.g.Edges = append(b.g.Edges, e)
	output.InEdge = e
	return e
}

// wrapAsPhiInput wraps v as a singleton, depth-0 phi (spec.md §4.D: "wrap
// fn's value in a phi (singleton candidate, depth 0)"). Placeholder
// values are wrapped at most once: every use of the same placeholder
// shares the one phi that this package's connectIdentifiers pass will
// later mutate in place, so every edge referencing it observes the same
// resolved candidate set.
func (b *builder) wrapAsPhiInput(v *ValueNode) *PhiNode {
	if v.Placeholder {
		if p, ok := b.placeholderPhi[v]; ok {
			return p
		}
	}
	b.nextPhiID++
	p := &PhiNode{ID: b.nextPhiID, Candidates: map[int][]*ValueNode{0: {v}}}
	b.g.Phis = append(b.g.Phis, p)
	if v.Placeholder {
		b.placeholderPhi[v] = p
	}
	return p
}

func (b *builder) buildExpr(e ast.Expr) (*ValueNode, error) {
	if v, ok := b.valueOf[e]; ok {
		return v, nil
	}
	var v *ValueNode
	var err error
	switch n := e.(type) {
	case *ast.Literal:
		v = b.newNode(KindLiteral, n)
	case *ast.Identifier:
		v = b.newNode(KindExpr, n)
		v.Placeholder = true
	case *ast.Call:
		v, err = b.buildCall(n)
	case *ast.Function:
		v, err = b.buildFunction(n)
	case *ast.List:
		v, err = b.buildListLike(n, false)
	default:
		return nil, fmt.Errorf("value graph: unrecognized AST expression %T", e)
	}
	if err != nil {
		return nil, err
	}
	b.valueOf[e] = v
	return v, nil
}

func (b *builder) buildCall(c *ast.Call) (*ValueNode, error) {
	fnVal, err := b.buildExpr(c.Fn)
	if err != nil {
		return nil, err
	}
	argVal, err := b.buildExpr(c.Arg)
	if err != nil {
		return nil, err
	}
	out := b.newNode(KindExpr, c)
	transform := b.wrapAsPhiInput(fnVal)
	argPhi := b.wrapAsPhiInput(argVal)
	b.newEdge(EdgeCall, out, transform, []*PhiNode{argPhi}, c)
	return out, nil
}

func (b *builder) buildFunction(fn *ast.Function) (*ValueNode, error) {
	paramsVal, err := b.buildParams(fn.Params)
	if err != nil {
		return nil, err
	}
	inputs := []*PhiNode{b.wrapAsPhiInput(paramsVal)}

	if fn.ReturnType != "" {
		inputs = append(inputs, b.wrapAsPhiInput(b.symbolValue(fn.ReturnType, fn)))
	}
	for _, a := range fn.Annotations {
		annVal, err := b.buildAnnotation(a)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, b.wrapAsPhiInput(annVal))
	}

	bodyVal := b.newNode(KindBlock, fn.Body)
	inputs = append(inputs, b.wrapAsPhiInput(bodyVal))

	out := b.newNode(KindExpr, fn)
	b.newEdge(EdgeFndef, out, nil, inputs, fn)
	return out, nil
}

// buildAnnotation treats an annotation as a name marker rather than a
// reference to resolve (spec.md §4.G's effect-annotation check inspects
// the annotation identifier's name directly off the AST); see
// internal/bdg's matching decision not to resolve annotations.
func (b *builder) buildAnnotation(a ast.Expr) (*ValueNode, error) {
	if id, ok := a.(*ast.Identifier); ok {
		return b.symbolValue(id.Name, id), nil
	}
	return b.buildExpr(a)
}

// buildParams builds a Function's parameter list. Spec.md §4.D says only
// "recurse on params" (the same generic rule as any other expression),
// but a parameter *name* is a binding occurrence, not a use, so unlike an
// ordinary list's unkeyed items (which recurse into a genuine
// sub-expression) an unkeyed parameter entry's bare-identifier name
// becomes a cached symbol value directly rather than an unresolved
// placeholder — see DESIGN.md.
func (b *builder) buildParams(params ast.Expr) (*ValueNode, error) {
	if id, ok := params.(*ast.Identifier); ok {
		return b.symbolValue(id.Name, id), nil
	}
	lst, ok := params.(*ast.List)
	if !ok {
		return nil, fmt.Errorf("value graph: unrecognized params shape %T", params)
	}
	return b.buildListLike(lst, true)
}

// buildListLike implements spec.md §4.D's List lowering rule, shared by
// ordinary list literals and (with paramMode) function parameter lists.
func (b *builder) buildListLike(lst *ast.List, paramMode bool) (*ValueNode, error) {
	var inputs []*PhiNode
	for _, it := range lst.Items {
		var itemVal *ValueNode
		switch {
		case it.HasKey:
			keySym := b.symbolValue(it.Key, it)
			valVal, err := b.buildExpr(it.Value)
			if err != nil {
				return nil, err
			}
			kvOut := b.newNode(KindExpr, it)
			b.newEdge(EdgeKvdef, kvOut, nil, []*PhiNode{b.wrapAsPhiInput(keySym), b.wrapAsPhiInput(valVal)}, it)
			itemVal = kvOut
		case paramMode:
			id, ok := it.Value.(*ast.Identifier)
			if !ok {
				return nil, fmt.Errorf("value graph: bare parameter entry is not an identifier (%T)", it.Value)
			}
			itemVal = b.symbolValue(id.Name, id)
		default:
			v, err := b.buildExpr(it.Value)
			if err != nil {
				return nil, err
			}
			itemVal = v
		}
		inputs = append(inputs, b.wrapAsPhiInput(itemVal))
	}
	out := b.newNode(KindExpr, lst)
	b.newEdge(EdgeListdef, out, nil, inputs, lst)
	return out, nil
}

func (b *builder) symbolValue(name string, origin ast.Node) *ValueNode {
	if v, ok := b.symbolCache[name]; ok {
		return v
	}
	v := b.newNode(KindSymbol, origin)
	b.symbolCache[name] = v
	return v
}

func (b *builder) builtinValue(name string) *ValueNode {
	if v, ok := b.builtinCache[name]; ok {
		return v
	}
	v := b.newNode(KindExpr, nil)
	b.builtinCache[name] = v
	return v
}

// connectIdentifiers implements spec.md §4.D's connect_identifiers: every
// placeholder whose owning identifier carries a BindPhi gets a
// fully-populated phi built from the same three point-origin cases
// connect_identifiers describes, extended with this implementation's
// fourth case for a parameter-origin point (see internal/bdg.Point.Param).
func (b *builder) connectIdentifiers() error {
	for _, n := range append([]*ValueNode(nil), b.g.Nodes...) {
		if !n.Placeholder {
			continue
		}
		id, ok := n.AST.(*ast.Identifier)
		if !ok {
			continue
		}
		bp, ok := id.BindPhiRes.(*bdg.BindPhi)
		if !ok || bp == nil {
			continue
		}

		cands := map[int][]*ValueNode{}
		for depth, points := range bp.Candidates {
			for _, p := range points {
				v, err := b.valueForPoint(p)
				if err != nil {
					return err
				}
				cands[depth] = append(cands[depth], v)
			}
		}

		phi := b.wrapAsPhiInput(n) // creates one if this placeholder was never used as an edge input
		phi.Ident = id
		phi.BindPhi = bp
		phi.Candidates = cands
		n.Placeholder = false
	}
	return nil
}

// valueForPoint resolves a bdg.Point to the ValueNode it denotes,
// building the defining statement's value lazily if it is not yet
// memoized (spec.md §4.D).
func (b *builder) valueForPoint(p *bdg.Point) (*ValueNode, error) {
	switch {
	case p.Stmt != nil:
		if v, ok := b.stmtValue[p.Stmt]; ok {
			return v, nil
		}
		v, err := b.buildExpr(p.Stmt.Expr)
		if err != nil {
			return nil, err
		}
		b.stmtValue[p.Stmt] = v
		return v, nil
	case p.Param != nil:
		return b.symbolValue(p.Name, p.Param), nil
	case p.Kind == bdg.PointBuiltin:
		return b.builtinValue(p.Name), nil
	case p.Kind == bdg.PointSymbol:
		return b.symbolValue(p.Name, p.Item), nil
	default:
		return nil, fmt.Errorf("value graph: point %q has no resolvable origin", p.Name)
	}
}
