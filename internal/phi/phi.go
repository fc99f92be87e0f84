// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package phi implements the phi resolver (spec.md §4.E, component F):
// collapsing every PhiNode in a value graph to its single innermost-scope
// winning ValueNode, recorded in the phi's Resolved field. Edges keep
// their PhiNode references; the winning values are read through Resolved
// (vg.Edge.InputValues and its transform counterpart).
//
// Grounded on the teacher's analysis/cfg dominance-frontier resolution
// style: a post-construction pass over an already-built graph that
// mutates node fields in place rather than rebuilding the graph, the same
// shape internal/vg's connect_identifiers already uses for its own
// in-place phi mutation.
package phi

import (
	"github.com/godoctor/langcore/cerr"
	"github.com/godoctor/langcore/internal/ast"
	"github.com/godoctor/langcore/internal/vg"
	"github.com/godoctor/langcore/source"
)

// Resolve selects, for every phi in g, the single winning ValueNode
// (spec.md §4.E's innermost-scope rule: d* = max(keys(candidates)), then
// the unique member of candidates[d*]), chasing through any alias
// reference (internal/vg's Graph.AliasAt) until it lands on a terminal
// value. On success every phi's Resolved field is set and g.Phis is
// cleared (spec.md §8, "After phi resolution: graph.phis is empty").
func Resolve(g *vg.Graph) error {
	resolving := map[*vg.PhiNode]bool{}
	for _, p := range g.Phis {
		if _, err := resolveOne(g, p, resolving); err != nil {
			return err
		}
	}
	g.Phis = nil
	return nil
}

// resolveOne resolves p (memoized via p.Resolved) and returns its winning
// value, chasing alias chains through g.AliasAt. resolving guards against
// a cyclic binding (e.g. `x := y; y := x`), which is not a program shape
// spec.md addresses; this implementation reports it as an unresolved
// reference rather than looping forever.
func resolveOne(g *vg.Graph, p *vg.PhiNode, resolving map[*vg.PhiNode]bool) (*vg.ValueNode, error) {
	if p.Resolved != nil {
		return p.Resolved, nil
	}
	if resolving[p] {
		return nil, cerr.New(cerr.UnresolvedReference, identPos(p), "circular binding involving %q", identName(p))
	}
	resolving[p] = true
	defer delete(resolving, p)

	winner, err := selectInnermost(p)
	if err != nil {
		return nil, err
	}

	if alias, ok := g.AliasAt[winner]; ok && alias != p {
		resolved, err := resolveOne(g, alias, resolving)
		if err != nil {
			return nil, err
		}
		winner = resolved
	}

	p.Resolved = winner
	return winner, nil
}

// selectInnermost applies spec.md §4.E's selection rule to p's raw
// (pre-alias-chase) candidate set.
func selectInnermost(p *vg.PhiNode) (*vg.ValueNode, error) {
	if len(p.Candidates) == 0 {
		return nil, cerr.New(cerr.UnresolvedReference, identPos(p), "%q has no candidate binding in scope", identName(p))
	}
	dStar := 0
	first := true
	for d := range p.Candidates {
		if first || d > dStar {
			dStar = d
			first = false
		}
	}
	set := p.Candidates[dStar]
	switch {
	case len(set) == 0:
		return nil, cerr.New(cerr.UnresolvedReference, identPos(p), "%q has no candidate binding in scope", identName(p))
	case len(set) > 1:
		return nil, cerr.New(cerr.AmbiguousReference, identPos(p), "%q resolves to more than one binding at the same scope depth", identName(p))
	default:
		return set[0], nil
	}
}

func identName(p *vg.PhiNode) string {
	if p.Ident != nil {
		return p.Ident.Name
	}
	return "<value>"
}

func identPos(p *vg.PhiNode) source.Position {
	if p.Ident != nil {
		return ast.Position(p.Ident)
	}
	return source.Position{}
}
