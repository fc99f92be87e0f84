// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package closure implements the closure converter (spec.md §4.F,
// component G): lifting free symbols into a function's own input list
// and rewriting call sites to pass them along, iterated to a
// whole-program fixpoint.
//
// Grounded on the teacher's analysis/dataflow live-variables builder
// (_examples/godoctor-godoctor/analysis/dataflow/): both compute a
// per-block used/def set via a worklist over a fixed, finite universe,
// the same monotone-fixpoint shape spec.md §5 calls for explicitly
// ("closure conversion merges sets monotonically").
package closure

import (
	"fmt"

	"github.com/godoctor/langcore/cerr"
	"github.com/godoctor/langcore/internal/ast"
	"github.com/godoctor/langcore/internal/vg"
)

// Result records, per fndef edge, the free symbols closure conversion
// prepended to its inputs (spec.md §4.F's closure_param_map), in the
// order they were prepended.
type Result struct {
	ClosureParams map[*vg.Edge][]*vg.ValueNode
}

// Convert runs closure conversion over a phi-resolved graph (every
// PhiNode's Resolved field must already be set; see internal/phi).
func Convert(g *vg.Graph) (*Result, error) {
	res := &Result{ClosureParams: map[*vg.Edge][]*vg.ValueNode{}}
	fndefs := fndefEdges(g)

	// Bounded worklist fixpoint (spec.md §4.F, "process via worklist
	// until no further changes"); the lattice is finite (one bit per
	// value per fndef edge), so this always terminates well inside the
	// edge-count bound.
	for pass := 0; pass <= len(g.Edges)+1; pass++ {
		changed := false
		for _, f := range fndefs {
			free, err := usedSymbols(g, f)
			if err != nil {
				return nil, err
			}
			if added := extendSignature(f, free, res); added {
				changed = true
				rewriteCallSites(g, f, res.ClosureParams[f])
			}
		}
		if !changed {
			break
		}
	}

	if err := finalCheck(g, fndefs); err != nil {
		return nil, err
	}
	return res, nil
}

func fndefEdges(g *vg.Graph) []*vg.Edge {
	var out []*vg.Edge
	for _, e := range g.Edges {
		if e.Kind == vg.EdgeFndef {
			out = append(out, e)
		}
	}
	return out
}

// closeOverValues transitively closes seeds over in_edge back-pointers:
// a value produced by an edge pulls in that edge's own transform and
// input values, and so on. Used both to expand a fndef's formal-input
// set (the params/return/annotation values nest their own symbol-kind
// children one edge down, e.g. a parameter name inside its kvdef) and to
// expand a body's used-value set.
func closeOverValues(seeds []*vg.ValueNode) (map[*vg.ValueNode]bool, []*vg.ValueNode) {
	closed := map[*vg.ValueNode]bool{}
	var order []*vg.ValueNode
	var worklist []*vg.ValueNode
	add := func(v *vg.ValueNode) {
		if v != nil && !closed[v] {
			closed[v] = true
			order = append(order, v)
			worklist = append(worklist, v)
		}
	}
	for _, s := range seeds {
		add(s)
	}
	for len(worklist) > 0 {
		v := worklist[0]
		worklist = worklist[1:]
		if v.InEdge == nil {
			continue
		}
		add(v.InEdge.TransformValue())
		for _, c := range v.InEdge.InputValues() {
			add(c)
		}
	}
	return closed, order
}

// bodyBlockAST finds the *ast.Block belonging to f's body input, and the
// set of values formally provided by its signature: every other input
// (params, return type, annotations) together with everything nested
// inside them (e.g. a parameter's own symbol value, one edge down inside
// the params list's kvdef). Position-independent of where the body input
// currently sits in f.Inputs, since prior closure passes may already have
// prepended free symbols in front of it.
func bodyBlockAST(f *vg.Edge) (*ast.Block, map[*vg.ValueNode]bool) {
	var blockAST *ast.Block
	var nonBody []*vg.ValueNode
	for _, p := range f.Inputs {
		if p.Resolved == nil {
			continue
		}
		if p.Resolved.Kind == vg.KindBlock {
			if b, ok := p.Resolved.AST.(*ast.Block); ok {
				blockAST = b
				continue
			}
		}
		nonBody = append(nonBody, p.Resolved)
	}
	formal, _ := closeOverValues(nonBody)
	return blockAST, formal
}

// usedSymbols computes f's free symbols (spec.md §4.F's "free-variable
// analysis per fndef edge"): every value directly used by an edge
// syntactically within f's body, closed transitively over in_edge
// back-pointers, restricted to symbol-kind values not already formal.
func usedSymbols(g *vg.Graph, f *vg.Edge) ([]*vg.ValueNode, error) {
	blockAST, formal := bodyBlockAST(f)
	if blockAST == nil {
		return nil, fmt.Errorf("closure conversion: fndef edge has no body input")
	}

	var seeds []*vg.ValueNode
	for _, e := range g.Edges {
		if e.AST == nil || !ast.IsWithin(e.AST, blockAST) {
			continue
		}
		seeds = append(seeds, e.TransformValue())
		seeds = append(seeds, e.InputValues()...)
	}
	_, order := closeOverValues(seeds)

	var free []*vg.ValueNode
	for _, v := range order {
		if v.Kind == vg.KindSymbol && !formal[v] {
			free = append(free, v)
		}
	}
	return free, nil
}

// extendSignature prepends any not-yet-captured members of free to f's
// inputs (spec.md §4.F, "Signature extension"), recording them in
// res.ClosureParams. Returns whether anything new was prepended.
func extendSignature(f *vg.Edge, free []*vg.ValueNode, res *Result) bool {
	existing := res.ClosureParams[f]
	have := map[*vg.ValueNode]bool{}
	for _, v := range existing {
		have[v] = true
	}

	var fresh []*vg.ValueNode
	for _, v := range free {
		if !have[v] {
			fresh = append(fresh, v)
		}
	}
	if len(fresh) == 0 {
		return false
	}

	newPhis := make([]*vg.PhiNode, len(fresh))
	for i, v := range fresh {
		newPhis[i] = &vg.PhiNode{Resolved: v}
	}
	f.Inputs = append(newPhis, f.Inputs...)
	res.ClosureParams[f] = append(append([]*vg.ValueNode{}, fresh...), existing...)
	return true
}

// rewriteCallSites prepends closureVals to every call edge whose callee
// (transform value) is f's own output, skipping values already present
// (spec.md §4.F, "Call-site rewrite").
func rewriteCallSites(g *vg.Graph, f *vg.Edge, closureVals []*vg.ValueNode) {
	for _, e := range g.Edges {
		if e.Kind != vg.EdgeCall || e.TransformValue() != f.Output {
			continue
		}
		present := map[*vg.ValueNode]bool{}
		for _, v := range e.InputValues() {
			present[v] = true
		}
		var toAdd []*vg.ValueNode
		for _, v := range closureVals {
			if !present[v] {
				toAdd = append(toAdd, v)
			}
		}
		if len(toAdd) == 0 {
			continue
		}
		newPhis := make([]*vg.PhiNode, len(toAdd))
		for i, v := range toAdd {
			newPhis[i] = &vg.PhiNode{Resolved: v}
		}
		e.Inputs = append(newPhis, e.Inputs...)
	}
}

// finalCheck enforces spec.md §4.F's invariant: every symbol-kind value
// read inside any fndef's body must, by now, be one of that fndef's
// inputs. Uses the same transitive closure usedSymbols does, so a symbol
// buried a few edges deep in the body can't slip past a shallow check.
func finalCheck(g *vg.Graph, fndefs []*vg.Edge) error {
	for _, f := range fndefs {
		free, err := usedSymbols(g, f)
		if err != nil {
			continue
		}
		if len(free) > 0 {
			return cerr.New(cerr.FreeSymbolInFunction, ast.Position(free[0].AST),
				"symbol %q escapes its function's body without being captured", symbolName(free[0]))
		}
	}
	return nil
}

func symbolName(v *vg.ValueNode) string {
	switch n := v.AST.(type) {
	case *ast.ListItem:
		return n.Key
	case *ast.Identifier:
		return n.Name
	default:
		return "<symbol>"
	}
}
