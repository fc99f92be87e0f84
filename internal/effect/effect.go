// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package effect implements the effect analyzer (spec.md §4.G, component
// H): marking call edges as effectful by builtin identity, by annotation,
// or by transitive same-block dependency, then totally ordering each
// block's effectful calls by source position.
//
// Grounded on the teacher's analysis/dataflow reaching-definitions pass
// (_examples/godoctor-godoctor/analysis/dataflow/): a per-block gen/kill
// bitset fixpoint over a small, dense index space. Unlike
// internal/closure's value-graph-wide sets (pointers, no natural dense
// index), a block's own call edges form exactly that kind of small dense
// universe, so this component wires bits-and-blooms/bitset directly for
// its per-block fixpoint rather than a plain map.
package effect

import (
	"sort"

	"github.com/bits-and-blooms/bitset"
	"github.com/godoctor/langcore/cerr"
	"github.com/godoctor/langcore/internal/ast"
	"github.com/godoctor/langcore/internal/bdg"
	"github.com/godoctor/langcore/internal/intrinsic"
	"github.com/godoctor/langcore/internal/vg"
	"github.com/godoctor/langcore/source"
)

// Analyze runs effect analysis over a closure-converted graph (spec.md
// §4.G) using the default builtin effect set (internal/intrinsic.EffectNames).
// idx is the same bdg.Index that built g, used for its block tree and
// depth ordering. Blocks are processed deepest-first, so that by the
// time an outer block's calls are seeded, every nested function's body
// has already determined whether that function is itself effectful.
func Analyze(g *vg.Graph, idx *bdg.Index) error {
	return AnalyzeWithEffects(g, idx, intrinsic.EffectNames)
}

// AnalyzeWithEffects runs the same analysis as Analyze but seeds step 1
// (spec.md §4.G, "seed from builtins") from effectNames instead of the
// default set. This backs pipeline.WithEffectNames: a caller configuring
// a sandboxed or extended builtin profile can mark a different subset of
// calls as effectful by identity without forking the analyzer.
func AnalyzeWithEffects(g *vg.Graph, idx *bdg.Index, effectNames []string) error {
	blocks := append([]*bdg.BlockInfo(nil), idx.Blocks...)
	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].Depth > blocks[j].Depth })

	effectfulFnOutputs := map[*vg.ValueNode]bool{}

	for _, bi := range blocks {
		if err := analyzeBlock(g, bi, effectfulFnOutputs, effectNames); err != nil {
			return err
		}
	}
	return nil
}

// analyzeBlock runs steps 1-5 of spec.md §4.G over the calls owned
// directly by bi (not those belonging to a nested function's own body).
func analyzeBlock(g *vg.Graph, bi *bdg.BlockInfo, effectfulFnOutputs map[*vg.ValueNode]bool, effectNames []string) error {
	var calls []*vg.Edge
	for _, e := range g.Edges {
		if e.Kind == vg.EdgeCall && e.AST != nil && ast.IsWithin(e.AST, bi.AST) {
			calls = append(calls, e)
		}
	}
	if len(calls) == 0 {
		return nil
	}

	outputIndex := map[*vg.ValueNode]int{}
	for i, c := range calls {
		outputIndex[c.Output] = i
	}

	effective := bitset.New(uint(len(calls)))

	// Steps 1-2: seed from builtin effect names and from effectful callees.
	for i, c := range calls {
		if calleeIsEffectful(c, effectfulFnOutputs, effectNames) {
			effective.Set(uint(i))
		}
	}

	// Step 3: propagate through same-block input dependencies to fixpoint.
	for {
		changed := false
		for i, c := range calls {
			if effective.Test(uint(i)) {
				continue
			}
			work := c.InputValues()
			for len(work) > 0 {
				v := work[0]
				work = work[1:]
				if v == nil || v.InEdge == nil {
					continue
				}
				// Look through the list/kv values call arguments are wrapped in.
				if k := v.InEdge.Kind; k == vg.EdgeListdef || k == vg.EdgeKvdef {
					work = append(work, v.InEdge.InputValues()...)
					continue
				}
				j, ok := outputIndex[v]
				if !ok || v.InEdge.Kind != vg.EdgeCall {
					continue
				}
				if effective.Test(uint(j)) {
					effective.Set(uint(i))
					changed = true
					break
				}
			}
		}
		if !changed {
			break
		}
	}

	anyEffectful := effective.Any()

	// Step 4: annotation check, then mark the owning function effectful.
	if anyEffectful {
		if fn, ok := ast.OwningFunction(bi.AST); ok {
			if !hasEffectAnnotation(fn) {
				return cerr.New(cerr.MissingEffectAnnotation, ast.Position(fn),
					"function performs effects but is not annotated !effect")
			}
			for _, e := range g.Edges {
				if e.Kind == vg.EdgeFndef && e.AST == fn {
					effectfulFnOutputs[e.Output] = true
				}
			}
		}
	}

	// Step 5: order the effectful calls and assign effect_index.
	var effectfulCalls []*vg.Edge
	for i, c := range calls {
		if effective.Test(uint(i)) {
			effectfulCalls = append(effectfulCalls, c)
		}
	}
	orderCalls(effectfulCalls)
	for i, c := range effectfulCalls {
		c.IsEffect = true
		c.EffectIndex = i
		c.EffectBlock = bi
	}
	return nil
}

// calleeIsEffectful implements spec.md §4.G steps 1-2: a call is
// effectful if its callee identifier names a builtin effect, its
// transform value is itself a !effect/effect!-annotated function
// literal, or that value is the output of a fndef already marked
// effectful from a deeper block.
//
// The builtin-name check reads the call's own Fn identifier off the AST
// rather than the resolved transform value: builtin values are cached by
// name (internal/vg's builtinValue) but carry no AST back-reference of
// their own to recover that name from.
func calleeIsEffectful(c *vg.Edge, effectfulFnOutputs map[*vg.ValueNode]bool, effectNames []string) bool {
	if call, ok := c.AST.(*ast.Call); ok {
		if id, ok := call.Fn.(*ast.Identifier); ok && intrinsic.IsEffectIn(effectNames, id.Name) {
			return true
		}
	}
	callee := c.TransformValue()
	if callee == nil {
		return false
	}
	if fn, ok := callee.AST.(*ast.Function); ok && hasEffectAnnotation(fn) {
		return true
	}
	return effectfulFnOutputs[callee]
}

func hasEffectAnnotation(fn *ast.Function) bool {
	for _, a := range fn.Annotations {
		id, ok := a.(*ast.Identifier)
		if ok && (id.Name == "!effect" || id.Name == "effect!") {
			return true
		}
	}
	return false
}

// orderCalls implements spec.md §4.G step 5: sort by the enclosing
// statement's source position, then by the call's own position within
// that statement; calls with no enclosing statement sort last, by edge
// id.
func orderCalls(calls []*vg.Edge) {
	sort.SliceStable(calls, func(i, j int) bool {
		a, b := calls[i], calls[j]
		sa, oka := statementKey(a)
		sb, okb := statementKey(b)
		if oka != okb {
			return oka
		}
		if !oka {
			return a.ID < b.ID
		}
		if sa != sb {
			return less(sa, sb)
		}
		return less(ast.Position(a.AST), ast.Position(b.AST))
	})
}

func statementKey(e *vg.Edge) (source.Position, bool) {
	st := ast.EnclosingStmt(e.AST)
	if st == nil {
		return source.Position{}, false
	}
	return ast.Position(st), true
}

func less(a, b source.Position) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Col < b.Col
}
