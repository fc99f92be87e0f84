// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bdg builds the binding/dependency graph (spec.md §4.C,
// component C): the block tree, the point index (definition sites), and
// the bindphi index (identifier-use resolution candidates). It is the
// lexical-scope-resolution phase between AST lowering and value-graph
// construction.
//
// Grounded on the teacher's analysis/names package: a multi-phase,
// depth-ordered scope walk producing a flat index of named declarations
// rather than mutating the AST in place, the same shape as
// go/types-style "fact tables" keyed by identifier.
package bdg

import (
	"sort"

	"github.com/godoctor/langcore/cerr"
	"github.com/godoctor/langcore/internal/ast"
	"github.com/godoctor/langcore/internal/intrinsic"
	"github.com/godoctor/langcore/source"
)

// PointKind is the closed set of definition-site kinds (spec.md §3).
type PointKind int

const (
	PointDef PointKind = iota
	PointBuiltin
	PointSymbol
)

func (k PointKind) String() string {
	switch k {
	case PointDef:
		return "point"
	case PointBuiltin:
		return "builtin"
	case PointSymbol:
		return "symbol"
	default:
		return "unknown"
	}
}

// Point is a definition site for a name (spec.md §3). Exactly one of
// Block/Stmt, Block/Param, or Item is set according to Kind; PointBuiltin
// points have none of them.
//
// Param is this implementation's extension to spec.md §4.C phase 1: the
// spec's phase 1 creates a point-typed Point only for Stmt bind targets,
// which leaves no mechanism for a function parameter's own name ever to
// resolve inside its body (spec.md §8 scenario 2's `a` in
// `(a: i32) => !pure { +(a, 1) }` would otherwise be permanently
// unresolved). This implementation additionally registers each parameter
// name as a point-typed Point owned by the function's body block, at the
// body's depth — see DESIGN.md.
type Point struct {
	ID          int
	Kind        PointKind
	Name        string
	Block       *BlockInfo    // non-nil when Kind == PointDef
	Stmt        *ast.Stmt     // non-nil for a statement-target PointDef
	Param       *ast.Function // non-nil for a parameter-origin PointDef
	Item        *ast.ListItem // non-nil only when Kind == PointSymbol
	DefineDepth int
}

func (*Point) ResolutionMarker() {}

var _ ast.Resolution = (*Point)(nil)

// Pos returns the best source position describing where Point was defined.
func (p *Point) Pos() source.Position {
	switch {
	case p.Stmt != nil:
		return ast.Position(p.Stmt)
	case p.Param != nil:
		return ast.Position(p.Param)
	case p.Item != nil:
		return ast.Position(p.Item)
	default:
		return source.Position{}
	}
}

// BindPhi records, for one identifier use, every candidate Point visible
// from the use site, grouped by scope depth (spec.md §3).
type BindPhi struct {
	ID         int
	Ident      *ast.Identifier
	Candidates map[int][]*Point
}

func (*BindPhi) ResolutionMarker() {}

var _ ast.Resolution = (*BindPhi)(nil)

// BlockInfo is the BDG's per-Block record (spec.md §3): identity, tree
// position, and the Points defined directly within it.
type BlockInfo struct {
	ID       int
	Parent   *BlockInfo
	Children []*BlockInfo
	Depth    int
	Points   []*Point
	AST      *ast.Block
}

// Index is the complete output of Build: the block tree plus the flat
// point and bindphi tables (spec.md §6, "Outputs from the core").
type Index struct {
	RootBlock *BlockInfo
	Blocks    []*BlockInfo
	Points    []*Point
	BindPhis  []*BindPhi
}

type builder struct {
	idx                                  *Index
	nextBlockID, nextPointID, nextPhiID int
}

// Build runs all four BDG phases (spec.md §4.C) over prog using the
// standard intrinsic table, and returns the resulting Index, or the
// first structural error encountered.
func Build(prog *ast.Program) (*Index, error) {
	return BuildWithIntrinsics(prog, intrinsic.Names)
}

// BuildWithIntrinsics runs the same four phases as Build but injects
// builtinNames as the intrinsic table (spec.md §4.C phase 2) instead of
// internal/intrinsic's default list. This backs pipeline.WithIntrinsics:
// a caller that wants a restricted or extended builtin surface (e.g. a
// sandboxed profile without readi32!/readchr!) gets the same phased
// resolution with a different depth -1 name set.
func BuildWithIntrinsics(prog *ast.Program, builtinNames []string) (*Index, error) {
	b := &builder{idx: &Index{}}

	b.phase0GlobalSymbols(prog)
	b.phase1BlockTreeAndTargets(prog)
	if err := b.checkNoDuplicatePointsPerBlock(); err != nil {
		return nil, err
	}
	b.phase2Builtins(builtinNames)
	if err := b.phase3ResolveIdentifiers(); err != nil {
		return nil, err
	}
	return b.idx, nil
}

// phase0GlobalSymbols walks the whole program creating a symbol Point
// (depth -2) for every indexed list item's key. It deliberately does not
// descend into a Function's Params: those keyed entries name parameters,
// not list values, and are registered as function-local point Points in
// phase1 instead (see Point.Param's doc comment).
func (b *builder) phase0GlobalSymbols(prog *ast.Program) {
	b.scanBlockForSymbols(prog.Root)
}

func (b *builder) scanBlockForSymbols(blk *ast.Block) {
	for _, st := range blk.Stmts {
		b.scanExprForSymbols(st.Expr)
	}
}

func (b *builder) scanExprForSymbols(e ast.Expr) {
	switch v := e.(type) {
	case *ast.List:
		for _, it := range v.Items {
			if it.HasKey {
				b.nextPointID++
				p := &Point{ID: b.nextPointID, Kind: PointSymbol, Name: it.Key, Item: it, DefineDepth: -2}
				b.idx.Points = append(b.idx.Points, p)
			}
			b.scanExprForSymbols(it.Value)
		}
	case *ast.Call:
		b.scanExprForSymbols(v.Fn)
		b.scanExprForSymbols(v.Arg)
	case *ast.Function:
		for _, a := range v.Annotations {
			b.scanExprForSymbols(a)
		}
		b.scanBlockForSymbols(v.Body)
	}
}

// phase1BlockTreeAndTargets descends the AST creating one BlockInfo per
// Block (program root and every function body) and a point-typed Point
// for every statement's bind target.
func (b *builder) phase1BlockTreeAndTargets(prog *ast.Program) {
	b.idx.RootBlock = b.walkBlock(prog.Root, nil, 0)
}

func (b *builder) walkBlock(blk *ast.Block, parent *BlockInfo, depth int) *BlockInfo {
	b.nextBlockID++
	bi := &BlockInfo{ID: b.nextBlockID, Parent: parent, Depth: depth, AST: blk}
	blk.Info = bi
	if parent != nil {
		parent.Children = append(parent.Children, bi)
	}
	b.idx.Blocks = append(b.idx.Blocks, bi)

	for _, st := range blk.Stmts {
		if st.HasTarget {
			b.nextPointID++
			p := &Point{ID: b.nextPointID, Kind: PointDef, Name: st.Target, Block: bi, Stmt: st, DefineDepth: depth}
			bi.Points = append(bi.Points, p)
			b.idx.Points = append(b.idx.Points, p)
		}
		b.findNestedBlocks(st.Expr, bi, depth)
	}
	return bi
}

// findNestedBlocks descends an expression tree looking only for Function
// literals, whose body becomes a new child BlockInfo one depth deeper
// than the block lexically containing the literal. It does not itself
// descend into a found Function's body; it hands the body to walkBlock
// and registers the parameters' points in the resulting block. It does
// continue into the function's annotations, which share the *enclosing*
// block's depth.
func (b *builder) findNestedBlocks(e ast.Expr, enclosing *BlockInfo, depth int) {
	switch v := e.(type) {
	case *ast.Function:
		for _, a := range v.Annotations {
			b.findNestedBlocks(a, enclosing, depth)
		}
		bodyInfo := b.walkBlock(v.Body, enclosing, depth+1)
		b.registerParamPoints(v, bodyInfo, depth+1)
	case *ast.Call:
		b.findNestedBlocks(v.Fn, enclosing, depth)
		b.findNestedBlocks(v.Arg, enclosing, depth)
	case *ast.List:
		for _, it := range v.Items {
			b.findNestedBlocks(it.Value, enclosing, depth)
		}
	}
}

// registerParamPoints gives every name bound by fn's parameter list
// (whichever of the three surface forms spec.md §4.B allows: a lone
// identifier, a bracketed list of bare names, or a keyed
// parenthesized parameter list) a point-typed Point owned by fn's own
// body block.
func (b *builder) registerParamPoints(fn *ast.Function, bodyInfo *BlockInfo, depth int) {
	for _, name := range paramNames(fn.Params) {
		b.nextPointID++
		p := &Point{ID: b.nextPointID, Kind: PointDef, Name: name, Block: bodyInfo, Param: fn, DefineDepth: depth}
		bodyInfo.Points = append(bodyInfo.Points, p)
		b.idx.Points = append(b.idx.Points, p)
	}
}

func paramNames(e ast.Expr) []string {
	switch v := e.(type) {
	case *ast.Identifier:
		return []string{v.Name}
	case *ast.List:
		var names []string
		for _, it := range v.Items {
			if it.HasKey {
				names = append(names, it.Key)
			} else if id, ok := it.Value.(*ast.Identifier); ok {
				names = append(names, id.Name)
			}
		}
		return names
	default:
		return nil
	}
}

// checkNoDuplicatePointsPerBlock enforces the guard spec.md §8 scenario 5
// calls out: a block sees at most one point per name, by construction of
// target-based points. Two statements binding the same name in the same
// block would otherwise leave the innermost-wins rule with a tied,
// non-singleton candidate set at that depth.
func (b *builder) checkNoDuplicatePointsPerBlock() error {
	for _, bi := range b.idx.Blocks {
		seen := map[string]*Point{}
		for _, p := range bi.Points {
			if prev, ok := seen[p.Name]; ok {
				return cerr.New(cerr.AmbiguousReference, p.Pos(),
					"%q is bound more than once in the same block (previous binding at %s)", p.Name, prev.Pos())
			}
			seen[p.Name] = p
		}
	}
	return nil
}

// phase2Builtins injects one builtin Point (depth -1) per name in names.
func (b *builder) phase2Builtins(names []string) {
	for _, name := range names {
		b.nextPointID++
		p := &Point{ID: b.nextPointID, Kind: PointBuiltin, Name: name, DefineDepth: -1}
		b.idx.Points = append(b.idx.Points, p)
	}
}

// phase3ResolveIdentifiers builds a BindPhi for every identifier use,
// processing blocks in depth-ascending order so nested-block targets are
// already indexed (via phase1) by the time anything references them.
func (b *builder) phase3ResolveIdentifiers() error {
	blocks := append([]*BlockInfo(nil), b.idx.Blocks...)
	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].Depth < blocks[j].Depth })

	for _, bi := range blocks {
		for _, st := range bi.AST.Stmts {
			if err := b.resolveExpr(st.Expr, bi); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *builder) resolveExpr(e ast.Expr, bi *BlockInfo) error {
	switch v := e.(type) {
	case *ast.Identifier:
		return b.resolveIdentifier(v, bi)
	case *ast.Call:
		if err := b.resolveExpr(v.Fn, bi); err != nil {
			return err
		}
		return b.resolveExpr(v.Arg, bi)
	case *ast.List:
		for _, it := range v.Items {
			if err := b.resolveExpr(it.Value, bi); err != nil {
				return err
			}
		}
		return nil
	case *ast.Function:
		// Annotations (e.g. "!pure", "!effect") are markers consulted by
		// name directly off the AST (see internal/effect), not references
		// into any scope, so they are deliberately not resolved here.
		if err := b.resolveParamTypeRefs(v.Params, bi); err != nil {
			return err
		}
		// v.Body is resolved on its own turn, as its own BlockInfo.
		return nil
	default:
		return nil
	}
}

// resolveParamTypeRefs resolves only the *type-name* identifiers that can
// appear inside a parenthesized typed-parameter list (e.g. the `i32` in
// `(a: i32)`); it deliberately does not resolve the parameter names
// themselves, which are binding occurrences (handled by
// registerParamPoints in phase 1), not uses. A bare params_ident or a
// bracketed list of bare parameter names therefore has nothing to resolve
// here.
func (b *builder) resolveParamTypeRefs(params ast.Expr, bi *BlockInfo) error {
	lst, ok := params.(*ast.List)
	if !ok {
		return nil
	}
	for _, it := range lst.Items {
		if !it.HasKey {
			continue
		}
		if id, ok := it.Value.(*ast.Identifier); ok {
			if err := b.resolveIdentifier(id, bi); err != nil {
				return err
			}
		}
	}
	return nil
}

// resolveIdentifier builds id's BindPhi per spec.md §4.C phase 3: global
// symbols at depth -2, enclosing-block points keyed by their own depth,
// then builtins at depth -1.
func (b *builder) resolveIdentifier(id *ast.Identifier, bi *BlockInfo) error {
	if id.PointRes != nil || id.BindPhiRes != nil {
		return nil
	}

	b.nextPhiID++
	bp := &BindPhi{ID: b.nextPhiID, Ident: id, Candidates: map[int][]*Point{}}

	for _, p := range b.idx.Points {
		if p.Kind == PointSymbol && p.Name == id.Name {
			bp.Candidates[-2] = append(bp.Candidates[-2], p)
		}
	}

	for cur := bi; cur != nil; cur = cur.Parent {
		for _, p := range cur.Points {
			if p.Name == id.Name {
				bp.Candidates[cur.Depth] = append(bp.Candidates[cur.Depth], p)
			}
		}
	}

	for _, p := range b.idx.Points {
		if p.Kind == PointBuiltin && p.Name == id.Name {
			bp.Candidates[-1] = append(bp.Candidates[-1], p)
		}
	}

	id.BindPhiRes = bp
	b.idx.BindPhis = append(b.idx.BindPhis, bp)
	return nil
}
