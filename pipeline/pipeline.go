// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pipeline is the programmatic entrypoint to the compiler
// frontend: it drives the eight components of spec.md §2's data-flow
// table in order and returns their combined output, or the first
// structural error any stage raises.
//
// Grounded on the teacher's engine package
// (_examples/godoctor-godoctor/engine/engine.go): both are a thin driver
// that sequences a fixed list of named stages over a single unit of work
// and stops at the first failure, rather than an accumulating session log.
package pipeline

import (
	"github.com/godoctor/langcore/cerr"
	"github.com/godoctor/langcore/corelog"
	"github.com/godoctor/langcore/internal/ast"
	"github.com/godoctor/langcore/internal/bdg"
	"github.com/godoctor/langcore/internal/closure"
	"github.com/godoctor/langcore/internal/effect"
	"github.com/godoctor/langcore/internal/intrinsic"
	"github.com/godoctor/langcore/internal/lex"
	"github.com/godoctor/langcore/internal/parse"
	"github.com/godoctor/langcore/internal/phi"
	"github.com/godoctor/langcore/internal/rewrite"
	"github.com/godoctor/langcore/internal/vg"
	"github.com/godoctor/langcore/source"
)

// Result is the complete output of one compilation (spec.md §6, "Outputs
// from the core"): the annotated Program plus its BDG index and the
// fully resolved, closure-converted, effect-annotated value graph.
//
// Fields past whatever stage WithStopAfter named are left nil/zero: a
// caller debugging the BDG builder in isolation, say, gets a Result with
// BDG populated and Graph/Closure untouched, rather than a partial value
// graph that looks complete but isn't.
type Result struct {
	Program *ast.Program
	BDG     *bdg.Index
	Graph   *vg.Graph
	Closure *closure.Result
}

// Stage names one of the pipeline's nine stages, in run order. Used
// only by WithStopAfter; corelog.Stage tags its own lines independently.
type Stage int

const (
	StageLex Stage = iota
	StageRewrite
	StageParse
	StageLower
	StageBDG
	StageVG
	StagePhi
	StageClosure
	StageEffect
)

// Source is one file's name and text, for CompileFiles.
type Source struct {
	File string
	Text string
}

// Options configures a single Compile/CompileFiles call. A call given no
// Option runs the full pipeline with the default intrinsic and effect-name
// tables (spec.md §6, §4.G).
type Options struct {
	intrinsics  []string
	effectNames []string
	stopAfter   Stage
	hasStop     bool
}

// Option mutates Options; grounded on the functional-options style the
// example pack's ardnew/aenv AST package uses for its own Parse/Eval
// configuration (WithMaxDepth, WithLogger, ...).
type Option func(*Options)

// WithIntrinsics overrides the builtin name table BDG construction
// injects at scope depth -1 (spec.md §4.C phase 2), in place of
// internal/intrinsic's default list. Useful for a restricted or
// extended language profile.
func WithIntrinsics(names []string) Option {
	return func(o *Options) { o.intrinsics = names }
}

// WithEffectNames overrides which of the (possibly custom) intrinsic
// names the effect analyzer treats as a builtin effect (spec.md §4.G
// step 1), in place of internal/intrinsic's default three.
func WithEffectNames(names []string) Option {
	return func(o *Options) { o.effectNames = names }
}

// WithStopAfter halts the pipeline once stage has completed and returns
// the Result accumulated so far with a nil error, skipping every later
// stage. Intended for debugging a single component without paying for
// (or risking an unrelated failure in) the rest of the pipeline.
func WithStopAfter(stage Stage) Option {
	return func(o *Options) { o.stopAfter = stage; o.hasStop = true }
}

func buildOptions(opts []Option) Options {
	o := Options{intrinsics: intrinsic.Names, effectNames: intrinsic.EffectNames}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// reached reports whether s is at or past the stage the caller asked to
// stop after. Result has no field to hold tokens/CST/parse-tree state on
// their own, so StageLex/StageRewrite/StageParse all collapse onto the
// same early return as StageLower: the first point where there's a
// Result field (Program) to hand back.
func (o Options) reached(s Stage) bool { return o.hasStop && o.stopAfter <= s }

// Compile runs the full pipeline over src (named file for diagnostics),
// logging one line per stage via log (corelog.Discard() if the caller
// doesn't want tracing).
func Compile(file, src string, log *corelog.Logger, opts ...Option) (*Result, error) {
	return CompileFiles([]Source{{File: file, Text: src}}, log, opts...)
}

// CompileFiles runs the full pipeline over multiple source files as one
// program: each file is lexed, rewritten and parsed independently (so a
// syntax error reports against its own file), then their top-level
// blocks are concatenated, in argument order, into a single root block
// before BDG construction — the same scope depth-0 a single-file Program
// would have, just with statements drawn from more than one file. Every
// statement keeps its own originating file in its source positions, so
// diagnostics from later stages still point at the right file.
func CompileFiles(srcs []Source, log *corelog.Logger, opts ...Option) (*Result, error) {
	if log == nil {
		log = corelog.Discard()
	}
	o := buildOptions(opts)

	prog := &ast.Program{Root: &ast.Block{}}
	prog.Root.SetParent(prog)

	totalTokens := 0
	for _, s := range srcs {
		toks, err := lex.New(s.File, s.Text).All()
		if err != nil {
			return nil, cerr.New(cerr.SyntaxError, source.Position{File: s.File}, "%s", err.Error())
		}
		totalTokens += len(toks)

		toks = rewrite.Run(toks)

		cst, err := parse.New(toks).Program()
		if err != nil {
			return nil, cerr.New(cerr.SyntaxError, source.Position{File: s.File}, "%s", err.Error())
		}

		filProg, err := ast.Lower(cst)
		if err != nil {
			return nil, err
		}
		for _, st := range filProg.Root.Stmts {
			st.SetParent(prog.Root)
			prog.Root.Stmts = append(prog.Root.Stmts, st)
		}
	}
	log.Stage("lex").Counts(map[string]int{"tokens": totalTokens})
	log.Stage("rewrite").Debugf("bind-token disambiguation complete")
	log.Stage("parse").Debugf("parse tree built")
	log.Stage("lower").Counts(map[string]int{"files": len(srcs), "stmts": len(prog.Root.Stmts)})

	res := &Result{Program: prog}
	if o.reached(StageLower) {
		return res, nil
	}

	idx, err := bdg.BuildWithIntrinsics(prog, o.intrinsics)
	if err != nil {
		return res, err
	}
	log.Stage("bdg").Counts(map[string]int{
		"blocks":   len(idx.Blocks),
		"points":   len(idx.Points),
		"bindphis": len(idx.BindPhis),
	})
	res.BDG = idx
	if o.reached(StageBDG) {
		return res, nil
	}

	g, err := vg.Build(idx)
	if err != nil {
		return res, err
	}
	log.Stage("vg").Counts(map[string]int{
		"nodes": len(g.Nodes),
		"edges": len(g.Edges),
		"phis":  len(g.Phis),
	})
	res.Graph = g
	if o.reached(StageVG) {
		return res, nil
	}

	if err := phi.Resolve(g); err != nil {
		return res, err
	}
	log.Stage("phi").Debugf("all phis resolved")
	if o.reached(StagePhi) {
		return res, nil
	}

	closureRes, err := closure.Convert(g)
	if err != nil {
		return res, err
	}
	log.Stage("closure").Counts(map[string]int{"fndefs_extended": len(closureRes.ClosureParams)})
	res.Closure = closureRes
	if o.reached(StageClosure) {
		return res, nil
	}

	if err := effect.AnalyzeWithEffects(g, idx, o.effectNames); err != nil {
		return res, err
	}
	log.Stage("effect").Debugf("effect analysis complete")

	return res, nil
}
